package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/comps"
	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/store"
)

func TestRefreshComps_ReplacesAutoAndRebuildsSummary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	_, err := f.svc.CompSummary(ctx, dealer, v.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	res, err := f.svc.RefreshComps(ctx, dealer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refreshed 5 automated comps.", res.Message)
	require.NotNil(t, res.Summary.MedianPrice)
	assert.Equal(t, 25000.0, *res.Summary.MedianPrice)
	assert.Equal(t, 5, res.Summary.AutoCount)

	// A second refresh replaces rather than appends.
	_, err = f.svc.RefreshComps(ctx, dealer, v.ID)
	require.NoError(t, err)
	auto, err := f.svc.ListComps(ctx, dealer, v.ID, model.CompSourceAuto)
	require.NoError(t, err)
	assert.Len(t, auto, 5)
	for _, c := range auto {
		assert.Equal(t, v.ID, c.VehicleID)
		assert.Equal(t, model.CompSourceAuto, c.Source)
		assert.True(t, testNow.Equal(c.FoundAt))
	}

	stored, err := f.svc.CompSummary(ctx, dealer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.AutoCount)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.CompRefreshesTotal.WithLabelValues(TriggerRefresh)))
}

func TestRefreshComps_SourceError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	v := f.addVehicle(t, "1HGCM82633A004352", 10)
	f.source.err = errors.New("feed down")

	_, err := f.svc.RefreshComps(context.Background(), dealer, v.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
}

func TestAddManualComp_FlagsDiscrepancy(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)
	_, err := f.svc.RefreshComps(ctx, dealer, v.ID)
	require.NoError(t, err)

	price := 35000.0
	c, err := f.svc.AddManualComp(ctx, dealer, v.ID, CompInput{Year: 2021, Make: "Honda", Model: "Accord", Price: &price})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, model.CompSourceManual, c.Source)
	assert.Equal(t, model.ListingActive, c.ListingStatus)

	summary, err := f.svc.CompSummary(ctx, dealer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ManualCount)
	assert.Equal(t, 25500.0, *summary.MedianPrice)
	assert.True(t, summary.DiscrepancyFlag)
	assert.Equal(t, "auto", summary.WeightedSource)

	all, err := f.svc.ListComps(ctx, dealer, v.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	_, err = f.svc.AddManualComp(ctx, dealer, v.ID, CompInput{ListingStatus: "pending"})
	assert.True(t, IsInvalid(err))

	_, err = f.svc.ListComps(ctx, dealer, v.ID, "scraped")
	assert.True(t, IsInvalid(err))
}

func TestUploadComps(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	input := strings.Join(comps.UploadColumns, ",") + "\n" +
		"2021,Honda,Accord,EX,32000,24500,,21,12.5,Metro Honda,active\n" +
		"2020,Honda,Accord,LX,41000,\"$22,900\",22500,35,40,Valley Auto,sold\n" +
		"2019,Honda,Accord,,abc,21000,,,,,\n"

	res, err := f.svc.UploadComps(ctx, dealer, v.ID, "comps.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Uploaded 2 manual comps from CSV.", res.Message)
	assert.Equal(t, 2, res.Stored)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Summary.ManualCount)

	manual, err := f.svc.ListComps(ctx, dealer, v.ID, model.CompSourceManual)
	require.NoError(t, err)
	assert.Len(t, manual, 2)
}

func TestRefreshAllComps(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.addVehicle(t, "VIN00000000000001", 5)
	f.addVehicle(t, "VIN00000000000002", 15)
	sold := f.addVehicle(t, "VIN00000000000003", 25)
	st := model.VehicleStatusSold
	_, err := f.svc.UpdateVehicle(ctx, dealer, sold.ID, VehicleUpdate{Status: &st})
	require.NoError(t, err)

	res, err := f.svc.RefreshAllComps(ctx, dealer)
	require.NoError(t, err)
	assert.Equal(t, "Refreshed comps for 2 vehicles.", res.Message)
	assert.Equal(t, 0, res.Failed)

	got, err := f.svc.ListComps(ctx, dealer, a.ID, model.CompSourceAuto)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = f.svc.CompSummary(ctx, dealer, sold.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshAllComps_CountsFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addVehicle(t, "VIN00000000000001", 5)
	f.addVehicle(t, "VIN00000000000002", 15)
	f.source.err = errors.New("feed down")

	res, err := f.svc.RefreshAllComps(context.Background(), dealer)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 2, res.Failed)
}
