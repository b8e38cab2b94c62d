package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/store"
)

func TestAddFromVIN_DecodesAndDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.AddFromVIN(ctx, dealer, VehicleInput{
		VIN:             " 1hgcm82633a004352 ",
		AcquisitionCost: 18000,
		ListPrice:       22000,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "1HGCM82633A004352", v.VIN)
	assert.Equal(t, 2021, v.Year)
	assert.Equal(t, "Honda", v.Make)
	assert.Equal(t, "Accord", v.Model)
	assert.Equal(t, 6.5, v.FloorplanRateAPR)
	assert.Equal(t, 500.0, v.MinAcceptableMargin)
	assert.Equal(t, model.VehicleStatusActive, v.Status)
	assert.Equal(t, 0, v.DaysInInventory)
	require.NotNil(t, v.DateAcquired)

	sig, err := f.svc.GetSignals(ctx, dealer, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, sig.VehicleID)
	assert.Zero(t, sig.ViewsTotal)
}

func TestAddFromVIN_DecodeFailureKeepsVehicle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	v := f.addVehicle(t, "5YJ3E1EA7KF000001", 12)
	assert.Empty(t, v.Make)
	assert.Zero(t, v.Year)
	assert.Equal(t, 12, v.DaysInInventory)
}

func TestAddFromVIN_Duplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	first := f.addVehicle(t, "1HGCM82633A004352", 5)

	_, err := f.svc.AddFromVIN(ctx, dealer, VehicleInput{VIN: "1HGCM82633A004352", ListPrice: 1})
	require.ErrorIs(t, err, ErrDuplicateVIN)
	assert.Contains(t, err.Error(), first.ID)

	// A sold unit no longer blocks the VIN.
	sold := model.VehicleStatusSold
	_, err = f.svc.UpdateVehicle(ctx, dealer, first.ID, VehicleUpdate{Status: &sold})
	require.NoError(t, err)
	_, err = f.svc.AddFromVIN(ctx, dealer, VehicleInput{VIN: "1HGCM82633A004352", ListPrice: 1})
	require.NoError(t, err)

	// Other dealerships are independent.
	_, err = f.svc.AddFromVIN(ctx, "d2", VehicleInput{VIN: "1HGCM82633A004352", ListPrice: 1})
	require.NoError(t, err)
}

func TestAddFromVIN_Invalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddFromVIN(ctx, dealer, VehicleInput{VIN: "  "})
	assert.True(t, IsInvalid(err))

	_, err = f.svc.AddFromVIN(ctx, dealer, VehicleInput{VIN: "ABC", ListPrice: -1})
	assert.True(t, IsInvalid(err))
}

func TestListVehicles_OldestFirstWithFreshDays(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	young := f.addVehicle(t, "VIN00000000000001", 3)
	old := f.addVehicle(t, "VIN00000000000002", 40)
	mid := f.addVehicle(t, "VIN00000000000003", 20)

	// Simulate a stale stored age.
	stale, err := f.store.GetVehicle(ctx, mid.ID)
	require.NoError(t, err)
	stale.DaysInInventory = 1
	require.NoError(t, f.store.UpdateVehicle(ctx, stale))

	got, err := f.svc.ListVehicles(ctx, dealer, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{old.ID, mid.ID, young.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 20, got[1].DaysInInventory)

	persisted, err := f.store.GetVehicle(ctx, mid.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, persisted.DaysInInventory)

	_, err = f.svc.ListVehicles(ctx, dealer, "parked")
	assert.True(t, IsInvalid(err))
}

func TestUpdateVehicle_LogsPriceAndStatusEvents(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	newPrice := 23500.0
	got, err := f.svc.UpdateVehicle(ctx, dealer, v.ID, VehicleUpdate{ListPrice: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 23500.0, got.ListPrice)

	wholesale := model.VehicleStatusWholesale
	_, err = f.svc.UpdateVehicle(ctx, dealer, v.ID, VehicleUpdate{Status: &wholesale})
	require.NoError(t, err)

	events, err := f.svc.VehiclePriceEvents(ctx, dealer, v.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byType := map[model.PriceEventType]model.PriceEvent{}
	for _, e := range events {
		byType[e.EventType] = e
	}
	manual := byType[model.EventManualOverride]
	assert.Equal(t, 25000.0, manual.OldPrice)
	assert.Equal(t, 23500.0, manual.NewPrice)
	assert.Equal(t, "Manual price update by dealer.", manual.Reason)
	assert.Equal(t, "user", manual.TriggeredBy)

	status := byType[model.EventStatusChange]
	assert.Equal(t, 23500.0, status.OldPrice)
	assert.Equal(t, 23500.0, status.NewPrice)
	assert.Equal(t, "Status changed from active to wholesale.", status.Reason)
}

func TestUpdateVehicle_NoEventWhenUnchanged(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	same := v.ListPrice
	mileage := 50000
	got, err := f.svc.UpdateVehicle(ctx, dealer, v.ID, VehicleUpdate{ListPrice: &same, Mileage: &mileage})
	require.NoError(t, err)
	assert.Equal(t, 50000, got.Mileage)

	events, err := f.svc.VehiclePriceEvents(ctx, dealer, v.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateVehicle_SoldStampsDate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	sold := model.VehicleStatusSold
	got, err := f.svc.UpdateVehicle(context.Background(), dealer, v.ID, VehicleUpdate{Status: &sold})
	require.NoError(t, err)
	require.NotNil(t, got.DateSold)
	assert.True(t, testNow.Equal(*got.DateSold))
}

func TestUpdateVehicle_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	bogus := model.VehicleStatus("stolen")
	_, err := f.svc.UpdateVehicle(ctx, dealer, v.ID, VehicleUpdate{Status: &bogus})
	assert.True(t, IsInvalid(err))

	negative := -5.0
	_, err = f.svc.UpdateVehicle(ctx, dealer, v.ID, VehicleUpdate{ReconCost: &negative})
	assert.True(t, IsInvalid(err))

	_, err = f.svc.UpdateVehicle(ctx, dealer, "missing", VehicleUpdate{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateSignals_Partial(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.addVehicle(t, "1HGCM82633A004352", 10)

	views, leads := 120, 4
	_, err := f.svc.UpdateSignals(ctx, dealer, v.ID, SignalsUpdate{ViewsTotal: &views, LeadsTotal: &leads})
	require.NoError(t, err)

	notes := "clean carfax"
	got, err := f.svc.UpdateSignals(ctx, dealer, v.ID, SignalsUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 120, got.ViewsTotal)
	assert.Equal(t, 4, got.LeadsTotal)
	assert.Equal(t, "clean carfax", got.Notes)

	neg := -1
	_, err = f.svc.UpdateSignals(ctx, dealer, v.ID, SignalsUpdate{TestDrives: &neg})
	assert.True(t, IsInvalid(err))
}
