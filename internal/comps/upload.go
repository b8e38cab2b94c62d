package comps

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/fetcher"
	"github.com/sells-group/inventory-cli/internal/model"
)

// UploadColumns lists the columns read from a manual comp upload.
var UploadColumns = []string{
	"year", "make", "model", "trim", "mileage", "price", "sold_price",
	"days_on_market", "distance_miles", "dealer_name", "listing_status",
}

// UploadResult is the outcome of parsing a manual comp upload.
type UploadResult struct {
	Comps   []model.Comp
	Skipped int
}

// ParseUpload reads manual comps for vehicleID from a CSV or XLSX upload.
// Rows with unparseable numbers or an unknown listing status are skipped.
func ParseUpload(ctx context.Context, r io.Reader, filename, vehicleID string) (*UploadResult, error) {
	records, err := fetcher.ReadTable(ctx, r, fetcher.DetectFormat(filename))
	if err != nil {
		return nil, eris.Wrap(err, "comps: read upload")
	}

	res := &UploadResult{Comps: make([]model.Comp, 0, len(records))}
	for _, rec := range records {
		c, err := compFromRecord(rec, vehicleID)
		if err != nil {
			res.Skipped++
			zap.L().Debug("comps: skipping upload row",
				zap.Int("line", rec.Line),
				zap.Error(err),
			)
			continue
		}
		res.Comps = append(res.Comps, c)
	}
	return res, nil
}

func compFromRecord(rec fetcher.Record, vehicleID string) (model.Comp, error) {
	c := model.Comp{
		VehicleID:     vehicleID,
		Source:        model.CompSourceManual,
		Make:          rec.Get("make"),
		Model:         rec.Get("model"),
		Trim:          rec.Get("trim"),
		DealerName:    rec.Get("dealer_name"),
		ListingStatus: model.ListingActive,
	}

	var err error
	if c.Year, err = optionalInt(rec, "year"); err != nil {
		return c, err
	}
	if c.Mileage, err = intPtr(rec, "mileage"); err != nil {
		return c, err
	}
	if c.Price, err = floatPtr(rec, "price"); err != nil {
		return c, err
	}
	if c.SoldPrice, err = floatPtr(rec, "sold_price"); err != nil {
		return c, err
	}
	if c.DaysOnMarket, err = intPtr(rec, "days_on_market"); err != nil {
		return c, err
	}
	if c.DistanceMiles, err = floatPtr(rec, "distance_miles"); err != nil {
		return c, err
	}

	if s := rec.Get("listing_status"); s != "" {
		status := model.ListingStatus(strings.ToLower(s))
		if !status.Valid() {
			return c, eris.Errorf("comps: unknown listing_status %q", s)
		}
		c.ListingStatus = status
	}
	return c, nil
}

func cleanNumber(s string) string {
	return strings.NewReplacer("$", "", ",", "").Replace(s)
}

func optionalInt(rec fetcher.Record, col string) (int, error) {
	s := cleanNumber(rec.Get(col))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "comps: parse %s", col)
	}
	return v, nil
}

func intPtr(rec fetcher.Record, col string) (*int, error) {
	s := cleanNumber(rec.Get(col))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, eris.Wrapf(err, "comps: parse %s", col)
	}
	return &v, nil
}

func floatPtr(rec fetcher.Record, col string) (*float64, error) {
	s := cleanNumber(rec.Get(col))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "comps: parse %s", col)
	}
	return &v, nil
}
