package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/comps"
	"github.com/sells-group/inventory-cli/internal/config"
	"github.com/sells-group/inventory-cli/internal/inventory"
	"github.com/sells-group/inventory-cli/internal/metrics"
	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/store"
	"github.com/sells-group/inventory-cli/pkg/vpic"
)

type failingDecoder struct{}

func (failingDecoder) Decode(context.Context, string) (*vpic.Decoded, error) {
	return nil, errors.New("offline")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	cfg := &config.Config{
		Dealership: config.DealershipConfig{DefaultID: "1"},
		Engine: config.EngineConfig{
			DefaultMedianDaysToSale: 45,
			DefaultDemandScore:      50,
			DefaultFloorplanAPR:     6.5,
			DefaultMinMargin:        500,
			BaseLambda:              0.035,
			PriceSensitivity:        0.0015,
			InflectionHorizonDays:   180,
			CurveDays:               90,
		},
		Comps: config.CompsConfig{Provider: "mock", MinCount: 8, MaxCount: 12, DefaultPrice: 25000, DefaultMileage: 40000, DefaultYear: 2022, SoldProbability: 0.4},
		Waterfall: config.WaterfallConfig{
			DefaultRules:     []config.WaterfallRuleConfig{{TriggerDay: 15, ReductionPct: 3, MinMarginFloor: 1500}},
			PriceFloorPolicy: "total_cost",
		},
		Alarm:  config.AlarmConfig{Enabled: true, Hour: 6},
		Batch:  config.BatchConfig{MaxConcurrentVehicles: 2},
		Server: config.ServerConfig{TimeoutSecs: 10},
	}
	m := metrics.New(prometheus.NewRegistry(), "inventory")
	svc, err := inventory.New(st, cfg, inventory.WithDecoder(failingDecoder{}), inventory.WithMetrics(m))
	require.NoError(t, err)

	ts := httptest.NewServer(New(svc, m, cfg.Server).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, dealer string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if dealer != "" {
		req.Header.Set(DealershipHeader, dealer)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func addVehicle(t *testing.T, ts *httptest.Server, dealer, vin string) model.Vehicle {
	t.Helper()
	acquired := time.Now().AddDate(0, 0, -20)
	resp, body := do(t, ts, http.MethodPost, "/api/vehicles/from-vin", dealer, map[string]any{
		"vin":                  vin,
		"acquisition_cost":     20000,
		"recon_cost":           1000,
		"list_price":           25000,
		"wholesale_exit_price": 19000,
		"date_acquired":        acquired.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var v model.Vehicle
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestVehicleLifecycle(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	v := addVehicle(t, ts, "", "1hgcm82633a004352")
	assert.Equal(t, "1HGCM82633A004352", v.VIN)
	assert.Equal(t, "1", v.DealershipID)
	assert.Equal(t, 20, v.DaysInInventory)

	resp, body := do(t, ts, http.MethodPost, "/api/vehicles/from-vin", "", map[string]any{"vin": "1HGCM82633A004352"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, _ = do(t, ts, http.MethodGet, "/api/vehicles/"+v.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodGet, "/api/vehicles/"+v.ID, "other", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPut, "/api/vehicles/"+v.ID, "", map[string]any{"list_price": 24000})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = do(t, ts, http.MethodPut, "/api/vehicles/"+v.ID, "", map[string]any{"recon_cost": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodPut, "/api/vehicles/"+v.ID, "", map[string]any{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/api/vehicles/"+v.ID+"/price-events", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []model.PriceEvent
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, model.EventManualOverride, events[0].EventType)

	resp, body = do(t, ts, http.MethodGet, "/api/vehicles?status=active", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Vehicle
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, _ = do(t, ts, http.MethodGet, "/api/vehicles?status=parked", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignalsRoutes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	v := addVehicle(t, ts, "7", "VIN00000000000001")

	resp, body := do(t, ts, http.MethodPut, "/api/vehicles/"+v.ID+"/signals", "7", map[string]any{"views_total": 80, "leads_last_7": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, ts, http.MethodGet, "/api/vehicles/"+v.ID+"/signals", "7", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sig model.Signals
	require.NoError(t, json.Unmarshal(body, &sig))
	assert.Equal(t, 80, sig.ViewsTotal)
	assert.Equal(t, 2, sig.LeadsLast7)
}

func TestCompsAndAnalysisRoutes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	v := addVehicle(t, ts, "", "VIN00000000000001")
	base := "/api/vehicles/" + v.ID

	resp, _ := do(t, ts, http.MethodGet, base+"/comps/summary", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, ts, http.MethodPost, base+"/comps/refresh", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "automated comps.")

	resp, body = do(t, ts, http.MethodPost, base+"/comps/manual", "", map[string]any{"price": 26000, "listing_status": "sold"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = do(t, ts, http.MethodGet, base+"/comps?source=manual", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var manual []model.Comp
	require.NoError(t, json.Unmarshal(body, &manual))
	assert.Len(t, manual, 1)

	resp, _ = do(t, ts, http.MethodGet, base+"/curve", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPost, base+"/analyze", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var report model.AnalysisReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, v.ID, report.VehicleID)

	resp, body = do(t, ts, http.MethodGet, base+"/curve?days=14", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var curve inventory.Curve
	require.NoError(t, json.Unmarshal(body, &curve))
	assert.Equal(t, 14, curve.Days)

	resp, _ = do(t, ts, http.MethodGet, base+"/curve?days=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, base+"/curve?days=200", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/api/vehicles/insights", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var insights []model.Insight
	require.NoError(t, json.Unmarshal(body, &insights))
	require.Len(t, insights, 1)
	assert.NotEmpty(t, insights[0].OneLineAction)

	resp, body = do(t, ts, http.MethodPost, "/api/vehicles/analyze-all", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Analyzed 1 active vehicles.")

	resp, body = do(t, ts, http.MethodPost, "/api/vehicles/refresh-all-comps", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Refreshed comps for 1 vehicles.")
}

func TestUploadRoute(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	v := addVehicle(t, ts, "", "VIN00000000000001")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "comps.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Join(comps.UploadColumns, ",") + "\n" +
		"2021,Honda,Accord,EX,32000,24500,,21,12.5,Metro Honda,active\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/vehicles/"+v.ID+"/comps/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var res inventory.CompResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "Uploaded 1 manual comps from CSV.", res.Message)

	missing, _ := do(t, ts, http.MethodPost, "/api/vehicles/"+v.ID+"/comps/upload", "", nil)
	assert.Equal(t, http.StatusBadRequest, missing.StatusCode)
}

func TestAlarmRoutes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	addVehicle(t, ts, "", "VIN00000000000001")

	resp, _ := do(t, ts, http.MethodGet, "/api/alarms/latest", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, ts, http.MethodGet, "/api/alarms/config", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settings model.AlarmSettings
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, []int{30, 45, 60, 75}, settings.Thresholds)

	resp, body = do(t, ts, http.MethodPut, "/api/alarms/config", "", map[string]any{"thresholds": []int{20}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, ts, http.MethodPost, "/api/alarms/run", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var report model.AlarmReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 1, report.TotalActiveUnits)
	require.Len(t, report.ThresholdCrossings, 1)
	assert.Len(t, report.ThresholdCrossings[0].Vehicles, 1)

	resp, _ = do(t, ts, http.MethodGet, "/api/alarms/latest", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, ts, http.MethodGet, "/api/alarms/history?limit=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []model.AlarmReport
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Len(t, history, 1)

	resp, _ = do(t, ts, http.MethodGet, "/api/alarms/history?limit=0", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/alarms/history?limit=400", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWaterfallRoutes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	v := addVehicle(t, ts, "", "VIN00000000000001")
	base := "/api/vehicles/" + v.ID + "/pricing-waterfall"

	resp, body := do(t, ts, http.MethodGet, "/api/settings/pricing-waterfall", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"price_floor_policy":"total_cost"`)

	resp, _ = do(t, ts, http.MethodPut, "/api/settings/pricing-waterfall", "", map[string]any{"price_floor_policy": "cost_plus"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPost, base+"/plan", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var plan model.WaterfallPlan
	require.NoError(t, json.Unmarshal(body, &plan))
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, 24250.0, plan.Steps[0].NewPrice)

	resp, _ = do(t, ts, http.MethodPost, base+"/apply?step=4", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPost, base+"/apply", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated model.Vehicle
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, 24250.0, updated.ListPrice)

	resp, body = do(t, ts, http.MethodGet, "/api/price-events?limit=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []model.PriceEvent
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, model.EventWaterfallReduction, events[0].EventType)
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	addVehicle(t, ts, "", "VIN00000000000001")
	do(t, ts, http.MethodPost, "/api/alarms/run", "", nil)

	resp, body := do(t, ts, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `inventory_alarm_runs_total{trigger="manual"} 1`)
}
