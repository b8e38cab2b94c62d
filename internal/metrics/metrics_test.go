package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/model"
)

func TestRecordAnalysis(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry(), "test")

	m.RecordAnalysis(model.AgingDanger, 5*time.Millisecond)
	m.RecordAnalysis(model.AgingDanger, 5*time.Millisecond)
	m.RecordAnalysis(model.AgingHealthy, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("danger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("healthy")))
}

func TestRecordAlarm(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry(), "test")

	m.RecordAlarm("manual", &model.AlarmReport{
		DealershipID:       "d1",
		TotalDailyBurn:     123.45,
		UnderwaterVehicles: []model.UnderwaterVehicle{{VIN: "A"}, {VIN: "B"}},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlarmsTotal.WithLabelValues("manual")))
	assert.Equal(t, 123.45, testutil.ToFloat64(m.FleetDailyBurn.WithLabelValues("d1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnderwaterVehicles.WithLabelValues("d1")))
}

func TestRecordCompRefreshAndPriceEvent(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry(), "test")

	m.RecordCompRefresh("refresh", model.CompSourceAuto, 12)
	m.RecordCompRefresh("manual", model.CompSourceManual, 0)
	m.RecordPriceEvent(model.EventWaterfallReduction)

	assert.Equal(t, 12.0, testutil.ToFloat64(m.CompsStored.WithLabelValues("auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompRefreshesTotal.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceEventsTotal.WithLabelValues("waterfall_reduction")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordAnalysis(model.AgingHealthy, time.Second)
		m.RecordAlarm("cron", &model.AlarmReport{})
		m.RecordCompRefresh("refresh", model.CompSourceAuto, 3)
		m.RecordPriceEvent(model.EventManualOverride)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	t.Parallel()
	m := New(nil, "")
	m.RecordPriceEvent(model.EventStatusChange)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `inventory_pricing_events_total{event_type="status_change"} 1`)
}
