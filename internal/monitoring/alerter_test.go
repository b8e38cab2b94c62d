package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-cli/internal/config"
	"github.com/sells-group/inventory-cli/internal/model"
)

func TestAlerter_Evaluate(t *testing.T) {
	t.Parallel()

	report := GenerateAlarm(fleet(), nil, "dealer-1", 6.5)
	settings := model.AlarmSettings{EmailTargets: []string{"gm@example.com"}}

	alerts := NewAlerter(config.AlarmConfig{}).Evaluate(&report, settings)

	// summary + underwater + three thresholds with crossings
	require.Len(t, alerts, 5)
	assert.Equal(t, AlertDailySummary, alerts[0].Type)
	assert.Equal(t, "info", alerts[0].Severity)
	assert.Equal(t, report.ExecutiveSummary, alerts[0].Message)
	assert.Equal(t, AlertUnderwater, alerts[1].Type)
	assert.Equal(t, "high", alerts[1].Severity)
	assert.Equal(t, []string{"VINB"}, alerts[1].Details["vins"])
	assert.Equal(t, AlertThresholdCrossing, alerts[2].Type)
	assert.Equal(t, "1 vehicle(s) crossed the 30-day threshold", alerts[2].Message)

	for _, a := range alerts {
		assert.Equal(t, "dealer-1", a.DealershipID)
		assert.Equal(t, []string{"gm@example.com"}, a.EmailTargets)
	}
}

func TestAlerter_Evaluate_SummaryOnly(t *testing.T) {
	t.Parallel()

	report := GenerateAlarm(nil, nil, "d", 6.5)
	alerts := NewAlerter(config.AlarmConfig{}).Evaluate(&report, model.AlarmSettings{})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertDailySummary, alerts[0].Type)
}

func TestAlerter_SendAlerts(t *testing.T) {
	t.Parallel()

	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var alert Alert
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.Equal(t, "d", alert.DealershipID)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.AlarmConfig{WebhookURL: srv.URL})
	report := GenerateAlarm(nil, nil, "d", 6.5)
	sent := a.SendAlerts(context.Background(), a.Evaluate(&report, model.AlarmSettings{}))

	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
}

func TestAlerter_SendAlerts_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := NewAlerter(config.AlarmConfig{WebhookURL: srv.URL})
	a.retry.BaseDelay = 1
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertDailySummary}})

	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAlerter_SendAlerts_PermanentFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	a := NewAlerter(config.AlarmConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertDailySummary}})

	assert.Equal(t, 0, sent)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	t.Parallel()

	a := NewAlerter(config.AlarmConfig{})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertDailySummary}}))
}
