package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-cli/internal/config"
	"github.com/sells-group/inventory-cli/internal/model"
	"github.com/sells-group/inventory-cli/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertDailySummary      AlertType = "daily_summary"
	AlertUnderwater        AlertType = "underwater_units"
	AlertThresholdCrossing AlertType = "threshold_crossing"
)

// Alert is one notification derived from an alarm report.
type Alert struct {
	Type         AlertType      `json:"type"`
	Severity     string         `json:"severity"`
	DealershipID string         `json:"dealership_id"`
	Message      string         `json:"message"`
	Details      map[string]any `json:"details,omitempty"`
	EmailTargets []string       `json:"email_targets,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Alerter turns alarm reports into alerts and posts them to a webhook.
type Alerter struct {
	webhookURL string
	client     *http.Client
	retry      resilience.Policy
}

// NewAlerter creates an Alerter for the configured webhook.
func NewAlerter(cfg config.AlarmConfig) *Alerter {
	return &Alerter{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		retry:      resilience.NewPolicy("alarm_webhook", 3),
	}
}

// Evaluate returns a summary alert plus one alert for underwater units and
// one per threshold with crossings.
func (a *Alerter) Evaluate(report *model.AlarmReport, settings model.AlarmSettings) []Alert {
	now := time.Now().UTC()
	base := func(t AlertType, severity, msg string, details map[string]any) Alert {
		return Alert{
			Type:         t,
			Severity:     severity,
			DealershipID: report.DealershipID,
			Message:      msg,
			Details:      details,
			EmailTargets: settings.EmailTargets,
			Timestamp:    now,
		}
	}

	alerts := []Alert{base(AlertDailySummary, "info", report.ExecutiveSummary, map[string]any{
		"total_active_units": report.TotalActiveUnits,
		"total_daily_burn":   report.TotalDailyBurn,
		"projected_burn_30":  report.ProjectedBurn30,
		"projected_burn_60":  report.ProjectedBurn60,
	})}

	if n := len(report.UnderwaterVehicles); n > 0 {
		vins := make([]string, 0, n)
		for _, u := range report.UnderwaterVehicles {
			vins = append(vins, u.VIN)
		}
		alerts = append(alerts, base(AlertUnderwater, "high",
			fmt.Sprintf("%d vehicle(s) have negative net gross after carry", n),
			map[string]any{"vins": vins}))
	}

	for _, tc := range report.ThresholdCrossings {
		if len(tc.Vehicles) == 0 {
			continue
		}
		alerts = append(alerts, base(AlertThresholdCrossing, "medium",
			fmt.Sprintf("%d vehicle(s) crossed the %d-day threshold", len(tc.Vehicles), tc.Threshold),
			map[string]any{"threshold": tc.Threshold, "count": len(tc.Vehicles)}))
	}
	return alerts
}

// SendAlerts delivers alerts to the webhook and returns how many were sent.
// Without a webhook URL nothing is sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.webhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, a.retry, func(ctx context.Context) error {
			return a.sendWebhook(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("dealership_id", alert.DealershipID),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	return resilience.CheckStatus("monitoring: webhook", resp.StatusCode)
}
