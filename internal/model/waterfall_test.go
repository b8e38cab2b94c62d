package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWaterfallRuleJSONDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  WaterfallRule
	}{
		{"omitted keys", `{}`, WaterfallRule{TriggerDay: 30, ReductionPct: 5}},
		{"explicit zeros", `{"trigger_day": 0, "reduction_pct": 0}`, WaterfallRule{}},
		{"partial", `{"reduction_pct": 4, "min_margin_floor": 800}`, WaterfallRule{TriggerDay: 30, ReductionPct: 4, MinMarginFloor: 800}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var r WaterfallRule
			require.NoError(t, json.Unmarshal([]byte(tt.input), &r))
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestWaterfallRuleJSONRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	var r WaterfallRule
	require.Error(t, json.Unmarshal([]byte(`{"trigger_days": 10}`), &r))
}

func TestWaterfallRuleJSONInSettings(t *testing.T) {
	t.Parallel()

	var s WaterfallSettings
	require.NoError(t, json.Unmarshal([]byte(`{"rules": [{"trigger_day": 15}, {"trigger_day": 20, "reduction_pct": 0}]}`), &s))
	require.Len(t, s.Rules, 2)
	assert.Equal(t, WaterfallRule{TriggerDay: 15, ReductionPct: 5}, s.Rules[0])
	assert.Equal(t, WaterfallRule{TriggerDay: 20}, s.Rules[1])
}

func TestWaterfallRuleYAMLDefaults(t *testing.T) {
	t.Parallel()

	var s WaterfallSettings
	input := "rules:\n  - min_margin_floor: 250\n  - trigger_day: 45\n    reduction_pct: 0\n"
	require.NoError(t, yaml.Unmarshal([]byte(input), &s))
	require.Len(t, s.Rules, 2)
	assert.Equal(t, WaterfallRule{TriggerDay: 30, ReductionPct: 5, MinMarginFloor: 250}, s.Rules[0])
	assert.Equal(t, WaterfallRule{TriggerDay: 45}, s.Rules[1])
}
