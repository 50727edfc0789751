package triggers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint64) *uint64   { return &v }
func fptr(v float64) *float64 { return &v }

func TestEvaluate(t *testing.T) {
	t.Run("no metrics means nothing triggers", func(t *testing.T) {
		res := Evaluate(Metrics{}, nil)
		assert.False(t, res.Triggered)
		assert.Empty(t, res.Triggers)
	})

	t.Run("absent metrics are skipped even at zero thresholds", func(t *testing.T) {
		o := &Overrides{HourlyRequestLimit: uptr(0)}
		res := Evaluate(Metrics{SessionCostUSD: fptr(0.1)}, o)
		assert.False(t, res.Triggered)
	})

	t.Run("each check fires independently", func(t *testing.T) {
		cases := []struct {
			name    string
			metrics Metrics
			wantID  string
			action  string
		}{
			{"mcp failures", Metrics{ConsecutiveMCPFails: uptr(3)}, "mcp-failures", ActionForceOpenCode},
			{"cost budget", Metrics{SessionCostUSD: fptr(5.5)}, "cost-budget", ActionFallbackOpenCode},
			{"token burn", Metrics{TokensPerMinute: uptr(60_000)}, "token-burn", ActionSuggestDowngrade},
			{"latency", Metrics{AvgLatencyMS: fptr(31_000)}, "latency", ActionSwitchModel},
			{"hourly rate", Metrics{HourlyRequests: uptr(61)}, "hourly-rate", ActionSuggestOpenCode},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				res := Evaluate(tc.metrics, nil)
				require.True(t, res.Triggered)
				require.Len(t, res.Triggers, 1)
				assert.Equal(t, tc.wantID, res.Triggers[0].ID)
				assert.Equal(t, tc.action, res.Triggers[0].Action)
			})
		}
	})

	t.Run("below threshold does not fire", func(t *testing.T) {
		res := Evaluate(Metrics{
			HourlyRequests:      uptr(59),
			SessionCostUSD:      fptr(4.99),
			ConsecutiveMCPFails: uptr(2),
			AvgLatencyMS:        fptr(29_999),
			TokensPerMinute:     uptr(49_999),
		}, nil)
		assert.False(t, res.Triggered)
	})
}

func TestThresholdResolution(t *testing.T) {
	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv(EnvPrefix+"HOURLY_REQUEST_LIMIT", "10")
		t.Setenv(EnvPrefix+"COST_BUDGET_USD", "1.5")

		th := ResolveThresholds(nil)
		assert.Equal(t, uint64(10), th.HourlyRequestLimit)
		assert.Equal(t, 1.5, th.CostBudgetUSD)
		assert.Equal(t, uint64(3), th.MCPFailureLimit)
	})

	t.Run("config beats environment", func(t *testing.T) {
		t.Setenv(EnvPrefix+"HOURLY_REQUEST_LIMIT", "10")

		th := ResolveThresholds(&Overrides{HourlyRequestLimit: uptr(200)})
		assert.Equal(t, uint64(200), th.HourlyRequestLimit)
	})

	t.Run("malformed environment values are ignored", func(t *testing.T) {
		t.Setenv(EnvPrefix+"TOKEN_BURN_LIMIT", "lots")
		t.Setenv(EnvPrefix+"LATENCY_LIMIT_MS", "")

		th := ResolveThresholds(nil)
		assert.Equal(t, uint64(50_000), th.TokenBurnLimit)
		assert.Equal(t, float64(30_000), th.LatencyLimitMS)
	})
}

func TestRecommendedAction(t *testing.T) {
	t.Run("nil for no hits", func(t *testing.T) {
		assert.Nil(t, RecommendedAction(nil))
	})

	t.Run("single hit keeps its reason verbatim", func(t *testing.T) {
		res := Evaluate(Metrics{HourlyRequests: uptr(100)}, nil)
		rec := RecommendedAction(res.Triggers)
		require.NotNil(t, rec)
		assert.Equal(t, ActionSuggestOpenCode, rec.Action)
		assert.NotContains(t, rec.Reason, "more")
	})

	t.Run("strongest action wins regardless of hit order", func(t *testing.T) {
		res := Evaluate(Metrics{
			HourlyRequests:      uptr(100),
			AvgLatencyMS:        fptr(40_000),
			ConsecutiveMCPFails: uptr(5),
		}, nil)
		require.Len(t, res.Triggers, 3)

		rec := RecommendedAction(res.Triggers)
		require.NotNil(t, rec)
		assert.Equal(t, ActionForceOpenCode, rec.Action)
		assert.Equal(t, "critical", rec.Severity)
		assert.Contains(t, rec.Reason, "(+2 more)")
	})
}
