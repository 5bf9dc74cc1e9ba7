package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

func marketConfig(holidays ...string) config.MarketConfig {
	cfg := config.MarketConfig{Timezone: "America/New_York", Holidays: holidays}
	cfg.Sessions.PreMarketStart = "04:00"
	cfg.Sessions.SoftOpenStart = "09:30"
	cfg.Sessions.CoreStart = "09:45"
	cfg.Sessions.AfterHoursStart = "16:00"
	cfg.Sessions.OvernightStart = "20:00"
	return cfg
}

func mustClassifier(t *testing.T, cfg config.MarketConfig) *Classifier {
	t.Helper()
	c, err := NewClassifier(cfg)
	require.NoError(t, err)
	return c
}

// at builds an instant in market local time.
func at(t *testing.T, c *Classifier, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, c.Location())
	require.NoError(t, err)
	return ts
}

func TestClassifyWeekday(t *testing.T) {
	c := mustClassifier(t, marketConfig())

	// Monday 2026-01-05. Boundaries belong to the later window.
	cases := []struct {
		local string
		want  models.Regime
	}{
		{"2026-01-05 00:00", models.RegimeOvernight},
		{"2026-01-05 03:59", models.RegimeOvernight},
		{"2026-01-05 04:00", models.RegimePreMarket},
		{"2026-01-05 09:29", models.RegimePreMarket},
		{"2026-01-05 09:30", models.RegimeSoftOpen},
		{"2026-01-05 09:44", models.RegimeSoftOpen},
		{"2026-01-05 09:45", models.RegimeCoreSession},
		{"2026-01-05 15:59", models.RegimeCoreSession},
		{"2026-01-05 16:00", models.RegimeAfterHours},
		{"2026-01-05 19:59", models.RegimeAfterHours},
		{"2026-01-05 20:00", models.RegimeOvernight},
		{"2026-01-05 23:59", models.RegimeOvernight},
	}
	for _, tc := range cases {
		t.Run(tc.local, func(t *testing.T) {
			snap := c.Classify(at(t, c, tc.local))
			assert.Equal(t, tc.want, snap.Regime)
			assert.True(t, snap.NextTransition.After(at(t, c, tc.local)),
				"next transition must be strictly after the query instant")
		})
	}
}

func TestClassifyWeekendAndHoliday(t *testing.T) {
	c := mustClassifier(t, marketConfig("2026-01-19")) // MLK Monday

	assert.Equal(t, models.RegimeWeekend, c.Classify(at(t, c, "2026-01-10 12:00")).Regime)
	assert.Equal(t, models.RegimeWeekend, c.Classify(at(t, c, "2026-01-11 03:00")).Regime)
	assert.Equal(t, models.RegimeHoliday, c.Classify(at(t, c, "2026-01-19 10:30")).Regime)

	// Weekend and holiday outrank the session table for the whole day.
	assert.Equal(t, models.RegimeWeekend, c.Classify(at(t, c, "2026-01-10 10:00")).Regime)
	assert.Equal(t, models.RegimeHoliday, c.Classify(at(t, c, "2026-01-19 00:00")).Regime)
}

func TestClassifyNextTransition(t *testing.T) {
	c := mustClassifier(t, marketConfig("2026-01-19"))

	// Mid core session: next boundary is after-hours at 16:00.
	snap := c.Classify(at(t, c, "2026-01-05 12:00"))
	assert.Equal(t, at(t, c, "2026-01-05 16:00"), snap.NextTransition)

	// Monday evening overnight runs to Tuesday's pre-market start.
	snap = c.Classify(at(t, c, "2026-01-05 21:00"))
	assert.Equal(t, at(t, c, "2026-01-06 04:00"), snap.NextTransition)

	// Friday evening: the next transition is Saturday midnight (weekend).
	snap = c.Classify(at(t, c, "2026-01-09 21:00"))
	assert.Equal(t, at(t, c, "2026-01-10 00:00"), snap.NextTransition)

	// Sunday evening overnight ends at Monday midnight when Monday is a holiday.
	snap = c.Classify(at(t, c, "2026-01-18 23:00"))
	assert.Equal(t, at(t, c, "2026-01-19 00:00"), snap.NextTransition)
}

func TestClassifyTotalOverFullWeek(t *testing.T) {
	c := mustClassifier(t, marketConfig())

	// Every minute of a full week classifies to a valid regime.
	start := at(t, c, "2026-01-05 00:00")
	for ts := start; ts.Before(start.AddDate(0, 0, 7)); ts = ts.Add(time.Minute) {
		snap := c.Classify(ts)
		require.True(t, snap.Regime.Valid(), "no regime at %s", ts)
	}
}

func TestClassifyUTCInput(t *testing.T) {
	c := mustClassifier(t, marketConfig())

	// 2026-01-05 15:00 UTC is 10:00 in New York (EST).
	snap := c.Classify(time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, models.RegimeCoreSession, snap.Regime)
}

func TestNewClassifierRejectsBadConfig(t *testing.T) {
	bad := marketConfig()
	bad.Timezone = "Not/AZone"
	_, err := NewClassifier(bad)
	assert.Error(t, err)

	bad = marketConfig()
	bad.Sessions.CoreStart = "09:15" // before soft open
	_, err = NewClassifier(bad)
	assert.Error(t, err)

	bad = marketConfig("19-01-2026")
	_, err = NewClassifier(bad)
	assert.Error(t, err)
}
