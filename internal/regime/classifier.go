package regime

import (
	"fmt"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

// Classifier maps wall-clock instants to trading-session regimes for the
// reference market. It is pure: no side effects, total over all inputs, and
// safe for concurrent use once constructed.
type Classifier struct {
	loc      *time.Location
	windows  []window
	holidays map[string]struct{}
}

// window is a session bucket starting at a minute-of-day in market local time.
// Buckets are half-open [Start, next.Start): a boundary instant belongs to the
// later regime.
type window struct {
	startMin int
	regime   models.Regime
}

// NewClassifier builds a classifier from the market calendar configuration.
func NewClassifier(cfg config.MarketConfig) (*Classifier, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}

	type entry struct {
		hhmm   string
		regime models.Regime
	}
	entries := []entry{
		{cfg.Sessions.PreMarketStart, models.RegimePreMarket},
		{cfg.Sessions.SoftOpenStart, models.RegimeSoftOpen},
		{cfg.Sessions.CoreStart, models.RegimeCoreSession},
		{cfg.Sessions.AfterHoursStart, models.RegimeAfterHours},
		{cfg.Sessions.OvernightStart, models.RegimeOvernight},
	}

	// Midnight carries the overnight window from the previous evening.
	windows := []window{{startMin: 0, regime: models.RegimeOvernight}}
	prev := 0
	for _, e := range entries {
		m, err := parseMinuteOfDay(e.hhmm)
		if err != nil {
			return nil, fmt.Errorf("session start %q: %w", e.hhmm, err)
		}
		if m <= prev {
			return nil, fmt.Errorf("session windows out of order at %q", e.hhmm)
		}
		windows = append(windows, window{startMin: m, regime: e.regime})
		prev = m
	}

	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, d := range cfg.Holidays {
		if _, err := time.ParseInLocation("2006-01-02", d, loc); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", d, err)
		}
		holidays[d] = struct{}{}
	}

	return &Classifier{loc: loc, windows: windows, holidays: holidays}, nil
}

// Classify returns the regime holding at t and the start of the next session
// window. The next transition is always strictly after t.
func (c *Classifier) Classify(t time.Time) models.RegimeSnapshot {
	local := t.In(c.loc)
	day := local.Format("2006-01-02")
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	nextMidnight := midnight.AddDate(0, 0, 1)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return models.RegimeSnapshot{Regime: models.RegimeWeekend, At: t, NextTransition: nextMidnight}
	}
	if _, ok := c.holidays[day]; ok {
		return models.RegimeSnapshot{Regime: models.RegimeHoliday, At: t, NextTransition: nextMidnight}
	}

	minute := local.Hour()*60 + local.Minute()
	idx := 0
	for i := range c.windows {
		if minute >= c.windows[i].startMin {
			idx = i
		}
	}

	var next time.Time
	if idx == len(c.windows)-1 {
		// Evening overnight: the window runs to the next day's first boundary,
		// unless the day itself changes character at midnight.
		next = c.nextDayBoundary(nextMidnight)
	} else {
		next = midnight.Add(time.Duration(c.windows[idx+1].startMin) * time.Minute)
	}

	return models.RegimeSnapshot{Regime: c.windows[idx].regime, At: t, NextTransition: next}
}

// nextDayBoundary returns the first transition at or after the given local
// midnight: midnight itself when that date is a weekend day or holiday, the
// pre-market start otherwise.
func (c *Classifier) nextDayBoundary(midnight time.Time) time.Time {
	wd := midnight.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return midnight
	}
	if _, ok := c.holidays[midnight.Format("2006-01-02")]; ok {
		return midnight
	}
	return midnight.Add(time.Duration(c.windows[1].startMin) * time.Minute)
}

// Location exposes the market timezone for callers that render local times.
func (c *Classifier) Location() *time.Location { return c.loc }

func parseMinuteOfDay(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse %q: %w", hhmm, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("minute of day out of range: %q", hhmm)
	}
	return h*60 + m, nil
}
