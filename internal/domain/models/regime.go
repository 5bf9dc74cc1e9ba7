package models

import "time"

// Regime is the named trading-session bucket derived from wall-clock time in the
// reference market's timezone. Exactly one regime holds at any instant.
type Regime string

const (
	RegimeCoreSession Regime = "CORE_SESSION"
	RegimeSoftOpen    Regime = "SOFT_OPEN"
	RegimePreMarket   Regime = "PRE_MARKET"
	RegimeAfterHours  Regime = "AFTER_HOURS"
	RegimeOvernight   Regime = "OVERNIGHT"
	RegimeWeekend     Regime = "WEEKEND"
	RegimeHoliday     Regime = "HOLIDAY"
)

// AllRegimes lists every regime in increasing session-risk order.
var AllRegimes = []Regime{
	RegimeCoreSession,
	RegimeSoftOpen,
	RegimePreMarket,
	RegimeAfterHours,
	RegimeOvernight,
	RegimeWeekend,
	RegimeHoliday,
}

// Valid reports whether r is one of the seven known regimes.
func (r Regime) Valid() bool {
	switch r {
	case RegimeCoreSession, RegimeSoftOpen, RegimePreMarket,
		RegimeAfterHours, RegimeOvernight, RegimeWeekend, RegimeHoliday:
		return true
	}
	return false
}

// MarketClosed reports whether the reference market is not actively trading.
func (r Regime) MarketClosed() bool {
	switch r {
	case RegimeOvernight, RegimeWeekend, RegimeHoliday:
		return true
	}
	return false
}

// RegimeSnapshot is the result of a classification: the regime holding at the
// queried instant and the start of the next session window.
type RegimeSnapshot struct {
	Regime         Regime    `json:"regime"`
	At             time.Time `json:"at"`
	NextTransition time.Time `json:"next_transition"`
}
