package models

import "time"

const DateLayout = "2006-01-02"

// BitcoinGenesis is the date of the genesis block
var BitcoinGenesis = time.Date(2009, time.January, 3, 0, 0, 0, 0, time.UTC)

// DayKey formats t as a UTC calendar day
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DaysSinceGenesis returns whole days between the genesis block and t
func DaysSinceGenesis(t time.Time) int {
	return int(t.UTC().Sub(BitcoinGenesis).Hours() / 24)
}

// HistoryWindow returns the [from, to] range needed to compute a lookback
// of `days` daily values that each need `warmup` days of history before them.
func HistoryWindow(now time.Time, days, warmup int) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	return now.AddDate(0, 0, -(days + warmup)), now
}
