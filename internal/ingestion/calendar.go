package ingestion

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// LastNPeriods returns the last n complete competence months before
// `from`, most recent first, formatted "2006-01". CDA filings lag by
// about a month, so the month of `from` itself is excluded.
func LastNPeriods(n int, from time.Time) []string {
	out := make([]string, 0, n)
	y, m, _ := from.Date()
	cur := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	for len(out) < n {
		cur = cur.AddDate(0, -1, 0)
		out = append(out, cur.Format(periodLayout))
	}
	return out
}

// compactPeriod converts "2025-06" to the "202506" form used in CVM
// file names. Input is trusted (produced by LastNPeriods or validated
// at the API boundary).
func compactPeriod(period string) string {
	t, err := time.Parse(periodLayout, period)
	if err != nil {
		return period
	}
	return t.Format("200601")
}

// ValidPeriod reports whether s is a well-formed "2006-01" period.
func ValidPeriod(s string) bool {
	_, err := time.Parse(periodLayout, s)
	return err == nil
}

// PeriodOf formats a competence date as a period key.
func PeriodOf(t time.Time) string { return t.Format(periodLayout) }

// LastNBusinessDays returns the last n Brazilian business days (most
// recent first). It excludes Saturdays, Sundays, and BR
// national/movable holidays; trade-note exports exist only for these
// days.
func LastNBusinessDays(n int, from time.Time) []time.Time {
	out := make([]time.Time, 0, n)
	d := truncateToDate(from)

	for len(out) < n {
		if isBusinessDayBR(d) {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// isBusinessDayBR returns true if date is a business day in Brazil.
func isBusinessDayBR(d time.Time) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	// National fixed holidays
	fixed := map[string]struct{}{
		"01-01": {}, // New Year
		"04-21": {}, // Tiradentes
		"05-01": {}, // Labor Day
		"09-07": {}, // Independence Day
		"10-12": {}, // Our Lady Aparecida
		"11-02": {}, // All Souls' Day
		"11-15": {}, // Republic Proclamation
		"12-25": {}, // Christmas
	}
	if _, ok := fixed[d.Format("01-02")]; ok {
		return false
	}

	// Movable holidays, all anchored on Easter Sunday.
	easter := easterSunday(d.Year())
	movables := map[time.Time]struct{}{
		truncateToDate(easter.AddDate(0, 0, -48)): {}, // Carnival Monday
		truncateToDate(easter.AddDate(0, 0, -47)): {}, // Carnival Tuesday
		truncateToDate(easter.AddDate(0, 0, -2)):  {}, // Good Friday
		truncateToDate(easter.AddDate(0, 0, 60)):  {}, // Corpus Christi
	}
	if _, ok := movables[truncateToDate(d)]; ok {
		return false
	}

	return true
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
}

// tradeFileName is the expected export name for a business day:
// DD-MM-YYYY_NEGOCIOS.csv.
func tradeFileName(d time.Time) string {
	return fmt.Sprintf("%s_NEGOCIOS.csv", d.Format("02-01-2006"))
}
