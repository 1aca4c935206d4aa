package stats

import (
	"fmt"
	"time"
)

// CurrentSeason returns the season label containing t, e.g. "2025-26".
// NBA seasons tip off in October; January through September belong to the
// season that started the previous calendar year.
func CurrentSeason(t time.Time) string {
	y := t.Year()
	if t.Month() >= time.October {
		return fmt.Sprintf("%d-%02d", y, (y+1)%100)
	}
	return fmt.Sprintf("%d-%02d", y-1, y%100)
}

// SeasonActive reports whether games are typically being played at t
// (October through the June finals; July–September is the offseason).
func SeasonActive(t time.Time) bool {
	m := t.Month()
	return m >= time.October || m <= time.June
}
