package nba

// teamNames maps scoreboard spellings to the statistics table's team names.
// The store matches exactly, so every feed variant has to be folded here
// before a name crosses into a lookup.
var teamNames = map[string]string{
	"LA Clippers":   "Los Angeles Clippers",
	"LA Lakers":     "Los Angeles Lakers",
	"Golden State":  "Golden State Warriors",
	"San Antonio":   "San Antonio Spurs",
	"New York":      "New York Knicks",
	"Oklahoma City": "Oklahoma City Thunder",
	"New Orleans":   "New Orleans Pelicans",
}

// NormalizeTeam folds a feed spelling to the canonical team name.
// Unknown names pass through unchanged.
func NormalizeTeam(name string) string {
	if canonical, ok := teamNames[name]; ok {
		return canonical
	}
	return name
}
