// Package health holds the report trend analysis: it counts how many
// reports exceed each vital-sign threshold and maps the counts to static
// diet and exercise suggestions.
//
// Everything here is pure. Functions never fail, never retain their input
// and may be called concurrently.
package health

// Counts is the number of reports that exceeded each threshold.
type Counts struct {
	BP    int `json:"bp"`
	Sugar int `json:"sugar"`
	Pulse int `json:"pulse"`
}

func (c Counts) of(cond Condition) int {
	switch cond {
	case HighBP:
		return c.BP
	case HighSugar:
		return c.Sugar
	case HighPulse:
		return c.Pulse
	}
	return 0
}

// Count tallies the elevated readings across records. Records without a
// reading, or with an empty one, contribute nothing. One record may raise
// several counters.
func Count(records []ReportRecord) Counts {
	var c Counts
	for _, r := range records {
		if r.Reading.IsEmpty() {
			continue
		}
		bp, sugar, pulse := Triggers(r.Reading)
		if bp {
			c.BP++
		}
		if sugar {
			c.Sugar++
		}
		if pulse {
			c.Pulse++
		}
	}
	return c
}

// Analyze runs Count followed by SelectSuggestions.
func Analyze(records []ReportRecord) []SuggestionEntry {
	return SelectSuggestions(Count(records))
}
