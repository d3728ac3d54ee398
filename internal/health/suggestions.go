package health

// Condition keys the suggestion table.
type Condition string

const (
	HighBP    Condition = "highBP"
	HighSugar Condition = "highSugar"
	HighPulse Condition = "highPulse"
)

// MinOccurrences is how many elevated reports a metric needs before its
// suggestion is returned.
const MinOccurrences = 3

// SuggestionEntry is the diet and exercise advice for one condition.
type SuggestionEntry struct {
	Label    string `json:"label"`
	Diet     string `json:"diet"`
	Exercise string `json:"exercise"`
}

type tableRow struct {
	condition Condition
	entry     SuggestionEntry
}

// suggestionTable is never mutated. Row order is the output order.
var suggestionTable = [...]tableRow{
	{
		condition: HighBP,
		entry: SuggestionEntry{
			Label:    "High Blood Pressure",
			Diet:     "Reduce salt and processed food, increase potassium intake.",
			Exercise: "Brisk walking, yoga, and breathing exercises.",
		},
	},
	{
		condition: HighSugar,
		entry: SuggestionEntry{
			Label:    "High Sugar Level",
			Diet:     "Low-carb diet, avoid sugary drinks, whole grains recommended.",
			Exercise: "Post-meal walking, cardio 5 times a week.",
		},
	},
	{
		condition: HighPulse,
		entry: SuggestionEntry{
			Label:    "High Pulse Rate",
			Diet:     "Stay hydrated, avoid caffeine, eat magnesium-rich foods.",
			Exercise: "Stretching, light aerobic activity, and meditation.",
		},
	},
}

// Conditions returns every condition in table order.
func Conditions() []Condition {
	out := make([]Condition, 0, len(suggestionTable))
	for _, row := range suggestionTable {
		out = append(out, row.condition)
	}
	return out
}

// Lookup returns a copy of the table entry for c.
func Lookup(c Condition) (SuggestionEntry, bool) {
	for _, row := range suggestionTable {
		if row.condition == c {
			return row.entry, true
		}
	}
	return SuggestionEntry{}, false
}

// TriggeredConditions lists the conditions whose count reached
// MinOccurrences, in table order.
func TriggeredConditions(c Counts) []Condition {
	out := make([]Condition, 0, len(suggestionTable))
	for _, row := range suggestionTable {
		if c.of(row.condition) >= MinOccurrences {
			out = append(out, row.condition)
		}
	}
	return out
}

// SelectSuggestions maps counts to advice. The result is ordered BP, sugar,
// pulse regardless of how large each count is, and is empty (not nil) when
// nothing reached the minimum.
func SelectSuggestions(c Counts) []SuggestionEntry {
	out := make([]SuggestionEntry, 0, len(suggestionTable))
	for _, cond := range TriggeredConditions(c) {
		entry, ok := Lookup(cond)
		if !ok {
			panic("health: suggestion table has no entry for " + string(cond))
		}
		out = append(out, entry)
	}
	return out
}
