package health

// Clinical thresholds. A reading counts as elevated only when it strictly
// exceeds the bound; 130/80 is still the upper edge of normal.
const (
	SystolicThreshold  = 130.0
	DiastolicThreshold = 80.0
	SugarThreshold     = 140.0
	PulseThreshold     = 100.0
)

// VitalReading is one set of vital signs extracted from a single report.
// A nil field means the value was not present in the source document.
type VitalReading struct {
	SystolicBP  *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP *float64 `json:"diastolic_bp,omitempty"`
	SugarLevel  *float64 `json:"sugar_level,omitempty"`
	PulseRate   *float64 `json:"pulse_rate,omitempty"`
}

// IsEmpty reports whether no value is present.
func (v *VitalReading) IsEmpty() bool {
	return v == nil ||
		(v.SystolicBP == nil && v.DiastolicBP == nil && v.SugarLevel == nil && v.PulseRate == nil)
}

// ReportRecord wraps an optional reading with caller metadata that the
// analysis carries but never inspects.
type ReportRecord struct {
	Reading *VitalReading
	Meta    any
}

// Triggers evaluates the three threshold predicates for a single reading.
// Absent values never trigger.
func Triggers(v *VitalReading) (bp, sugar, pulse bool) {
	if v.IsEmpty() {
		return false, false, false
	}
	bp = exceeds(v.SystolicBP, SystolicThreshold) || exceeds(v.DiastolicBP, DiastolicThreshold)
	sugar = exceeds(v.SugarLevel, SugarThreshold)
	pulse = exceeds(v.PulseRate, PulseThreshold)
	return bp, sugar, pulse
}

func exceeds(v *float64, limit float64) bool {
	return v != nil && *v > limit
}

// Float returns a pointer to f. Handy for building readings in literals.
func Float(f float64) *float64 {
	return &f
}
