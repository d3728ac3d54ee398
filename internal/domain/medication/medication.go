package medication

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "15:04"

type Frequency string

const (
	FrequencyOnceDaily       Frequency = "once_daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyWeekly          Frequency = "weekly"
	FrequencyAsNeeded        Frequency = "as_needed"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOnceDaily, FrequencyTwiceDaily, FrequencyThreeTimesDaily, FrequencyWeekly, FrequencyAsNeeded:
		return true
	}
	return false
}

// DefaultTimes is used when a doctor does not pick dose times explicitly.
func (f Frequency) DefaultTimes() []string {
	switch f {
	case FrequencyOnceDaily, FrequencyWeekly:
		return []string{"08:00"}
	case FrequencyTwiceDaily:
		return []string{"08:00", "20:00"}
	case FrequencyThreeTimesDaily:
		return []string{"08:00", "14:00", "20:00"}
	}
	return nil
}

// ValidTime reports whether s is a 24h HH:MM clock time.
func ValidTime(s string) bool {
	_, err := time.Parse(timeLayout, s)
	return err == nil && len(s) == len(timeLayout)
}

type Medication struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID    uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	PrescribedBy uuid.UUID `gorm:"column:prescribed_by;type:uuid;not null" json:"prescribed_by"`

	Name      string    `gorm:"column:name;type:varchar(255);not null;index" json:"name"`
	Dosage    string    `gorm:"column:dosage;type:varchar(50);not null" json:"dosage"` // e.g. "500mg"
	Frequency Frequency `gorm:"column:frequency;type:varchar(30);not null" json:"frequency"`
	Times     []string  `gorm:"column:times;serializer:json;type:jsonb" json:"times"` // "HH:MM", sorted

	StartDate *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`

	Instructions string `gorm:"column:instructions;type:text" json:"instructions"`
	Active       bool   `gorm:"column:active;default:true;index" json:"active"`
}

func (Medication) TableName() string {
	return "clinical.medications"
}

// ActiveOn reports whether doses fall on the given calendar day.
func (m *Medication) ActiveOn(day time.Time) bool {
	if !m.Active || m.DeletedAt != nil || m.Frequency == FrequencyAsNeeded {
		return false
	}
	d := truncateDay(day)
	if m.StartDate != nil && d.Before(truncateDay(*m.StartDate)) {
		return false
	}
	if m.EndDate != nil && d.After(truncateDay(*m.EndDate)) {
		return false
	}
	if m.Frequency == FrequencyWeekly {
		anchor := m.CreatedAt
		if m.StartDate != nil {
			anchor = *m.StartDate
		}
		return truncateDay(anchor).Weekday() == d.Weekday()
	}
	return true
}

// DoseLog records that a patient took one scheduled dose.
type DoseLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MedicationID uuid.UUID `gorm:"column:medication_id;type:uuid;not null;uniqueIndex:idx_dose_unique" json:"medication_id"`
	PatientID    uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	Day          time.Time `gorm:"column:day;type:date;not null;uniqueIndex:idx_dose_unique" json:"day"`
	Time         string    `gorm:"column:dose_time;type:varchar(5);not null;uniqueIndex:idx_dose_unique" json:"time"`
	TakenAt      time.Time `gorm:"column:taken_at;not null" json:"taken_at"`
}

func (DoseLog) TableName() string {
	return "clinical.medication_doses"
}

type ScheduleEntry struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"medication_name"`
	Dosage       string    `json:"dosage"`
	Time         string    `json:"time"`
	Instructions string    `json:"instructions,omitempty"`
	Taken        bool      `json:"taken"`
}

// BuildSchedule lays out every dose due on day, ordered by time and then name.
func BuildSchedule(meds []*Medication, day time.Time, logs []*DoseLog) []ScheduleEntry {
	taken := make(map[string]bool, len(logs))
	for _, l := range logs {
		taken[l.MedicationID.String()+"@"+l.Time] = true
	}

	out := make([]ScheduleEntry, 0)
	for _, m := range meds {
		if !m.ActiveOn(day) {
			continue
		}
		times := m.Times
		if len(times) == 0 {
			times = m.Frequency.DefaultTimes()
		}
		for _, t := range times {
			out = append(out, ScheduleEntry{
				MedicationID: m.ID,
				Name:         m.Name,
				Dosage:       m.Dosage,
				Time:         t,
				Instructions: m.Instructions,
				Taken:        taken[m.ID.String()+"@"+t],
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// truncateDay reads the calendar date in UTC, whatever location t carries.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day normalises t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return truncateDay(t)
}

type CreateMedicationCommand struct {
	PatientID    uuid.UUID
	Name         string
	Dosage       string
	Frequency    Frequency
	Times        []string
	StartDate    *time.Time
	EndDate      *time.Time
	Instructions string
}

type UpdateMedicationCommand struct {
	Name         *string
	Dosage       *string
	Frequency    *Frequency
	Times        *[]string
	StartDate    *time.Time
	EndDate      *time.Time
	Instructions *string
	Active       *bool
}

type MarkDoseCommand struct {
	Day  time.Time
	Time string
}
