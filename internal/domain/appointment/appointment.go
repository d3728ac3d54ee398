package appointment

import (
	"time"

	"github.com/google/uuid"
)

const DefaultDurationMins = 30

// State transitions possibilities:
//
//	pending → accepted → completed
//	pending → rejected
//	pending → cancelled
//	accepted → cancelled
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusAccepted  AppointmentStatus = "accepted"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusCompleted, StatusCancelled},
	StatusRejected:  {},
	StatusCancelled: {},
	StatusCompleted: {},
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`

	// Denormalised for dashboards so listing does not need joins.
	PatientName string `gorm:"column:patient_name;type:varchar(200)" json:"patient_name"`
	DoctorName  string `gorm:"column:doctor_name;type:varchar(200)" json:"doctor_name"`

	Status AppointmentStatus `gorm:"column:status;type:varchar(30);not null;default:'pending';index" json:"status"`
	Reason string            `gorm:"column:reason;type:text" json:"reason"`

	PreferredAt  *time.Time `gorm:"column:preferred_at" json:"preferred_at,omitempty"`
	ScheduledAt  *time.Time `gorm:"column:scheduled_at;index" json:"scheduled_at,omitempty"`
	DurationMins int        `gorm:"column:duration_mins;not null;default:30" json:"duration_mins"`

	DecisionNote string     `gorm:"column:decision_note;type:text" json:"decision_note,omitempty"`
	DecidedAt    *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by,omitempty"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

// EndsAt is zero until the appointment has been scheduled.
func (a *Appointment) EndsAt() time.Time {
	if a.ScheduledAt == nil {
		return time.Time{}
	}
	return a.ScheduledAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

func (a *Appointment) CanTransitionTo(newStatus AppointmentStatus) bool {
	for _, s := range transitions[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Accept confirms a pending request for the given slot.
func (a *Appointment) Accept(at time.Time, durationMins int, note string) error {
	if !a.CanTransitionTo(StatusAccepted) {
		return ErrInvalidStatusTransition
	}
	if !at.After(time.Now()) {
		return ErrScheduledInPast
	}
	if durationMins == 0 {
		durationMins = DefaultDurationMins
	}
	if durationMins < 5 || durationMins > 480 {
		return ErrInvalidDuration
	}
	now := time.Now()
	a.Status = StatusAccepted
	a.ScheduledAt = &at
	a.DurationMins = durationMins
	a.DecisionNote = note
	a.DecidedAt = &now
	return nil
}

func (a *Appointment) Reject(note string) error {
	if !a.CanTransitionTo(StatusRejected) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusRejected
	a.DecisionNote = note
	a.DecidedAt = &now
	return nil
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

type RequestAppointmentCommand struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Reason      string
	PreferredAt *time.Time
}

type AcceptAppointmentCommand struct {
	ScheduledAt  time.Time
	DurationMins int
	Note         string
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment `json:"appointments"`
	TotalCount   int64          `json:"total_count"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
}
