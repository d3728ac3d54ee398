package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/manulsahu/MediSight/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).Where("id = ? AND "+notDeleted, id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	page, size := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where(notDeleted)
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		tx = tx.Where("COALESCE(scheduled_at, preferred_at, created_at) >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("COALESCE(scheduled_at, preferred_at, created_at) < ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	items := make([]*appointment.Appointment, 0)
	err := tx.Order("COALESCE(scheduled_at, preferred_at, created_at) DESC").
		Scopes(paginate(page, size)).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         page,
		PageSize:     size,
		TotalPages:   totalPages(total, size),
	}, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ? AND "+notDeleted, a.ID).
		Updates(map[string]any{
			"status":              a.Status,
			"scheduled_at":        a.ScheduledAt,
			"duration_mins":       a.DurationMins,
			"decision_note":       a.DecisionNote,
			"decided_at":          a.DecidedAt,
			"cancelled_at":        a.CancelledAt,
			"cancellation_reason": a.CancellationReason,
			"cancelled_by":        a.CancelledBy,
			"completed_at":        a.CompletedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("updating appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

// HasConflict reports whether the doctor has an accepted appointment that
// overlaps [start, end).
func (r *AppointmentRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where(notDeleted).
		Where("doctor_id = ? AND status = ?", doctorID, appointment.StatusAccepted).
		Where("scheduled_at < ? AND scheduled_at + (duration_mins * interval '1 minute') > ?", end, start)
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}

	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking schedule conflicts: %w", err)
	}
	return n > 0, nil
}
