package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/appointment"
	"github.com/manulsahu/MediSight/internal/domain/doctor"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/notify"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	doctorRepo  doctor.Repository
	auditSvc    *AuditService
	notifier    Notifier
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	doctorRepo doctor.Repository,
	auditSvc *AuditService,
	notifier Notifier,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		auditSvc:    auditSvc,
		notifier:    notifierOrNop(notifier),
		metrics:     m,
		log:         log,
	}
}

// RequestAppointment files a pending request from the calling patient to a doctor.
func (s *AppointmentService) RequestAppointment(ctx context.Context, cmd *appointment.RequestAppointmentCommand, caller domain.Caller) (*appointment.Appointment, error) {
	if caller.Role != domain.RolePatient || caller.PatientID == nil {
		return nil, ErrForbidden
	}
	cmd.PatientID = *caller.PatientID

	if cmd.DoctorID == uuid.Nil {
		return nil, &ValidationError{Fields: []string{"doctor_id is required"}}
	}
	if cmd.PreferredAt != nil && cmd.PreferredAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}

	d, err := s.doctorRepo.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, err
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	a := &appointment.Appointment{
		PatientID:    p.ID,
		DoctorID:     d.ID,
		PatientName:  p.FullName(),
		DoctorName:   d.FullName(),
		Status:       appointment.StatusPending,
		Reason:       strings.TrimSpace(cmd.Reason),
		PreferredAt:  cmd.PreferredAt,
		DurationMins: appointment.DefaultDurationMins,
		CreatedBy:    caller.UserID,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "appointment", a.ID.String()))
	s.observe(a.Status)

	s.notifier.Notify(ctx, d.UserID, notify.New(notify.TypeAppointment,
		"New appointment request",
		fmt.Sprintf("%s requested an appointment.", a.PatientName),
	))

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, caller domain.Caller) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeAppointment(caller, a) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, "appointment", id.String()))
	return a, nil
}

// AcceptAppointment books the slot. Only the addressed doctor may accept,
// and the slot must not overlap another accepted appointment.
func (s *AppointmentService) AcceptAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.AcceptAppointmentCommand, caller domain.Caller) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAddressedDoctor(caller, a) {
		return nil, ErrForbidden
	}

	if err := a.Accept(cmd.ScheduledAt, cmd.DurationMins, strings.TrimSpace(cmd.Note)); err != nil {
		return nil, err
	}

	conflict, err := s.repo.HasConflict(ctx, a.DoctorID, *a.ScheduledAt, a.EndsAt(), &a.ID)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if conflict {
		return nil, appointment.ErrAppointmentConflict
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.afterTransition(ctx, a, caller, "Appointment accepted",
		fmt.Sprintf("%s accepted your appointment for %s.", a.DoctorName, a.ScheduledAt.UTC().Format(time.RFC1123)))
	return a, nil
}

func (s *AppointmentService) RejectAppointment(ctx context.Context, id uuid.UUID, note string, caller domain.Caller) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAddressedDoctor(caller, a) {
		return nil, ErrForbidden
	}

	if err := a.Reject(strings.TrimSpace(note)); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.afterTransition(ctx, a, caller, "Appointment declined",
		fmt.Sprintf("%s declined your appointment request.", a.DoctorName))
	return a, nil
}

// CancelAppointment may be called by either participant.
func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID, reason string, caller domain.Caller) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeAppointment(caller, a) {
		return nil, ErrForbidden
	}

	if err := a.Cancel(strings.TrimSpace(reason), caller.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.afterTransition(ctx, a, caller, "Appointment cancelled", "An appointment was cancelled.")
	return a, nil
}

func (s *AppointmentService) CompleteAppointment(ctx context.Context, id uuid.UUID, caller domain.Caller) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAddressedDoctor(caller, a) {
		return nil, ErrForbidden
	}

	if err := a.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.afterTransition(ctx, a, caller, "Appointment completed", "Your appointment was marked as completed.")
	return a, nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, caller domain.Caller) (*appointment.PagedAppointments, error) {
	switch caller.Role {
	case domain.RolePatient:
		if caller.PatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = caller.PatientID
	case domain.RoleDoctor:
		if caller.DoctorID == nil {
			return nil, ErrForbidden
		}
		q.DoctorID = caller.DoctorID
	}
	if q.Status != nil && !q.Status.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}
	normalizePaging(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

// afterTransition audits the change and notifies whichever participant did
// not make it.
func (s *AppointmentService) afterTransition(ctx context.Context, a *appointment.Appointment, caller domain.Caller, title, body string) {
	entry := auditEntry(caller, domain.ActionUpdate, "appointment", a.ID.String())
	entry.Changes = fmt.Sprintf(`{"status":%q}`, a.Status)
	s.auditSvc.LogAsync(ctx, entry)
	s.observe(a.Status)

	if caller.OwnsPatient(a.PatientID) {
		if d, err := s.doctorRepo.GetByID(ctx, a.DoctorID); err == nil {
			s.notifier.Notify(ctx, d.UserID, notify.New(notify.TypeAppointment, title,
				fmt.Sprintf("%s: %s", a.PatientName, body)))
		}
		return
	}

	p, err := s.patientRepo.GetByID(ctx, a.PatientID)
	if err != nil || p.UserID == nil {
		return
	}
	s.notifier.Notify(ctx, *p.UserID, notify.New(notify.TypeAppointment, title, body))
}

func (s *AppointmentService) observe(status appointment.AppointmentStatus) {
	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(status)).Inc()
	}
}

func isAddressedDoctor(c domain.Caller, a *appointment.Appointment) bool {
	return c.Role == domain.RoleDoctor && c.DoctorID != nil && *c.DoctorID == a.DoctorID
}

func canSeeAppointment(c domain.Caller, a *appointment.Appointment) bool {
	switch c.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDoctor:
		return isAddressedDoctor(c, a)
	default:
		return c.OwnsPatient(a.PatientID)
	}
}
