package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/medication"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/notify"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

type MedicationService struct {
	repo        medication.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	notifier    Notifier
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewMedicationService(
	repo medication.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	notifier Notifier,
	m *metrics.Collector,
	log *zap.Logger,
) *MedicationService {
	return &MedicationService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		notifier:    notifierOrNop(notifier),
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

func (s *MedicationService) AddMedication(ctx context.Context, cmd *medication.CreateMedicationCommand, caller domain.Caller) (*medication.Medication, error) {
	if !caller.Role.IsClinician() {
		return nil, ErrForbidden
	}

	times := cmd.Times
	if len(times) == 0 {
		times = cmd.Frequency.DefaultTimes()
	}
	if err := validateMedication(cmd.Name, cmd.Dosage, cmd.Frequency, times, cmd.StartDate, cmd.EndDate); err != nil {
		return nil, err
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	m := &medication.Medication{
		PatientID:    p.ID,
		PrescribedBy: caller.UserID,
		Name:         strings.TrimSpace(cmd.Name),
		Dosage:       strings.TrimSpace(cmd.Dosage),
		Frequency:    cmd.Frequency,
		Times:        nonNil(sortedTimes(times)),
		StartDate:    cmd.StartDate,
		EndDate:      cmd.EndDate,
		Instructions: strings.TrimSpace(cmd.Instructions),
		Active:       true,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.log.Error("failed to create medication", zap.Error(err))
		return nil, fmt.Errorf("creating medication: %w", err)
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "medication", m.ID.String()))
	if s.metrics != nil {
		s.metrics.MedicationsPrescribed.Inc()
	}
	if p.UserID != nil {
		s.notifier.Notify(ctx, *p.UserID, notify.New(notify.TypeMedication,
			"New medication", fmt.Sprintf("%s %s was added to your plan.", m.Name, m.Dosage)))
	}

	return m, nil
}

func (s *MedicationService) UpdateMedication(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand, caller domain.Caller) (*medication.Medication, error) {
	if !caller.Role.IsClinician() {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate the merged result so partial updates cannot leave an
	// inconsistent plan behind.
	name, dosage, freq, times := current.Name, current.Dosage, current.Frequency, current.Times
	start, end := current.StartDate, current.EndDate
	if cmd.Name != nil {
		name = *cmd.Name
	}
	if cmd.Dosage != nil {
		dosage = *cmd.Dosage
	}
	if cmd.Frequency != nil {
		freq = *cmd.Frequency
	}
	if cmd.Times != nil {
		sorted := sortedTimes(*cmd.Times)
		cmd.Times = &sorted
		times = sorted
	}
	if cmd.StartDate != nil {
		start = cmd.StartDate
	}
	if cmd.EndDate != nil {
		end = cmd.EndDate
	}
	if err := validateMedication(name, dosage, freq, times, start, end); err != nil {
		return nil, err
	}

	m, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "medication", id.String()))
	return m, nil
}

func (s *MedicationService) RemoveMedication(ctx context.Context, id uuid.UUID, caller domain.Caller) error {
	if !caller.Role.IsClinician() {
		return ErrForbidden
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionDelete, "medication", id.String()))
	return nil
}

func (s *MedicationService) ListMedications(ctx context.Context, patientID uuid.UUID, activeOnly bool, caller domain.Caller) ([]*medication.Medication, error) {
	if !caller.CanReadPatient(patientID) {
		return nil, ErrForbidden
	}
	return s.repo.ListByPatient(ctx, patientID, activeOnly)
}

// DailySchedule lists every dose due on day with its taken flag.
func (s *MedicationService) DailySchedule(ctx context.Context, patientID uuid.UUID, day time.Time, caller domain.Caller) ([]medication.ScheduleEntry, error) {
	if !caller.CanReadPatient(patientID) {
		return nil, ErrForbidden
	}

	meds, err := s.repo.ListByPatient(ctx, patientID, true)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListDoses(ctx, patientID, medication.Day(day))
	if err != nil {
		return nil, err
	}

	return medication.BuildSchedule(meds, day, logs), nil
}

// MarkDoseTaken records a scheduled dose for the owning patient. Marking
// the same dose twice is a no-op.
func (s *MedicationService) MarkDoseTaken(ctx context.Context, medicationID uuid.UUID, cmd *medication.MarkDoseCommand, caller domain.Caller) error {
	m, err := s.repo.GetByID(ctx, medicationID)
	if err != nil {
		return err
	}
	if !caller.OwnsPatient(m.PatientID) {
		return ErrForbidden
	}
	if !medication.ValidTime(cmd.Time) {
		return medication.ErrInvalidDoseTime
	}

	day := medication.Day(cmd.Day)
	if day.After(medication.Day(s.now())) {
		return &ValidationError{Fields: []string{"cannot mark a future dose as taken"}}
	}
	if !m.ActiveOn(day) || !slices.Contains(scheduledTimes(m), cmd.Time) {
		return medication.ErrDoseNotScheduled
	}

	err = s.repo.RecordDose(ctx, &medication.DoseLog{
		MedicationID: m.ID,
		PatientID:    m.PatientID,
		Day:          day,
		Time:         cmd.Time,
		TakenAt:      s.now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.DosesTakenTotal.Inc()
	}
	return nil
}

func scheduledTimes(m *medication.Medication) []string {
	if len(m.Times) > 0 {
		return m.Times
	}
	return m.Frequency.DefaultTimes()
}

func sortedTimes(times []string) []string {
	out := slices.Clone(times)
	sort.Strings(out)
	return slices.Compact(out)
}

func validateMedication(name, dosage string, freq medication.Frequency, times []string, start, end *time.Time) error {
	var errs []string

	if strings.TrimSpace(name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(dosage) == "" {
		errs = append(errs, "dosage is required")
	}
	if !freq.IsValid() {
		errs = append(errs, medication.ErrInvalidFrequency.Error())
	}
	for _, t := range times {
		if !medication.ValidTime(t) {
			errs = append(errs, fmt.Sprintf("%s: %q", medication.ErrInvalidDoseTime.Error(), t))
		}
	}
	if start != nil && end != nil && end.Before(*start) {
		errs = append(errs, medication.ErrInvalidDateRange.Error())
	}

	return validationErrors(errs)
}
