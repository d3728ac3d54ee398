package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/patient"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		log:      log,
	}
}

// CreatePatient registers a patient who has no portal account yet.
func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller domain.Caller) (*patient.Patient, error) {
	if !caller.Role.IsClinician() {
		return nil, ErrForbidden
	}
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	gender := cmd.Gender
	if gender == "" {
		gender = patient.GenderUnknown
	}

	p := &patient.Patient{
		UserID:      cmd.UserID,
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		DateOfBirth: cmd.DateOfBirth,
		Gender:      gender,
		BloodType:   cmd.BloodType,
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: strings.TrimSpace(cmd.Address),
		},
		EmergencyContact:  cmd.EmergencyContact,
		Allergies:         nonNil(cmd.Allergies),
		ChronicConditions: nonNil(cmd.ChronicConditions),
		AssignedDoctorID:  cmd.AssignedDoctorID,
		ClinicalNotes:     cmd.ClinicalNotes,
		Status:            patient.StatusActive,
		CreatedBy:         caller.UserID,
	}
	if p.AssignedDoctorID == nil && caller.DoctorID != nil {
		p.AssignedDoctorID = caller.DoctorID
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "patient", p.ID.String()))

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("created_by", caller.UserID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, caller domain.Caller) (*patient.Patient, error) {
	// RBAC: patients can only read their own record
	if !caller.CanReadPatient(id) {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, "patient", id.String()))

	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller domain.Caller) (*patient.Patient, error) {
	switch {
	case caller.Role.IsClinician():
	case caller.OwnsPatient(id):
		if cmd.HasClinicalFields() {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if err := validateUpdateCommand(cmd); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "patient", id.String()))
	return p, nil
}

func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID, caller domain.Caller) error {
	if caller.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := p.Deactivate(); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionDelete, "patient", id.String()))
	return nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, caller domain.Caller) (*patient.PagedPatients, error) {
	if !caller.Role.IsClinician() {
		return nil, ErrForbidden
	}
	normalizePaging(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if cmd.DateOfBirth != nil && cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, patient.ErrInvalidDateOfBirth.Error())
	}
	if cmd.Gender != "" && !cmd.Gender.IsValid() {
		errs = append(errs, patient.ErrInvalidGender.Error())
	}
	if !cmd.BloodType.IsValid() {
		errs = append(errs, patient.ErrInvalidBloodType.Error())
	}
	if e := strings.TrimSpace(cmd.Email); e != "" {
		if _, err := mail.ParseAddress(e); err != nil {
			errs = append(errs, "email is invalid")
		}
	}

	return validationErrors(errs)
}

func validateUpdateCommand(cmd *patient.UpdatePatientCommand) error {
	var errs []string

	if cmd.FirstName != nil && strings.TrimSpace(*cmd.FirstName) == "" {
		errs = append(errs, "first_name cannot be empty")
	}
	if cmd.DateOfBirth != nil && cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, patient.ErrInvalidDateOfBirth.Error())
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		errs = append(errs, patient.ErrInvalidGender.Error())
	}
	if cmd.BloodType != nil && !cmd.BloodType.IsValid() {
		errs = append(errs, patient.ErrInvalidBloodType.Error())
	}
	if cmd.Email != nil && strings.TrimSpace(*cmd.Email) != "" {
		if _, err := mail.ParseAddress(*cmd.Email); err != nil {
			errs = append(errs, "email is invalid")
		}
	}

	return validationErrors(errs)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
