package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/doctor"
)

type DoctorService struct {
	repo     doctor.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDoctorService(repo doctor.Repository, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, auditSvc: auditSvc, log: log}
}

// GetDoctor is open to every authenticated role; patients browse doctors
// before requesting an appointment.
func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorService) ListDoctors(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	normalizePaging(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

func (s *DoctorService) UpdateDoctor(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, caller domain.Caller) (*doctor.Doctor, error) {
	self := caller.DoctorID != nil && *caller.DoctorID == id
	if !self && caller.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if cmd.FirstName != nil && strings.TrimSpace(*cmd.FirstName) == "" {
		return nil, &ValidationError{Fields: []string{"first_name cannot be empty"}}
	}

	d, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "doctor", id.String()))
	s.log.Info("doctor profile updated", zap.String("doctor_id", id.String()))
	return d, nil
}
