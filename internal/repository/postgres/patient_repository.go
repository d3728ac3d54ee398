package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/manulsahu/MediSight/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Where("id = ? AND "+notDeleted, id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatientUpdate(p, cmd)

	err = r.db.WithContext(ctx).Model(p).
		Select("first_name", "last_name", "date_of_birth", "gender", "blood_type",
			"phone", "email", "address", "emergency_contact", "allergies",
			"chronic_conditions", "assigned_doctor_id", "clinical_notes", "updated_at").
		Updates(p).Error
	if err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}
	return p, nil
}

func applyPatientUpdate(p *patient.Patient, cmd *patient.UpdatePatientCommand) {
	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.DateOfBirth != nil {
		p.DateOfBirth = cmd.DateOfBirth
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.BloodType != nil {
		p.BloodType = *cmd.BloodType
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.EmergencyContact != nil {
		p.EmergencyContact = cmd.EmergencyContact
	}
	if cmd.Allergies != nil {
		p.Allergies = *cmd.Allergies
	}
	if cmd.ChronicConditions != nil {
		p.ChronicConditions = *cmd.ChronicConditions
	}
	if cmd.AssignedDoctorID != nil {
		p.AssignedDoctorID = cmd.AssignedDoctorID
	}
	if cmd.ClinicalNotes != nil {
		p.ClinicalNotes = *cmd.ClinicalNotes
	}
}

// SoftDelete also flips the status so list filters by status stay consistent.
func (r *PatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("id = ? AND "+notDeleted, id).
		Updates(map[string]any{
			"status":     patient.StatusInactive,
			"deleted_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	page, size := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&patient.Patient{}).Where(notDeleted)
	if q.Search != "" {
		pattern := likePattern(q.Search)
		tx = tx.Where("((first_name || ' ' || last_name) ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.AssignedDoctorID != nil {
		tx = tx.Where("assigned_doctor_id = ?", *q.AssignedDoctorID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	patients := make([]*patient.Patient, 0)
	if err := tx.Order("last_name ASC, first_name ASC").Scopes(paginate(page, size)).Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages(total, size),
	}, nil
}
