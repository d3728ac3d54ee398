package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/manulsahu/MediSight/internal/domain/medication"
)

type MedicationRepository struct {
	db *gorm.DB
}

func NewMedicationRepository(db *gorm.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

func (r *MedicationRepository) Create(ctx context.Context, m *medication.Medication) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("inserting medication: %w", err)
	}
	return nil
}

func (r *MedicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*medication.Medication, error) {
	var m medication.Medication
	err := r.db.WithContext(ctx).Where("id = ? AND "+notDeleted, id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, medication.ErrMedicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading medication: %w", err)
	}
	return &m, nil
}

func (r *MedicationRepository) Update(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand) (*medication.Medication, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		m.Name = *cmd.Name
	}
	if cmd.Dosage != nil {
		m.Dosage = *cmd.Dosage
	}
	if cmd.Frequency != nil {
		m.Frequency = *cmd.Frequency
	}
	if cmd.Times != nil {
		m.Times = *cmd.Times
	}
	if cmd.StartDate != nil {
		m.StartDate = cmd.StartDate
	}
	if cmd.EndDate != nil {
		m.EndDate = cmd.EndDate
	}
	if cmd.Instructions != nil {
		m.Instructions = *cmd.Instructions
	}
	if cmd.Active != nil {
		m.Active = *cmd.Active
	}

	err = r.db.WithContext(ctx).Model(m).
		Select("name", "dosage", "frequency", "times", "start_date", "end_date",
			"instructions", "active", "updated_at").
		Updates(m).Error
	if err != nil {
		return nil, fmt.Errorf("updating medication: %w", err)
	}
	return m, nil
}

func (r *MedicationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&medication.Medication{}).
		Where("id = ? AND "+notDeleted, id).
		Updates(map[string]any{"active": false, "deleted_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("deleting medication: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return medication.ErrMedicationNotFound
	}
	return nil
}

func (r *MedicationRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*medication.Medication, error) {
	tx := r.db.WithContext(ctx).Where("patient_id = ? AND "+notDeleted, patientID)
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}

	meds := make([]*medication.Medication, 0)
	if err := tx.Order("name ASC").Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("listing medications: %w", err)
	}
	return meds, nil
}

func (r *MedicationRepository) RecordDose(ctx context.Context, log *medication.DoseLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "medication_id"}, {Name: "day"}, {Name: "dose_time"}},
			DoNothing: true,
		}).
		Create(log).Error
	if err != nil {
		return fmt.Errorf("recording dose: %w", err)
	}
	return nil
}

func (r *MedicationRepository) ListDoses(ctx context.Context, patientID uuid.UUID, day time.Time) ([]*medication.DoseLog, error) {
	logs := make([]*medication.DoseLog, 0)
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND day = ?", patientID, medication.Day(day)).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("listing doses: %w", err)
	}
	return logs, nil
}
