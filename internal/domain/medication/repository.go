package medication

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateMedicationCommand) (*Medication, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool) ([]*Medication, error)

	// RecordDose is idempotent per medication, day and time.
	RecordDose(ctx context.Context, log *DoseLog) error
	ListDoses(ctx context.Context, patientID uuid.UUID, day time.Time) ([]*DoseLog, error)
}
