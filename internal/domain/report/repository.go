package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/health"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	List(ctx context.Context, q *ListReportsQuery) (*PagedReports, error)

	// ListByPatient returns every live report for the patient, oldest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error)

	UpdateReadings(ctx context.Context, id uuid.UUID, readings *health.VitalReading) (*Report, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
