package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/manulsahu/MediSight/internal/domain/report"
	"github.com/manulsahu/MediSight/internal/health"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var rep report.Report
	err := r.db.WithContext(ctx).Where("id = ? AND "+notDeleted, id).First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, report.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}
	return &rep, nil
}

func (r *ReportRepository) List(ctx context.Context, q *report.ListReportsQuery) (*report.PagedReports, error) {
	page, size := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("patient_id = ? AND "+notDeleted, q.PatientID)
	if q.DateFrom != nil {
		tx = tx.Where("report_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("report_date < ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting reports: %w", err)
	}

	reports := make([]*report.Report, 0)
	if err := tx.Order("report_date DESC, created_at DESC").Scopes(paginate(page, size)).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	return &report.PagedReports{
		Reports:    reports,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages(total, size),
	}, nil
}

func (r *ReportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*report.Report, error) {
	reports := make([]*report.Report, 0)
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND "+notDeleted, patientID).
		Order("report_date ASC, created_at ASC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("loading patient reports: %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) UpdateReadings(ctx context.Context, id uuid.UUID, readings *health.VitalReading) (*report.Report, error) {
	rep, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rep.Readings = readings

	if err := r.db.WithContext(ctx).Model(rep).Select("extracted_data", "updated_at").Updates(rep).Error; err != nil {
		return nil, fmt.Errorf("updating report readings: %w", err)
	}
	return rep, nil
}

func (r *ReportRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("id = ? AND "+notDeleted, id).
		Update("deleted_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("deleting report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return report.ErrReportNotFound
	}
	return nil
}
