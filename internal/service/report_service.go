package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/domain/report"
	"github.com/manulsahu/MediSight/internal/health"
	"github.com/manulsahu/MediSight/internal/notify"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

// InsightInvalidator is told whenever a patient's reports change.
type InsightInvalidator interface {
	Invalidate(ctx context.Context, patientID uuid.UUID)
}

type ReportService struct {
	repo        report.Repository
	patientRepo patient.Repository
	insights    InsightInvalidator
	auditSvc    *AuditService
	notifier    Notifier
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewReportService(
	repo report.Repository,
	patientRepo patient.Repository,
	insights InsightInvalidator,
	auditSvc *AuditService,
	notifier Notifier,
	m *metrics.Collector,
	log *zap.Logger,
) *ReportService {
	return &ReportService{
		repo:        repo,
		patientRepo: patientRepo,
		insights:    insights,
		auditSvc:    auditSvc,
		notifier:    notifierOrNop(notifier),
		metrics:     m,
		log:         log,
	}
}

func (s *ReportService) CreateReport(ctx context.Context, cmd *report.CreateReportCommand, caller domain.Caller) (*report.Report, error) {
	if !caller.Role.IsClinician() && !caller.OwnsPatient(cmd.PatientID) {
		return nil, ErrForbidden
	}
	if err := validateCreateReport(cmd); err != nil {
		return nil, err
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}

	reportDate := time.Now().UTC()
	if cmd.ReportDate != nil {
		reportDate = cmd.ReportDate.UTC()
	}

	r := &report.Report{
		PatientID:   p.ID,
		UploadedBy:  caller.UserID,
		Title:       strings.TrimSpace(cmd.Title),
		FileURL:     strings.TrimSpace(cmd.FileURL),
		ContentType: strings.ToLower(strings.TrimSpace(cmd.ContentType)),
		SizeBytes:   cmd.SizeBytes,
		ReportDate:  reportDate,
		Readings:    normalizeReadings(cmd.Readings),
		Notes:       cmd.Notes,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.log.Error("failed to create report", zap.Error(err))
		return nil, fmt.Errorf("creating report: %w", err)
	}

	s.invalidate(ctx, p.ID)
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "report", r.ID.String()))
	if s.metrics != nil {
		s.metrics.ReportsUploadedTotal.Inc()
	}

	if p.UserID != nil && *p.UserID != caller.UserID {
		s.notifier.Notify(ctx, *p.UserID, notify.New(notify.TypeReport,
			"New medical report", fmt.Sprintf("%q was added to your records.", r.Title)))
	}

	s.log.Info("report created",
		zap.String("report_id", r.ID.String()),
		zap.String("patient_id", p.ID.String()),
		zap.Bool("has_readings", r.HasReadings()),
	)
	return r, nil
}

func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID, caller domain.Caller) (*report.Report, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanReadPatient(r.PatientID) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, "report", id.String()))
	return r, nil
}

func (s *ReportService) ListReports(ctx context.Context, q *report.ListReportsQuery, caller domain.Caller) (*report.PagedReports, error) {
	if !caller.CanReadPatient(q.PatientID) {
		return nil, ErrForbidden
	}
	normalizePaging(&q.Page, &q.PageSize)
	return s.repo.List(ctx, q)
}

// UpdateReadings stores or replaces the vitals extracted from a report.
func (s *ReportService) UpdateReadings(ctx context.Context, id uuid.UUID, cmd *report.UpdateReadingsCommand, caller domain.Caller) (*report.Report, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Role.IsClinician() && !caller.OwnsPatient(existing.PatientID) {
		return nil, ErrForbidden
	}
	if err := validationErrors(readingProblems(cmd.Readings)); err != nil {
		return nil, err
	}

	r, err := s.repo.UpdateReadings(ctx, id, normalizeReadings(cmd.Readings))
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, r.PatientID)
	entry := auditEntry(caller, domain.ActionUpdate, "report", id.String())
	entry.Changes = `{"field":"extracted_data"}`
	s.auditSvc.LogAsync(ctx, entry)
	return r, nil
}

// DeleteReport is allowed for the uploader, the owning patient and admins.
func (s *ReportService) DeleteReport(ctx context.Context, id uuid.UUID, caller domain.Caller) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if caller.Role != domain.RoleAdmin && r.UploadedBy != caller.UserID && !caller.OwnsPatient(r.PatientID) {
		return ErrForbidden
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, r.PatientID)
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionDelete, "report", id.String()))
	return nil
}

func (s *ReportService) invalidate(ctx context.Context, patientID uuid.UUID) {
	if s.insights != nil {
		s.insights.Invalidate(ctx, patientID)
	}
}

func validateCreateReport(cmd *report.CreateReportCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Title) == "" {
		errs = append(errs, "title is required")
	}
	if u, err := url.Parse(strings.TrimSpace(cmd.FileURL)); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		errs = append(errs, "file_url must be an absolute http(s) URL")
	}
	if !report.IsSupportedContentType(cmd.ContentType) {
		errs = append(errs, report.ErrUnsupportedContentType.Error())
	}
	if cmd.SizeBytes < 0 {
		errs = append(errs, "size_bytes cannot be negative")
	} else if cmd.SizeBytes > report.MaxSizeBytes {
		errs = append(errs, report.ErrReportTooLarge.Error())
	}
	if cmd.ReportDate != nil && cmd.ReportDate.After(time.Now().Add(24*time.Hour)) {
		errs = append(errs, "report_date cannot be in the future")
	}
	errs = append(errs, readingProblems(cmd.Readings)...)

	return validationErrors(errs)
}

// readingProblems rejects negative and non-finite values. Zero is accepted.
func readingProblems(v *health.VitalReading) []string {
	if v == nil {
		return nil
	}
	var errs []string
	check := func(name string, f *float64) {
		if f == nil {
			return
		}
		if math.IsNaN(*f) || math.IsInf(*f, 0) || *f < 0 {
			errs = append(errs, name+" must be a non-negative number")
		}
	}
	check("systolic_bp", v.SystolicBP)
	check("diastolic_bp", v.DiastolicBP)
	check("sugar_level", v.SugarLevel)
	check("pulse_rate", v.PulseRate)
	return errs
}

// normalizeReadings stores nothing rather than an all-empty object.
func normalizeReadings(v *health.VitalReading) *health.VitalReading {
	if v.IsEmpty() {
		return nil
	}
	return v
}
