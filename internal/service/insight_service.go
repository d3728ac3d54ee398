package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/config"
	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/report"
	"github.com/manulsahu/MediSight/internal/health"
	"github.com/manulsahu/MediSight/pkg/cache"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

// InsightCache is the subset of the Redis cache the analysis needs.
type InsightCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ReportSource supplies every live report of a patient, oldest first.
type ReportSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*report.Report, error)
}

// TrendPoint is one chartable report: its date, the four readings and which
// thresholds that reading crossed.
type TrendPoint struct {
	ReportID    uuid.UUID `json:"report_id"`
	Date        time.Time `json:"date"`
	SystolicBP  *float64  `json:"systolic_bp,omitempty"`
	DiastolicBP *float64  `json:"diastolic_bp,omitempty"`
	SugarLevel  *float64  `json:"sugar_level,omitempty"`
	PulseRate   *float64  `json:"pulse_rate,omitempty"`
	HighBP      bool      `json:"high_bp"`
	HighSugar   bool      `json:"high_sugar"`
	HighPulse   bool      `json:"high_pulse"`
}

type Insight struct {
	PatientID uuid.UUID `json:"patient_id"`

	ReportCount   int  `json:"report_count"`
	ReadingsCount int  `json:"readings_count"`
	MinReports    int  `json:"min_reports"`
	Sufficient    bool `json:"sufficient"`

	Counts      health.Counts            `json:"counts"`
	Conditions  []health.Condition       `json:"conditions"`
	Suggestions []health.SuggestionEntry `json:"suggestions"`
	Trend       []TrendPoint             `json:"trend"`

	GeneratedAt time.Time `json:"generated_at"`
}

func insightKey(patientID uuid.UUID) string {
	return "insight:" + patientID.String()
}

type InsightService struct {
	reports  ReportSource
	cache    InsightCache
	cfg      config.AnalysisConfig
	auditSvc *AuditService
	metrics  *metrics.Collector
	tracer   trace.Tracer
	log      *zap.Logger
}

func NewInsightService(
	reports ReportSource,
	c InsightCache,
	cfg config.AnalysisConfig,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *InsightService {
	return &InsightService{
		reports:  reports,
		cache:    c,
		cfg:      cfg,
		auditSvc: auditSvc,
		metrics:  m,
		tracer:   otel.Tracer("github.com/manulsahu/MediSight/internal/service"),
		log:      log,
	}
}

// AnalyzePatient returns the health trend analysis over all of the
// patient's reports. Results are cached until a report changes or the TTL
// lapses; cache trouble only costs a recomputation.
func (s *InsightService) AnalyzePatient(ctx context.Context, patientID uuid.UUID, caller domain.Caller) (*Insight, error) {
	if !caller.CanReadPatient(patientID) {
		return nil, ErrForbidden
	}

	ctx, span := s.tracer.Start(ctx, "insight.AnalyzePatient",
		trace.WithAttributes(attribute.String("patient.id", patientID.String())))
	defer span.End()

	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionRead, "insight", patientID.String()))

	if cached, ok := s.fromCache(ctx, patientID); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	ins, err := s.compute(ctx, patientID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AnalysisRunsTotal.Inc()
		s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		for _, c := range ins.Conditions {
			s.metrics.SuggestionsTotal.WithLabelValues(string(c)).Inc()
		}
	}
	span.SetAttributes(
		attribute.Int("reports.count", ins.ReportCount),
		attribute.Int("suggestions.count", len(ins.Suggestions)),
	)

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, insightKey(patientID), ins, s.cfg.CacheTTL); err != nil {
			s.log.Warn("caching insight failed", zap.String("patient_id", patientID.String()), zap.Error(err))
		}
	}

	return ins, nil
}

// Invalidate drops the cached analysis for a patient.
func (s *InsightService) Invalidate(ctx context.Context, patientID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, insightKey(patientID)); err != nil {
		s.log.Warn("invalidating insight failed", zap.String("patient_id", patientID.String()), zap.Error(err))
	}
}

func (s *InsightService) compute(ctx context.Context, patientID uuid.UUID) (*Insight, error) {
	ctx, span := s.tracer.Start(ctx, "insight.loadReports")
	reports, err := s.reports.ListByPatient(ctx, patientID)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}

	records := make([]health.ReportRecord, 0, len(reports))
	for _, r := range reports {
		records = append(records, r.Record())
	}

	counts := health.Count(records)
	trend := buildTrend(reports, s.cfg.TrendLimit)

	readings := 0
	for _, r := range reports {
		if r.HasReadings() {
			readings++
		}
	}

	return &Insight{
		PatientID:     patientID,
		ReportCount:   len(reports),
		ReadingsCount: readings,
		MinReports:    s.cfg.MinReports,
		Sufficient:    len(reports) >= s.cfg.MinReports,
		Counts:        counts,
		Conditions:    health.TriggeredConditions(counts),
		Suggestions:   health.SelectSuggestions(counts),
		Trend:         trend,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func (s *InsightService) fromCache(ctx context.Context, patientID uuid.UUID) (*Insight, bool) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return nil, false
	}

	var ins Insight
	err := s.cache.GetJSON(ctx, insightKey(patientID), &ins)
	switch {
	case err == nil:
		s.observeCache("hit")
		return &ins, true
	case errors.Is(err, cache.ErrMiss):
		s.observeCache("miss")
	default:
		s.observeCache("error")
		s.log.Warn("reading cached insight failed", zap.String("patient_id", patientID.String()), zap.Error(err))
	}
	return nil, false
}

func (s *InsightService) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.AnalysisCacheResults.WithLabelValues(result).Inc()
	}
}

// buildTrend keeps reports that carry readings, in chronological order.
// A positive limit keeps only the most recent points.
func buildTrend(reports []*report.Report, limit int) []TrendPoint {
	points := make([]TrendPoint, 0, len(reports))
	for _, r := range reports {
		if !r.HasReadings() {
			continue
		}
		v := r.Readings
		bp, sugar, pulse := health.Triggers(v)
		points = append(points, TrendPoint{
			ReportID:    r.ID,
			Date:        r.ReportDate,
			SystolicBP:  v.SystolicBP,
			DiastolicBP: v.DiastolicBP,
			SugarLevel:  v.SugarLevel,
			PulseRate:   v.PulseRate,
			HighBP:      bp,
			HighSugar:   sugar,
			HighPulse:   pulse,
		})
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points
}
