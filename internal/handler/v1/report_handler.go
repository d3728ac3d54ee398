package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/report"
	"github.com/manulsahu/MediSight/internal/health"
	"github.com/manulsahu/MediSight/internal/service"
)

type ReportService interface {
	CreateReport(ctx context.Context, cmd *report.CreateReportCommand, caller domain.Caller) (*report.Report, error)
	GetReport(ctx context.Context, id uuid.UUID, caller domain.Caller) (*report.Report, error)
	ListReports(ctx context.Context, q *report.ListReportsQuery, caller domain.Caller) (*report.PagedReports, error)
	UpdateReadings(ctx context.Context, id uuid.UUID, cmd *report.UpdateReadingsCommand, caller domain.Caller) (*report.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID, caller domain.Caller) error
}

type InsightService interface {
	AnalyzePatient(ctx context.Context, patientID uuid.UUID, caller domain.Caller) (*service.Insight, error)
}

type ReportHandler struct {
	reports  ReportService
	insights InsightService
}

func NewReportHandler(reports ReportService, insights InsightService) *ReportHandler {
	return &ReportHandler{reports: reports, insights: insights}
}

type createReportRequest struct {
	Title       string               `json:"title" binding:"required"`
	FileURL     string               `json:"file_url" binding:"required"`
	ContentType string               `json:"content_type" binding:"required"`
	SizeBytes   int64                `json:"size_bytes"`
	ReportDate  *time.Time           `json:"report_date"`
	Readings    *health.VitalReading `json:"extracted_data"`
	Notes       string               `json:"notes"`
}

type updateReadingsRequest struct {
	Readings *health.VitalReading `json:"extracted_data"`
}

// POST /api/v1/patients/:id/reports
func (h *ReportHandler) Create(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req createReportRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.reports.CreateReport(c.Request.Context(), &report.CreateReportCommand{
		PatientID:   patientID,
		Title:       req.Title,
		FileURL:     req.FileURL,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		ReportDate:  req.ReportDate,
		Readings:    req.Readings,
		Notes:       req.Notes,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, r)
}

// GET /api/v1/patients/:id/reports?from=&to=
func (h *ReportHandler) List(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	from, ok := parseQueryDate(c, "from")
	if !ok {
		return
	}
	to, ok := parseQueryDate(c, "to")
	if !ok {
		return
	}

	result, err := h.reports.ListReports(c.Request.Context(), &report.ListReportsQuery{
		PatientID: patientID,
		DateFrom:  from,
		DateTo:    to,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.reports.GetReport(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

// PUT /api/v1/reports/:id/readings
func (h *ReportHandler) UpdateReadings(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateReadingsRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.reports.UpdateReadings(c.Request.Context(), id, &report.UpdateReadingsCommand{Readings: req.Readings}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reports.DeleteReport(c.Request.Context(), id, caller); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/patients/:id/insights
func (h *ReportHandler) Insights(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	insight, err := h.insights.AnalyzePatient(c.Request.Context(), patientID, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, insight)
}
