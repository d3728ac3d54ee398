package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/medication"
)

type MedicationService interface {
	AddMedication(ctx context.Context, cmd *medication.CreateMedicationCommand, caller domain.Caller) (*medication.Medication, error)
	UpdateMedication(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand, caller domain.Caller) (*medication.Medication, error)
	RemoveMedication(ctx context.Context, id uuid.UUID, caller domain.Caller) error
	ListMedications(ctx context.Context, patientID uuid.UUID, activeOnly bool, caller domain.Caller) ([]*medication.Medication, error)
	DailySchedule(ctx context.Context, patientID uuid.UUID, day time.Time, caller domain.Caller) ([]medication.ScheduleEntry, error)
	MarkDoseTaken(ctx context.Context, medicationID uuid.UUID, cmd *medication.MarkDoseCommand, caller domain.Caller) error
}

type MedicationHandler struct {
	svc MedicationService
	now func() time.Time
}

func NewMedicationHandler(svc MedicationService) *MedicationHandler {
	return &MedicationHandler{svc: svc, now: time.Now}
}

type addMedicationRequest struct {
	Name         string               `json:"name" binding:"required"`
	Dosage       string               `json:"dosage" binding:"required"`
	Frequency    medication.Frequency `json:"frequency" binding:"required"`
	Times        []string             `json:"times"`
	StartDate    *time.Time           `json:"start_date"`
	EndDate      *time.Time           `json:"end_date"`
	Instructions string               `json:"instructions"`
}

type updateMedicationRequest struct {
	Name         *string               `json:"name"`
	Dosage       *string               `json:"dosage"`
	Frequency    *medication.Frequency `json:"frequency"`
	Times        *[]string             `json:"times"`
	StartDate    *time.Time            `json:"start_date"`
	EndDate      *time.Time            `json:"end_date"`
	Instructions *string               `json:"instructions"`
	Active       *bool                 `json:"active"`
}

type markDoseRequest struct {
	// YYYY-MM-DD; today (UTC) when empty.
	Date string `json:"date"`
	Time string `json:"time" binding:"required"`
}

type scheduleResponse struct {
	Date    string                     `json:"date"`
	Entries []medication.ScheduleEntry `json:"entries"`
}

// POST /api/v1/patients/:id/medications
func (h *MedicationHandler) Add(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req addMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.AddMedication(c.Request.Context(), &medication.CreateMedicationCommand{
		PatientID:    patientID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		Times:        req.Times,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Instructions: req.Instructions,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, m)
}

// GET /api/v1/patients/:id/medications?active=true
func (h *MedicationHandler) List(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	meds, err := h.svc.ListMedications(c.Request.Context(), patientID, c.Query("active") == "true", caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, meds)
}

// GET /api/v1/patients/:id/schedule?date=YYYY-MM-DD
func (h *MedicationHandler) Schedule(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	date, ok := parseQueryDate(c, "date")
	if !ok {
		return
	}
	day := h.now().UTC()
	if date != nil {
		day = *date
	}
	day = medication.Day(day)

	entries, err := h.svc.DailySchedule(c.Request.Context(), patientID, day, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, scheduleResponse{Date: day.Format(dateLayout), Entries: entries})
}

// PATCH /api/v1/medications/:id
func (h *MedicationHandler) Update(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateMedicationRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.svc.UpdateMedication(c.Request.Context(), id, &medication.UpdateMedicationCommand{
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		Times:        req.Times,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Instructions: req.Instructions,
		Active:       req.Active,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, m)
}

// DELETE /api/v1/medications/:id
func (h *MedicationHandler) Remove(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveMedication(c.Request.Context(), id, caller); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/medications/:id/doses
func (h *MedicationHandler) MarkDose(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req markDoseRequest
	if !bindJSON(c, &req) {
		return
	}

	day := h.now().UTC()
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
			return
		}
		day = d
	}

	cmd := &medication.MarkDoseCommand{Day: medication.Day(day), Time: req.Time}
	if err := h.svc.MarkDoseTaken(c.Request.Context(), id, cmd, caller); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
