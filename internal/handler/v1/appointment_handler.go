package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/appointment"
)

type AppointmentService interface {
	RequestAppointment(ctx context.Context, cmd *appointment.RequestAppointmentCommand, caller domain.Caller) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID, caller domain.Caller) (*appointment.Appointment, error)
	AcceptAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.AcceptAppointmentCommand, caller domain.Caller) (*appointment.Appointment, error)
	RejectAppointment(ctx context.Context, id uuid.UUID, note string, caller domain.Caller) (*appointment.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, reason string, caller domain.Caller) (*appointment.Appointment, error)
	CompleteAppointment(ctx context.Context, id uuid.UUID, caller domain.Caller) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, caller domain.Caller) (*appointment.PagedAppointments, error)
}

type AppointmentHandler struct {
	svc AppointmentService
}

func NewAppointmentHandler(svc AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type requestAppointmentRequest struct {
	DoctorID    uuid.UUID  `json:"doctor_id" binding:"required"`
	Reason      string     `json:"reason"`
	PreferredAt *time.Time `json:"preferred_at"`
}

type acceptAppointmentRequest struct {
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	DurationMins int       `json:"duration_mins"`
	Note         string    `json:"note"`
}

type noteRequest struct {
	Note string `json:"note"`
}

// POST /api/v1/appointments
func (h *AppointmentHandler) Request(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req requestAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.RequestAppointment(c.Request.Context(), &appointment.RequestAppointmentCommand{
		DoctorID:    req.DoctorID,
		Reason:      req.Reason,
		PreferredAt: req.PreferredAt,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

// GET /api/v1/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAppointment(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

// POST /api/v1/appointments/:id/accept
func (h *AppointmentHandler) Accept(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req acceptAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.AcceptAppointment(c.Request.Context(), id, &appointment.AcceptAppointmentCommand{
		ScheduledAt:  req.ScheduledAt,
		DurationMins: req.DurationMins,
		Note:         req.Note,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

// POST /api/v1/appointments/:id/reject
func (h *AppointmentHandler) Reject(c *gin.Context) {
	h.withNote(c, h.svc.RejectAppointment)
}

// POST /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.withNote(c, h.svc.CancelAppointment)
}

func (h *AppointmentHandler) withNote(c *gin.Context, fn func(context.Context, uuid.UUID, string, domain.Caller) (*appointment.Appointment, error)) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req noteRequest
	// The body is optional.
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	a, err := fn(c.Request.Context(), id, req.Note, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

// POST /api/v1/appointments/:id/complete
func (h *AppointmentHandler) Complete(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.CompleteAppointment(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

// GET /api/v1/appointments?status=&from=&to=&patient_id=&doctor_id=
func (h *AppointmentHandler) List(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	patientID, ok := parseQueryUUID(c, "patient_id")
	if !ok {
		return
	}
	doctorID, ok := parseQueryUUID(c, "doctor_id")
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

	q := &appointment.ListAppointmentsQuery{
		PatientID: patientID,
		DoctorID:  doctorID,
		DateFrom:  from,
		DateTo:    to,
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
	}
	if s := c.Query("status"); s != "" {
		status := appointment.AppointmentStatus(s)
		if !status.IsValid() {
			respondError(c, http.StatusBadRequest, appointment.ErrInvalidStatus.Error())
			return
		}
		q.Status = &status
	}

	result, err := h.svc.ListAppointments(c.Request.Context(), q, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
