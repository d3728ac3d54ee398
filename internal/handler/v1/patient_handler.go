package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/patient"
)

type PatientService interface {
	CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller domain.Caller) (*patient.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID, caller domain.Caller) (*patient.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller domain.Caller) (*patient.Patient, error)
	DeactivatePatient(ctx context.Context, id uuid.UUID, caller domain.Caller) error
	ListPatients(ctx context.Context, q *patient.ListPatientsQuery, caller domain.Caller) (*patient.PagedPatients, error)
}

type PatientHandler struct {
	svc PatientService
}

func NewPatientHandler(svc PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

type createPatientRequest struct {
	FirstName         string                    `json:"first_name" binding:"required"`
	LastName          string                    `json:"last_name" binding:"required"`
	DateOfBirth       *time.Time                `json:"date_of_birth"`
	Gender            patient.Gender            `json:"gender"`
	BloodType         patient.BloodType         `json:"blood_type"`
	Phone             string                    `json:"phone"`
	Email             string                    `json:"email"`
	Address           string                    `json:"address"`
	EmergencyContact  *patient.EmergencyContact `json:"emergency_contact"`
	Allergies         []string                  `json:"allergies"`
	ChronicConditions []string                  `json:"chronic_conditions"`
	AssignedDoctorID  *uuid.UUID                `json:"assigned_doctor_id"`
	ClinicalNotes     string                    `json:"clinical_notes"`
}

type updatePatientRequest struct {
	FirstName         *string                   `json:"first_name"`
	LastName          *string                   `json:"last_name"`
	DateOfBirth       *time.Time                `json:"date_of_birth"`
	Gender            *patient.Gender           `json:"gender"`
	BloodType         *patient.BloodType        `json:"blood_type"`
	Phone             *string                   `json:"phone"`
	Email             *string                   `json:"email"`
	Address           *string                   `json:"address"`
	EmergencyContact  *patient.EmergencyContact `json:"emergency_contact"`
	Allergies         *[]string                 `json:"allergies"`
	ChronicConditions *[]string                 `json:"chronic_conditions"`
	AssignedDoctorID  *uuid.UUID                `json:"assigned_doctor_id"`
	ClinicalNotes     *string                   `json:"clinical_notes"`
}

// POST /api/v1/patients
func (h *PatientHandler) Create(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), &patient.CreatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		EmergencyContact:  req.EmergencyContact,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		AssignedDoctorID:  req.AssignedDoctorID,
		ClinicalNotes:     req.ClinicalNotes,
		CreatedBy:         caller.UserID,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

// GET /api/v1/patients/:id
func (h *PatientHandler) Get(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	h.get(c, id, caller)
}

// GET /api/v1/patients/me
func (h *PatientHandler) Me(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	if caller.PatientID == nil {
		respondError(c, http.StatusNotFound, "no patient record is linked to this account")
		return
	}
	h.get(c, *caller.PatientID, caller)
}

func (h *PatientHandler) get(c *gin.Context, id uuid.UUID, caller domain.Caller) {
	p, err := h.svc.GetPatient(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

// PATCH /api/v1/patients/:id
func (h *PatientHandler) Update(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, &patient.UpdatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		EmergencyContact:  req.EmergencyContact,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		AssignedDoctorID:  req.AssignedDoctorID,
		ClinicalNotes:     req.ClinicalNotes,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

// DELETE /api/v1/patients/:id
func (h *PatientHandler) Deactivate(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivatePatient(c.Request.Context(), id, caller); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/patients?search=&status=&doctor_id=&page=&page_size=
func (h *PatientHandler) List(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	doctorID, ok := parseQueryUUID(c, "doctor_id")
	if !ok {
		return
	}

	q := &patient.ListPatientsQuery{
		Search:           c.Query("search"),
		AssignedDoctorID: doctorID,
		Page:             parseQueryInt(c, "page", 1),
		PageSize:         parseQueryInt(c, "page_size", 20),
	}
	if s := c.Query("status"); s != "" {
		status := patient.Status(s)
		q.Status = &status
	}

	result, err := h.svc.ListPatients(c.Request.Context(), q, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
