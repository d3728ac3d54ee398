package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/doctor"
)

type DoctorService interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	ListDoctors(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, caller domain.Caller) (*doctor.Doctor, error)
}

type DoctorHandler struct {
	svc DoctorService
}

func NewDoctorHandler(svc DoctorService) *DoctorHandler {
	return &DoctorHandler{svc: svc}
}

type updateDoctorRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Specialization *string `json:"specialization"`
	LicenseNumber  *string `json:"license_number"`
	ContactPhone   *string `json:"contact_phone"`
	OfficeHours    *string `json:"office_hours"`
	PhotoURL       *string `json:"photo_url"`
}

// GET /api/v1/doctors/:id
func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.svc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

// GET /api/v1/doctors?search=&specialization=
func (h *DoctorHandler) List(c *gin.Context) {
	result, err := h.svc.ListDoctors(c.Request.Context(), &doctor.ListDoctorsQuery{
		Search:         c.Query("search"),
		Specialization: c.Query("specialization"),
		Page:           parseQueryInt(c, "page", 1),
		PageSize:       parseQueryInt(c, "page_size", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

// PATCH /api/v1/doctors/:id
func (h *DoctorHandler) Update(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.UpdateDoctor(c.Request.Context(), id, &doctor.UpdateDoctorCommand{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		ContactPhone:   req.ContactPhone,
		OfficeHours:    req.OfficeHours,
		PhotoURL:       req.PhotoURL,
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}
