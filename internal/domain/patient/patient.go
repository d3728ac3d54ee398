package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

type BloodType string

const (
	BloodTypeAPos    BloodType = "A+"
	BloodTypeANeg    BloodType = "A-"
	BloodTypeBPos    BloodType = "B+"
	BloodTypeBNeg    BloodType = "B-"
	BloodTypeABPos   BloodType = "AB+"
	BloodTypeABNeg   BloodType = "AB-"
	BloodTypeOPos    BloodType = "O+"
	BloodTypeONeg    BloodType = "O-"
	BloodTypeUnknown BloodType = "unknown"
)

func (b BloodType) IsValid() bool {
	switch b {
	case BloodTypeAPos, BloodTypeANeg, BloodTypeBPos, BloodTypeBNeg,
		BloodTypeABPos, BloodTypeABNeg, BloodTypeOPos, BloodTypeONeg, BloodTypeUnknown, "":
		return true
	}
	return false
}

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)" json:"phone"`
	Email   string `gorm:"column:email;type:varchar(255);index" json:"email"`
	Address string `gorm:"column:address;type:text" json:"address"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"` // Soft Delete

	// Set when the patient registered an account; nil for records a doctor created.
	UserID *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex" json:"user_id,omitempty"`

	FirstName   string     `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName    string     `gorm:"column:last_name;type:varchar(100)" json:"last_name"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	Gender      Gender     `gorm:"column:gender;type:varchar(20);default:'unknown'" json:"gender"`
	BloodType   BloodType  `gorm:"column:blood_type;type:varchar(10)" json:"blood_type"`

	ContactInfo

	EmergencyContact *EmergencyContact `gorm:"column:emergency_contact;serializer:json;type:jsonb" json:"emergency_contact,omitempty"`

	Allergies         []string `gorm:"column:allergies;serializer:json;type:jsonb" json:"allergies"`
	ChronicConditions []string `gorm:"column:chronic_conditions;serializer:json;type:jsonb" json:"chronic_conditions"`

	Status           Status     `gorm:"column:status;type:varchar(20);default:'active';index" json:"status"`
	AssignedDoctorID *uuid.UUID `gorm:"column:assigned_doctor_id;type:uuid;index" json:"assigned_doctor_id,omitempty"`
	ClinicalNotes    string     `gorm:"column:clinical_notes;type:text" json:"clinical_notes"` // PHI

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age returns whole years since birth, or -1 when the date of birth is unknown.
func (p *Patient) Age() int {
	if p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	now := time.Now()
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

func (p *Patient) Deactivate() error {
	if p.Status == StatusInactive {
		return ErrPatientInactive
	}
	p.Status = StatusInactive
	return nil
}

type CreatePatientCommand struct {
	UserID            *uuid.UUID
	FirstName         string
	LastName          string
	DateOfBirth       *time.Time
	Gender            Gender
	BloodType         BloodType
	Phone             string
	Email             string
	Address           string
	EmergencyContact  *EmergencyContact
	Allergies         []string
	ChronicConditions []string
	AssignedDoctorID  *uuid.UUID
	ClinicalNotes     string
	CreatedBy         uuid.UUID
}

// UpdatePatientCommand applies only the non-nil fields.
type UpdatePatientCommand struct {
	FirstName         *string
	LastName          *string
	DateOfBirth       *time.Time
	Gender            *Gender
	BloodType         *BloodType
	Phone             *string
	Email             *string
	Address           *string
	EmergencyContact  *EmergencyContact
	Allergies         *[]string
	ChronicConditions *[]string
	AssignedDoctorID  *uuid.UUID
	ClinicalNotes     *string
}

// HasClinicalFields is true when the command touches fields only clinicians may edit.
func (c *UpdatePatientCommand) HasClinicalFields() bool {
	return c.AssignedDoctorID != nil || c.ClinicalNotes != nil
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	Search           string // Case-insensitive match on name or email
	Status           *Status
	AssignedDoctorID *uuid.UUID
	Page             int
	PageSize         int
}

type PagedPatients struct {
	Patients   []*Patient `json:"patients"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
