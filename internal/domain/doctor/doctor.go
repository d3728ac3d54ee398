package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex;not null" json:"user_id"`

	FirstName      string `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName       string `gorm:"column:last_name;type:varchar(100)" json:"last_name"`
	Email          string `gorm:"column:email;type:varchar(255)" json:"email"`
	Specialization string `gorm:"column:specialization;type:varchar(150);index" json:"specialization"`
	LicenseNumber  string `gorm:"column:license_number;type:varchar(50)" json:"license_number"`
	ContactPhone   string `gorm:"column:contact_phone;type:varchar(30)" json:"contact_phone"`
	OfficeHours    string `gorm:"column:office_hours;type:varchar(200)" json:"office_hours"`
	PhotoURL       string `gorm:"column:photo_url;type:text" json:"photo_url"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type UpdateDoctorCommand struct {
	FirstName      *string
	LastName       *string
	Specialization *string
	LicenseNumber  *string
	ContactPhone   *string
	OfficeHours    *string
	PhotoURL       *string
}

type ListDoctorsQuery struct {
	Search         string
	Specialization string
	Page           int
	PageSize       int
}

type PagedDoctors struct {
	Doctors    []*Doctor `json:"doctors"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
