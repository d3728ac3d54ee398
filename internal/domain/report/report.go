package report

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/health"
)

const (
	ContentTypePDF = "application/pdf"

	MaxSizeBytes = 20 << 20
)

// IsSupportedContentType accepts PDFs and images, the formats the portal uploader produces.
func IsSupportedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == ContentTypePDF || strings.HasPrefix(ct, "image/")
}

// Report is an uploaded medical document. The file itself lives in the
// client's media store; only its URL is kept here.
type Report struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`

	PatientID  uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	UploadedBy uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null" json:"uploaded_by"`

	Title       string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	FileURL     string    `gorm:"column:file_url;type:text;not null" json:"file_url"`
	ContentType string    `gorm:"column:content_type;type:varchar(100);not null" json:"content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes" json:"size_bytes"`
	ReportDate  time.Time `gorm:"column:report_date;not null;index" json:"report_date"`

	// Readings pulled out of the document, if any were found.
	Readings *health.VitalReading `gorm:"column:extracted_data;serializer:json;type:jsonb" json:"extracted_data,omitempty"`

	Notes string `gorm:"column:notes;type:text" json:"notes"`
}

func (Report) TableName() string {
	return "clinical.reports"
}

// Record projects the report onto the analysis input. The report ID rides
// along as metadata.
func (r *Report) Record() health.ReportRecord {
	return health.ReportRecord{Reading: r.Readings, Meta: r.ID}
}

// HasReadings is true when at least one vital value was extracted.
func (r *Report) HasReadings() bool {
	return !r.Readings.IsEmpty()
}

type CreateReportCommand struct {
	PatientID   uuid.UUID
	Title       string
	FileURL     string
	ContentType string
	SizeBytes   int64
	ReportDate  *time.Time
	Readings    *health.VitalReading
	Notes       string
}

type UpdateReadingsCommand struct {
	Readings *health.VitalReading
}

type ListReportsQuery struct {
	PatientID uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedReports struct {
	Reports    []*Report `json:"reports"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
