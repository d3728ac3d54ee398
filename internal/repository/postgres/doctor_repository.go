package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/manulsahu/MediSight/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *DoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *DoctorRepository) first(ctx context.Context, cond string, arg any) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Where(cond+" AND "+notDeleted, arg).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, doctor.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading doctor: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepository) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&d.FirstName, cmd.FirstName)
	set(&d.LastName, cmd.LastName)
	set(&d.Specialization, cmd.Specialization)
	set(&d.LicenseNumber, cmd.LicenseNumber)
	set(&d.ContactPhone, cmd.ContactPhone)
	set(&d.OfficeHours, cmd.OfficeHours)
	set(&d.PhotoURL, cmd.PhotoURL)

	err = r.db.WithContext(ctx).Model(d).
		Select("first_name", "last_name", "specialization", "license_number",
			"contact_phone", "office_hours", "photo_url", "updated_at").
		Updates(d).Error
	if err != nil {
		return nil, fmt.Errorf("updating doctor: %w", err)
	}
	return d, nil
}

func (r *DoctorRepository) List(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	page, size := normalizePage(q.Page, q.PageSize)

	tx := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where(notDeleted)
	if q.Search != "" {
		tx = tx.Where("(first_name || ' ' || last_name) ILIKE ?", likePattern(q.Search))
	}
	if q.Specialization != "" {
		tx = tx.Where("specialization ILIKE ?", likePattern(q.Specialization))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting doctors: %w", err)
	}

	doctors := make([]*doctor.Doctor, 0)
	if err := tx.Order("last_name ASC, first_name ASC").Scopes(paginate(page, size)).Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}

	return &doctor.PagedDoctors{
		Doctors:    doctors,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages(total, size),
	}, nil
}
