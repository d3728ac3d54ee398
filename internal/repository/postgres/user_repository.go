package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/doctor"
	"github.com/manulsahu/MediSight/internal/domain/patient"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("id = ? AND "+notDeleted, id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND "+notDeleted, strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return n > 0, nil
}

// CreateWithPatient stores a patient account and its profile atomically.
func (r *UserRepository) CreateWithPatient(ctx context.Context, u *domain.User, p *patient.Patient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		u.PatientID = &p.ID
		p.UserID = &u.ID
		if p.CreatedBy == uuid.Nil {
			p.CreatedBy = u.ID
		}

		if err := tx.Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("creating user: %w", err)
		}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("creating patient profile: %w", err)
		}
		return nil
	})
}

// CreateWithDoctor stores a doctor account and its profile atomically.
func (r *UserRepository) CreateWithDoctor(ctx context.Context, u *domain.User, d *doctor.Doctor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		u.DoctorID = &d.ID
		d.UserID = u.ID

		if err := tx.Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("creating user: %w", err)
		}
		if err := tx.Create(d).Error; err != nil {
			return fmt.Errorf("creating doctor profile: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": 0,
			"locked_until":       nil,
			"last_login_at":      time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("recording login: %w", err)
	}
	return nil
}

// RecordLoginFailure bumps the failure counter and locks the account once it
// reaches maxAttempts.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	lockUntil := time.Now().UTC().Add(lockFor)
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": gorm.Expr("failed_login_count + 1"),
			"locked_until": gorm.Expr(
				"CASE WHEN failed_login_count + 1 >= ? THEN ?::timestamptz ELSE locked_until END",
				maxAttempts, lockUntil,
			),
		}).Error
	if err != nil {
		return fmt.Errorf("recording failed login: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ? AND "+notDeleted, id).
		Updates(map[string]any{
			"password_hash":       hash,
			"password_changed_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
