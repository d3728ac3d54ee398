package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/doctor"
	"github.com/manulsahu/MediSight/internal/domain/patient"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

const maxFailedAttempts = 5

const lockDuration = 15 * time.Minute

const minPasswordLength = 12

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateWithPatient(ctx context.Context, u *domain.User, p *patient.Patient) error
	CreateWithDoctor(ctx context.Context, u *domain.User, d *doctor.Doctor) error
	RecordLoginSuccess(ctx context.Context, id uuid.UUID) error
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type TokenManager interface {
	GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error)
	ValidateRefreshToken(token string) (*domain.Claims, error)
}

// RegisterCommand creates a self-service account. Only patients and doctors
// can sign up; admins are provisioned out of band.
type RegisterCommand struct {
	Email          string
	Password       string
	Role           domain.Role
	FirstName      string
	LastName       string
	Phone          string
	Specialization string
	LicenseNumber  string
}

type AuthService struct {
	userRepo UserRepository
	tokens   TokenManager
	auditSvc *AuditService
	log      *zap.Logger
	hashCost int
}

func NewAuthService(userRepo UserRepository, tokens TokenManager, auditSvc *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		auditSvc: auditSvc,
		log:      log,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand, ip string) (*domain.TokenPair, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.FirstName = strings.TrimSpace(cmd.FirstName)
	cmd.LastName = strings.TrimSpace(cmd.LastName)

	if err := validateRegister(cmd); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:                uuid.New(),
		Email:             cmd.Email,
		PasswordHash:      string(hash),
		DisplayName:       strings.TrimSpace(cmd.FirstName + " " + cmd.LastName),
		Role:              cmd.Role,
		IsActive:          true,
		PasswordChangedAt: now,
	}

	switch cmd.Role {
	case domain.RolePatient:
		p := &patient.Patient{
			FirstName: cmd.FirstName,
			LastName:  cmd.LastName,
			Gender:    patient.GenderUnknown,
			ContactInfo: patient.ContactInfo{
				Phone: strings.TrimSpace(cmd.Phone),
				Email: cmd.Email,
			},
			Allergies:         []string{},
			ChronicConditions: []string{},
			Status:            patient.StatusActive,
			CreatedBy:         u.ID,
		}
		err = s.userRepo.CreateWithPatient(ctx, u, p)
	case domain.RoleDoctor:
		d := &doctor.Doctor{
			FirstName:      cmd.FirstName,
			LastName:       cmd.LastName,
			Email:          cmd.Email,
			Specialization: strings.TrimSpace(cmd.Specialization),
			LicenseNumber:  strings.TrimSpace(cmd.LicenseNumber),
			ContactPhone:   strings.TrimSpace(cmd.Phone),
		}
		err = s.userRepo.CreateWithDoctor(ctx, u, d)
	}
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		s.log.Error("failed to register account", zap.Error(err))
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       u.ID,
		UserRole:     u.Role,
		Action:       domain.ActionCreate,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("account registered",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
	)

	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error("failed to load user for login", zap.Error(err))
		}
		// Spend the same bcrypt time as a real check so response latency
		// does not reveal whether the email exists.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if err := s.userRepo.RecordLoginFailure(ctx, user.ID, maxFailedAttempts, lockDuration); err != nil {
			s.log.Error("failed to record login failure", zap.Error(err))
		}
		s.log.Warn("failed login attempt",
			zap.String("user_id", user.ID.String()),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.RecordLoginSuccess(ctx, user.ID); err != nil {
		s.log.Error("failed to record login", zap.Error(err))
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     user.Role,
		Action:       domain.ActionLogin,
		ResourceType: "session",
		ResourceID:   user.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return pair, nil
}

// RefreshToken issues a new token pair given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Role or links may have changed since the token was issued.
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, caller domain.Caller, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validationErrors(passwordProblems(newPassword)); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	entry := auditEntry(caller, domain.ActionUpdate, "user", user.ID.String())
	entry.Changes = `{"field":"password"}`
	s.auditSvc.LogAsync(ctx, entry)
	return nil
}

func (s *AuthService) issue(u *domain.User) (*domain.TokenPair, error) {
	pair, err := s.tokens.GenerateTokenPair(&domain.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		DoctorID:  u.DoctorID,
		PatientID: u.PatientID,
	})
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

func validateRegister(cmd *RegisterCommand) error {
	var errs []string

	if _, err := mail.ParseAddress(cmd.Email); err != nil || cmd.Email == "" {
		errs = append(errs, "email is invalid")
	}
	errs = append(errs, passwordProblems(cmd.Password)...)
	if cmd.Role != domain.RolePatient && cmd.Role != domain.RoleDoctor {
		errs = append(errs, "role must be patient or doctor")
	}
	if cmd.FirstName == "" {
		errs = append(errs, "first_name is required")
	}

	return validationErrors(errs)
}

func passwordProblems(password string) []string {
	if len(password) < minPasswordLength {
		return []string{fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	return nil
}
