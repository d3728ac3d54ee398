package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/manulsahu/MediSight/internal/config"
	"github.com/manulsahu/MediSight/internal/domain"
)

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenTypeMismatch = errors.New("wrong token type")
)

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

// clockSkew backdates nbf so a token minted on one instance is usable on another.
const clockSkew = 10 * time.Second

// portalClaims is the signed payload. The subject is the user id; the
// patient and doctor links let handlers authorise without a user lookup.
type portalClaims struct {
	jwt.RegisteredClaims
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	Kind      tokenKind  `json:"token_type"`
}

// JWTManager issues and verifies HS256 access/refresh pairs.
type JWTManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
	now        func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	m := &JWTManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

func (m *JWTManager) GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error) {
	access, expiresAt, err := m.sign(claims, kindAccess, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, _, err := m.sign(claims, kindRefresh, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

func (m *JWTManager) ValidateAccessToken(token string) (*domain.Claims, error) {
	return m.verify(token, kindAccess)
}

func (m *JWTManager) ValidateRefreshToken(token string) (*domain.Claims, error) {
	return m.verify(token, kindRefresh)
}

func (m *JWTManager) sign(c *domain.Claims, kind tokenKind, ttl time.Duration) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(ttl)

	payload := portalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   c.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-clockSkew)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:     c.Email,
		Role:      string(c.Role),
		DoctorID:  c.DoctorID,
		PatientID: c.PatientID,
		Kind:      kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) verify(raw string, want tokenKind) (*domain.Claims, error) {
	var payload portalClaims
	_, err := m.parser.ParseWithClaims(raw, &payload, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	}

	if payload.Kind != want {
		return nil, ErrTokenTypeMismatch
	}
	return payload.toDomain()
}

func (p *portalClaims) toDomain() (*domain.Claims, error) {
	userID, err := uuid.Parse(p.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	role := domain.Role(p.Role)
	if !role.IsValid() {
		return nil, ErrTokenInvalid
	}

	return &domain.Claims{
		UserID:    userID,
		Email:     p.Email,
		Role:      role,
		DoctorID:  p.DoctorID,
		PatientID: p.PatientID,
	}, nil
}
