package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manulsahu/MediSight/internal/config"
	"github.com/manulsahu/MediSight/internal/domain"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "test-secret-that-is-long-enough-for-hs256",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "medisight-test",
	}
}

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager(testConfig())
	patientID := uuid.New()
	claims := &domain.Claims{
		UserID:    uuid.New(),
		Email:     "asha@example.com",
		Role:      domain.RolePatient,
		PatientID: &patientID,
	}

	pair, err := m.GenerateTokenPair(claims)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	got, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, domain.RolePatient, got.Role)
	require.NotNil(t, got.PatientID)
	assert.Equal(t, patientID, *got.PatientID)
	assert.Nil(t, got.DoctorID)

	refreshed, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, refreshed.UserID)
}

func TestTokenTypeMismatch(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: domain.RoleDoctor})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestExpiredToken(t *testing.T) {
	m := NewJWTManager(testConfig())
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }

	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrongSecretOrIssuer(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)

	other := testConfig()
	other.Secret = "a-completely-different-secret-value-here"
	_, err = NewJWTManager(other).ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other = testConfig()
	other.Issuer = "someone-else"
	_, err = NewJWTManager(other).ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRejectsOtherAlgorithmsAndUnknownRoles(t *testing.T) {
	cfg := testConfig()
	m := NewJWTManager(cfg)

	mint := func(method jwt.SigningMethod, role string) string {
		now := time.Now()
		tok, err := jwt.NewWithClaims(method, portalClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				Subject:   uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			Role: role,
			Kind: kindAccess,
		}).SignedString([]byte(cfg.Secret))
		require.NoError(t, err)
		return tok
	}

	_, err := m.ValidateAccessToken(mint(jwt.SigningMethodHS256, string(domain.RoleDoctor)))
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(mint(jwt.SigningMethodHS512, string(domain.RoleDoctor)))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.ValidateAccessToken(mint(jwt.SigningMethodHS256, "superuser"))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
