package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manulsahu/MediSight/internal/domain"
)

func TestUserRepository_GetByEmail_NormalisesInput(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "auth"\."users" WHERE email = \$1 AND deleted_at IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(id.String(), "asha@example.com", "patient", true))

	u, err := repo.GetByEmail(context.Background(), "  Asha@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, domain.RolePatient, u.Role)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "auth"\."users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RecordLoginFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "auth"\."users" SET .*failed_login_count \+ 1.*CASE WHEN failed_login_count \+ 1 >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordLoginFailure(context.Background(), uuid.New(), 5, 15*time.Minute))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "auth"\."users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), uuid.New(), "hash"), domain.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
