package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manulsahu/MediSight/internal/domain/patient"
)

func TestPatientRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "status", "allergies"}).
		AddRow(id.String(), "Asha", "Verma", "active", `["penicillin"]`)
	mock.ExpectQuery(`SELECT \* FROM "clinical"\."patients" WHERE id = \$1 AND deleted_at IS NULL`).
		WillReturnRows(rows)

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Asha Verma", p.FullName())
	assert.Equal(t, []string{"penicillin"}, p.Allergies)
	assert.True(t, p.IsActive())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "clinical"\."patients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
	assert.Nil(t, p)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_SoftDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec(`UPDATE "clinical"\."patients" SET .*"deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(context.Background(), uuid.New()))

	mock.ExpectExec(`UPDATE "clinical"\."patients"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SoftDelete(context.Background(), uuid.New()), patient.ErrPatientNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clinical"\."patients" WHERE deleted_at IS NULL AND .*ILIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`SELECT \* FROM "clinical"\."patients" .*ORDER BY last_name ASC, first_name ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).
			AddRow(uuid.New().String(), "Asha").
			AddRow(uuid.New().String(), "Ravi"))

	res, err := repo.List(context.Background(), &patient.ListPatientsQuery{Search: "a"})
	require.NoError(t, err)
	assert.Len(t, res.Patients, 2)
	assert.EqualValues(t, 21, res.TotalCount)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PageSize)
	assert.Equal(t, 2, res.TotalPages)

	require.NoError(t, mock.ExpectationsWereMet())
}
