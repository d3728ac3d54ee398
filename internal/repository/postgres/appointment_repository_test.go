package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manulsahu/MediSight/internal/domain/appointment"
)

func TestAppointmentRepository_HasConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db)
	start := time.Now().Add(24 * time.Hour)
	exclude := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clinical"\."appointments" WHERE deleted_at IS NULL AND \(?doctor_id = \$1 AND status = \$2\)? AND .*interval '1 minute'.* AND id <> \$5`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	conflict, err := repo.HasConflict(context.Background(), uuid.New(), start, start.Add(30*time.Minute), &exclude)
	require.NoError(t, err)
	assert.True(t, conflict)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clinical"\."appointments"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	conflict, err = repo.HasConflict(context.Background(), uuid.New(), start, start.Add(30*time.Minute), nil)
	require.NoError(t, err)
	assert.False(t, conflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_UpdateStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db)

	a := &appointment.Appointment{ID: uuid.New(), Status: appointment.StatusPending}
	require.NoError(t, a.Reject("fully booked"))

	mock.ExpectExec(`UPDATE "clinical"\."appointments" SET .*"status"=\$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), a))

	mock.ExpectExec(`UPDATE "clinical"\."appointments"`).
		WillReturnError(errors.New("connection reset"))
	err := repo.UpdateStatus(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating appointment")

	require.NoError(t, mock.ExpectationsWereMet())
}
