package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/domain/report"
	"github.com/manulsahu/MediSight/internal/health"
	"github.com/manulsahu/MediSight/internal/notify"
)

type recordingInvalidator struct {
	patients []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, patientID uuid.UUID) {
	r.patients = append(r.patients, patientID)
}

type reportFixture struct {
	svc         *ReportService
	repo        *memReports
	invalidator *recordingInvalidator
	notifier    *recordingNotifier
	patient     *patient.Patient
	self        domain.Caller
	doctor      domain.Caller
}

func newReportFixture() *reportFixture {
	userID := uuid.New()
	p := &patient.Patient{ID: uuid.New(), UserID: &userID, Status: patient.StatusActive}
	repo := newMemReports()
	inv := &recordingInvalidator{}
	n := &recordingNotifier{}
	audit, _ := testAudit()

	return &reportFixture{
		svc:         NewReportService(repo, newMemPatients(p), inv, audit, n, nil, zap.NewNop()),
		repo:        repo,
		invalidator: inv,
		notifier:    n,
		patient:     p,
		self:        domain.Caller{UserID: userID, Role: domain.RolePatient, PatientID: &p.ID},
		doctor:      domain.Caller{UserID: uuid.New(), Role: domain.RoleDoctor},
	}
}

func (f *reportFixture) validCommand() *report.CreateReportCommand {
	return &report.CreateReportCommand{
		PatientID:   f.patient.ID,
		Title:       "blood-panel.pdf",
		FileURL:     "https://files.example.com/patients/blood-panel.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		Readings:    &health.VitalReading{SystolicBP: health.Float(142), SugarLevel: health.Float(0)},
	}
}

func TestCreateReportBySelf(t *testing.T) {
	f := newReportFixture()

	r, err := f.svc.CreateReport(context.Background(), f.validCommand(), f.self)
	require.NoError(t, err)
	assert.Equal(t, f.self.UserID, r.UploadedBy)
	assert.True(t, r.HasReadings())
	assert.Equal(t, []uuid.UUID{f.patient.ID}, f.invalidator.patients)
	assert.Empty(t, f.notifier.sent)
}

func TestCreateReportByDoctorNotifiesPatient(t *testing.T) {
	f := newReportFixture()
	cmd := f.validCommand()
	cmd.Readings = &health.VitalReading{}

	r, err := f.svc.CreateReport(context.Background(), cmd, f.doctor)
	require.NoError(t, err)
	assert.Nil(t, r.Readings)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, *f.patient.UserID, f.notifier.sent[0].UserID)
	assert.Equal(t, notify.TypeReport, f.notifier.sent[0].Type)
}

func TestCreateReportValidation(t *testing.T) {
	f := newReportFixture()
	cmd := &report.CreateReportCommand{
		PatientID:   f.patient.ID,
		FileURL:     "ftp://files/lab.pdf",
		ContentType: "text/plain",
		SizeBytes:   report.MaxSizeBytes + 1,
		Readings:    &health.VitalReading{PulseRate: health.Float(-4)},
	}

	_, err := f.svc.CreateReport(context.Background(), cmd, f.self)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 5)
	assert.Empty(t, f.invalidator.patients)
}

func TestCreateReportForOtherPatientForbidden(t *testing.T) {
	f := newReportFixture()
	other := uuid.New()
	caller := domain.Caller{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &other}

	_, err := f.svc.CreateReport(context.Background(), f.validCommand(), caller)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateReadingsAndDelete(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	r, err := f.svc.CreateReport(ctx, f.validCommand(), f.self)
	require.NoError(t, err)

	_, err = f.svc.UpdateReadings(ctx, r.ID, &report.UpdateReadingsCommand{
		Readings: &health.VitalReading{SugarLevel: health.Float(-1)},
	}, f.doctor)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	updated, err := f.svc.UpdateReadings(ctx, r.ID, &report.UpdateReadingsCommand{
		Readings: &health.VitalReading{PulseRate: health.Float(110)},
	}, f.doctor)
	require.NoError(t, err)
	assert.Equal(t, 110.0, *updated.Readings.PulseRate)

	stranger := domain.Caller{UserID: uuid.New(), Role: domain.RoleDoctor}
	assert.ErrorIs(t, f.svc.DeleteReport(ctx, r.ID, stranger), ErrForbidden)
	require.NoError(t, f.svc.DeleteReport(ctx, r.ID, f.self))

	_, err = f.svc.GetReport(ctx, r.ID, f.self)
	assert.ErrorIs(t, err, report.ErrReportNotFound)
	assert.Len(t, f.invalidator.patients, 3)
}
