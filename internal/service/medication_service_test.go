package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/medication"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/notify"
)

type medicationFixture struct {
	svc      *MedicationService
	repo     *memMedications
	notifier *recordingNotifier
	patient  *patient.Patient
	self     domain.Caller
	doctor   domain.Caller
	today    time.Time
}

func newMedicationFixture() *medicationFixture {
	userID := uuid.New()
	p := &patient.Patient{ID: uuid.New(), UserID: &userID, FirstName: "Arjun", LastName: "Mehta", Status: patient.StatusActive}
	repo := newMemMedications()
	n := &recordingNotifier{}
	audit, _ := testAudit()

	svc := NewMedicationService(repo, newMemPatients(p), audit, n, nil, zap.NewNop())
	today := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return today }

	doctorID := uuid.New()
	return &medicationFixture{
		svc:      svc,
		repo:     repo,
		notifier: n,
		patient:  p,
		self:     domain.Caller{UserID: userID, Role: domain.RolePatient, PatientID: &p.ID},
		doctor:   domain.Caller{UserID: uuid.New(), Role: domain.RoleDoctor, DoctorID: &doctorID},
		today:    today,
	}
}

func (f *medicationFixture) add(t *testing.T, cmd medication.CreateMedicationCommand) *medication.Medication {
	t.Helper()
	cmd.PatientID = f.patient.ID
	m, err := f.svc.AddMedication(context.Background(), &cmd, f.doctor)
	require.NoError(t, err)
	return m
}

func TestAddMedicationDefaultsTimes(t *testing.T) {
	f := newMedicationFixture()
	m := f.add(t, medication.CreateMedicationCommand{Name: "Metformin", Dosage: "500mg", Frequency: medication.FrequencyTwiceDaily})

	assert.Equal(t, []string{"08:00", "20:00"}, m.Times)
	assert.True(t, m.Active)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, *f.patient.UserID, f.notifier.sent[0].UserID)
	assert.Equal(t, notify.TypeMedication, f.notifier.sent[0].Type)
}

func TestAddMedicationSortsAndDedupesTimes(t *testing.T) {
	f := newMedicationFixture()
	m := f.add(t, medication.CreateMedicationCommand{
		Name: "Amlodipine", Dosage: "5mg", Frequency: medication.FrequencyThreeTimesDaily,
		Times: []string{"21:00", "07:30", "21:00", "13:00"},
	})
	assert.Equal(t, []string{"07:30", "13:00", "21:00"}, m.Times)
}

func TestAddMedicationRules(t *testing.T) {
	f := newMedicationFixture()
	ctx := context.Background()

	_, err := f.svc.AddMedication(ctx, &medication.CreateMedicationCommand{
		PatientID: f.patient.ID, Name: "X", Dosage: "1", Frequency: medication.FrequencyOnceDaily,
	}, f.self)
	assert.ErrorIs(t, err, ErrForbidden)

	start := f.today
	end := f.today.AddDate(0, 0, -1)
	_, err = f.svc.AddMedication(ctx, &medication.CreateMedicationCommand{
		PatientID: f.patient.ID, Name: "", Dosage: "1", Frequency: "hourly",
		Times: []string{"8am"}, StartDate: &start, EndDate: &end,
	}, f.doctor)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 4)
}

func TestDailyScheduleAndMarkDose(t *testing.T) {
	f := newMedicationFixture()
	ctx := context.Background()
	metformin := f.add(t, medication.CreateMedicationCommand{Name: "Metformin", Dosage: "500mg", Frequency: medication.FrequencyTwiceDaily})
	f.add(t, medication.CreateMedicationCommand{Name: "Ibuprofen", Dosage: "200mg", Frequency: medication.FrequencyAsNeeded})

	day := medication.Day(f.today)
	require.NoError(t, f.svc.MarkDoseTaken(ctx, metformin.ID, &medication.MarkDoseCommand{Day: day, Time: "08:00"}, f.self))
	// Idempotent.
	require.NoError(t, f.svc.MarkDoseTaken(ctx, metformin.ID, &medication.MarkDoseCommand{Day: day, Time: "08:00"}, f.self))

	entries, err := f.svc.DailySchedule(ctx, f.patient.ID, day, f.self)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "08:00", entries[0].Time)
	assert.True(t, entries[0].Taken)
	assert.Equal(t, "20:00", entries[1].Time)
	assert.False(t, entries[1].Taken)
	assert.Len(t, f.repo.doses, 1)
}

func TestMarkDoseTakenRules(t *testing.T) {
	f := newMedicationFixture()
	ctx := context.Background()
	m := f.add(t, medication.CreateMedicationCommand{Name: "Metformin", Dosage: "500mg", Frequency: medication.FrequencyOnceDaily})
	day := medication.Day(f.today)

	err := f.svc.MarkDoseTaken(ctx, m.ID, &medication.MarkDoseCommand{Day: day, Time: "08:00"}, f.doctor)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.svc.MarkDoseTaken(ctx, m.ID, &medication.MarkDoseCommand{Day: day, Time: "8"}, f.self)
	assert.ErrorIs(t, err, medication.ErrInvalidDoseTime)

	err = f.svc.MarkDoseTaken(ctx, m.ID, &medication.MarkDoseCommand{Day: day, Time: "09:00"}, f.self)
	assert.ErrorIs(t, err, medication.ErrDoseNotScheduled)

	err = f.svc.MarkDoseTaken(ctx, m.ID, &medication.MarkDoseCommand{Day: day.AddDate(0, 0, 1), Time: "08:00"}, f.self)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	err = f.svc.MarkDoseTaken(ctx, uuid.New(), &medication.MarkDoseCommand{Day: day, Time: "08:00"}, f.self)
	assert.ErrorIs(t, err, medication.ErrMedicationNotFound)
}

func TestWeeklyDoseFollowsUTCStartDay(t *testing.T) {
	f := newMedicationFixture()
	ctx := context.Background()

	// Monday 22:00 at -05:00 is Tuesday 03:00 UTC; the fixture's today is a Tuesday.
	start := time.Date(2026, time.March, 2, 22, 0, 0, 0, time.FixedZone("EST", -5*60*60))
	m := f.add(t, medication.CreateMedicationCommand{
		Name: "Methotrexate", Dosage: "7.5mg", Frequency: medication.FrequencyWeekly, StartDate: &start,
	})

	day := medication.Day(f.today)
	require.NoError(t, f.svc.MarkDoseTaken(ctx, m.ID, &medication.MarkDoseCommand{Day: day, Time: "08:00"}, f.self))

	entries, err := f.svc.DailySchedule(ctx, f.patient.ID, day, f.self)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Taken)

	entries, err = f.svc.DailySchedule(ctx, f.patient.ID, day.AddDate(0, 0, -1), f.self)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListMedicationsScopedToOwner(t *testing.T) {
	f := newMedicationFixture()
	other := uuid.New()

	_, err := f.svc.ListMedications(context.Background(), f.patient.ID, false,
		domain.Caller{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &other})
	assert.ErrorIs(t, err, ErrForbidden)
}
