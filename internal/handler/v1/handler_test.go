package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/appointment"
	"github.com/manulsahu/MediSight/internal/domain/medication"
	"github.com/manulsahu/MediSight/internal/domain/message"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/handler/middleware"
	"github.com/manulsahu/MediSight/internal/health"
	"github.com/manulsahu/MediSight/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPatients struct{ mock.Mock }

func (m *mockPatients) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller domain.Caller) (*patient.Patient, error) {
	args := m.Called(ctx, cmd, caller)
	p, _ := args.Get(0).(*patient.Patient)
	return p, args.Error(1)
}

func (m *mockPatients) GetPatient(ctx context.Context, id uuid.UUID, caller domain.Caller) (*patient.Patient, error) {
	args := m.Called(ctx, id, caller)
	p, _ := args.Get(0).(*patient.Patient)
	return p, args.Error(1)
}

func (m *mockPatients) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller domain.Caller) (*patient.Patient, error) {
	args := m.Called(ctx, id, cmd, caller)
	p, _ := args.Get(0).(*patient.Patient)
	return p, args.Error(1)
}

func (m *mockPatients) DeactivatePatient(ctx context.Context, id uuid.UUID, caller domain.Caller) error {
	return m.Called(ctx, id, caller).Error(0)
}

func (m *mockPatients) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, caller domain.Caller) (*patient.PagedPatients, error) {
	args := m.Called(ctx, q, caller)
	p, _ := args.Get(0).(*patient.PagedPatients)
	return p, args.Error(1)
}

type mockInsights struct{ mock.Mock }

func (m *mockInsights) AnalyzePatient(ctx context.Context, patientID uuid.UUID, caller domain.Caller) (*service.Insight, error) {
	args := m.Called(ctx, patientID, caller)
	i, _ := args.Get(0).(*service.Insight)
	return i, args.Error(1)
}

type mockMessages struct{ mock.Mock }

func (m *mockMessages) SendMessage(ctx context.Context, cmd *message.SendMessageCommand, caller domain.Caller) (*message.Message, error) {
	args := m.Called(ctx, cmd, caller)
	msg, _ := args.Get(0).(*message.Message)
	return msg, args.Error(1)
}

func (m *mockMessages) ListConversations(ctx context.Context, caller domain.Caller) ([]*message.Conversation, error) {
	args := m.Called(ctx, caller)
	c, _ := args.Get(0).([]*message.Conversation)
	return c, args.Error(1)
}

func (m *mockMessages) ListMessages(ctx context.Context, id string, before *time.Time, limit int, caller domain.Caller) ([]*message.Message, error) {
	args := m.Called(ctx, id, before, limit, caller)
	msgs, _ := args.Get(0).([]*message.Message)
	return msgs, args.Error(1)
}

func (m *mockMessages) MarkRead(ctx context.Context, id string, caller domain.Caller) (int64, error) {
	args := m.Called(ctx, id, caller)
	return args.Get(0).(int64), args.Error(1)
}

type scheduleStub struct {
	MedicationService
	gotDay time.Time
}

func (s *scheduleStub) DailySchedule(_ context.Context, _ uuid.UUID, day time.Time, _ domain.Caller) ([]medication.ScheduleEntry, error) {
	s.gotDay = day
	return []medication.ScheduleEntry{{Name: "Metformin", Time: "08:00"}}, nil
}

func withCaller(caller domain.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetCaller(c, caller)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func patientCaller() domain.Caller {
	pid := uuid.New()
	return domain.Caller{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &pid}
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{patient.ErrPatientNotFound, http.StatusNotFound},
		{medication.ErrMedicationNotFound, http.StatusNotFound},
		{domain.ErrEmailTaken, http.StatusConflict},
		{appointment.ErrAppointmentConflict, http.StatusConflict},
		{appointment.ErrInvalidStatusTransition, http.StatusBadRequest},
		{message.ErrMessageTooLong, http.StatusBadRequest},
		{message.ErrNotParticipant, http.StatusForbidden},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrAccountLocked, http.StatusTooManyRequests},
		{&service.ValidationError{Fields: []string{"title is required"}}, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondServiceError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestPatientMe(t *testing.T) {
	caller := patientCaller()
	svc := &mockPatients{}
	svc.On("GetPatient", mock.Anything, *caller.PatientID, caller).
		Return(&patient.Patient{ID: *caller.PatientID, FirstName: "Asha"}, nil)

	h := NewPatientHandler(svc)
	r := gin.New()
	r.GET("/patients/me", withCaller(caller), h.Me)

	w := doJSON(r, http.MethodGet, "/patients/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"first_name":"Asha"`)
	svc.AssertExpectations(t)

	r = gin.New()
	r.GET("/patients/me", withCaller(domain.Caller{UserID: uuid.New(), Role: domain.RoleDoctor}), h.Me)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/patients/me", nil).Code)
}

func TestPatientGetRejectsBadUUID(t *testing.T) {
	h := NewPatientHandler(&mockPatients{})
	r := gin.New()
	r.GET("/patients/:id", withCaller(patientCaller()), h.Get)

	w := doJSON(r, http.MethodGet, "/patients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatientListPassesFilters(t *testing.T) {
	caller := domain.Caller{UserID: uuid.New(), Role: domain.RoleDoctor}
	doctorID := uuid.New()
	svc := &mockPatients{}
	svc.On("ListPatients", mock.Anything, mock.MatchedBy(func(q *patient.ListPatientsQuery) bool {
		return q.Search == "sharma" && q.Status != nil && *q.Status == patient.StatusActive &&
			q.AssignedDoctorID != nil && *q.AssignedDoctorID == doctorID && q.Page == 2
	}), caller).Return(&patient.PagedPatients{Patients: []*patient.Patient{}}, nil)

	r := gin.New()
	r.GET("/patients", withCaller(caller), NewPatientHandler(svc).List)

	w := doJSON(r, http.MethodGet, "/patients?search=sharma&status=active&page=2&doctor_id="+doctorID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestInsights(t *testing.T) {
	caller := patientCaller()
	entry, _ := health.Lookup(health.HighBP)

	svc := &mockInsights{}
	svc.On("AnalyzePatient", mock.Anything, *caller.PatientID, caller).Return(&service.Insight{
		PatientID:   *caller.PatientID,
		ReportCount: 3,
		Counts:      health.Counts{BP: 3},
		Suggestions: []health.SuggestionEntry{entry},
	}, nil)

	r := gin.New()
	r.GET("/patients/:id/insights", withCaller(caller), NewReportHandler(nil, svc).Insights)

	w := doJSON(r, http.MethodGet, "/patients/"+caller.PatientID.String()+"/insights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data service.Insight `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Counts.BP)
	require.Len(t, resp.Data.Suggestions, 1)
	assert.Equal(t, "High Blood Pressure", resp.Data.Suggestions[0].Label)
}

func TestInsightsForbidden(t *testing.T) {
	caller := patientCaller()
	other := uuid.New()
	svc := &mockInsights{}
	svc.On("AnalyzePatient", mock.Anything, other, caller).Return(nil, service.ErrForbidden)

	r := gin.New()
	r.GET("/patients/:id/insights", withCaller(caller), NewReportHandler(nil, svc).Insights)

	w := doJSON(r, http.MethodGet, "/patients/"+other.String()+"/insights", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestScheduleDefaultsToToday(t *testing.T) {
	caller := patientCaller()
	stub := &scheduleStub{}
	h := NewMedicationHandler(stub)
	h.now = func() time.Time { return time.Date(2026, time.May, 4, 22, 30, 0, 0, time.UTC) }

	r := gin.New()
	r.GET("/patients/:id/schedule", withCaller(caller), h.Schedule)

	w := doJSON(r, http.MethodGet, "/patients/"+caller.PatientID.String()+"/schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2026-05-04"`)
	assert.Equal(t, time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC), stub.gotDay)

	w = doJSON(r, http.MethodGet, "/patients/"+caller.PatientID.String()+"/schedule?date=2026-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage(t *testing.T) {
	caller := patientCaller()
	recipient := uuid.New()
	svc := &mockMessages{}
	svc.On("SendMessage", mock.Anything, &message.SendMessageCommand{RecipientID: recipient, Body: "hello doctor"}, caller).
		Return(&message.Message{ID: uuid.New(), RecipientID: recipient, Body: "hello doctor"}, nil)

	r := gin.New()
	r.POST("/messages", withCaller(caller), NewMessageHandler(svc).Send)

	w := doJSON(r, http.MethodPost, "/messages", gin.H{"recipient_id": recipient, "body": "hello doctor"})
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)

	w = doJSON(r, http.MethodPost, "/messages", gin.H{"body": "no recipient"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessagesNotParticipant(t *testing.T) {
	caller := patientCaller()
	svc := &mockMessages{}
	svc.On("ListMessages", mock.Anything, "a_b", (*time.Time)(nil), 0, caller).Return(nil, message.ErrNotParticipant)

	r := gin.New()
	r.GET("/conversations/:id/messages", withCaller(caller), NewMessageHandler(svc).Messages)

	w := doJSON(r, http.MethodGet, "/conversations/a_b/messages", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	ok := NewHealthHandler("1.2.3", map[string]Check{
		"postgres": func(context.Context) error { return nil },
	})
	r := gin.New()
	r.GET("/healthz", ok.Health)
	w := doJSON(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)

	bad := NewHealthHandler("1.2.3", map[string]Check{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	r = gin.New()
	r.GET("/healthz", bad.Health)
	w = doJSON(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
