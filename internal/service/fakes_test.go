package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/internal/domain/medication"
	"github.com/manulsahu/MediSight/internal/domain/message"
	"github.com/manulsahu/MediSight/internal/domain/patient"
	"github.com/manulsahu/MediSight/internal/domain/report"
	"github.com/manulsahu/MediSight/internal/health"
	"github.com/manulsahu/MediSight/internal/notify"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *memAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memAuditRepo) all() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.AuditLog(nil), r.entries...)
}

func testAudit() (*AuditService, *memAuditRepo) {
	repo := &memAuditRepo{}
	return newAuditService(repo, zap.NewNop(), nil, 64), repo
}

type sentNotification struct {
	UserID uuid.UUID
	notify.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, msg notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Notification: msg})
}

type memPatients struct {
	byID map[uuid.UUID]*patient.Patient
}

func newMemPatients(ps ...*patient.Patient) *memPatients {
	m := &memPatients{byID: make(map[uuid.UUID]*patient.Patient)}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memPatients) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (m *memPatients) Update(ctx context.Context, id uuid.UUID, _ *patient.UpdatePatientCommand) (*patient.Patient, error) {
	return m.GetByID(ctx, id)
}

func (m *memPatients) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := m.byID[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.Status = patient.StatusInactive
	return nil
}

func (m *memPatients) List(context.Context, *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	return &patient.PagedPatients{}, nil
}

type memReports struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*report.Report
	listed  int
	listErr error
}

func newMemReports(rs ...*report.Report) *memReports {
	m := &memReports{byID: make(map[uuid.UUID]*report.Report)}
	for _, r := range rs {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		m.byID[r.ID] = r
	}
	return m
}

func (m *memReports) Create(_ context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.byID[r.ID] = r
	return nil
}

func (m *memReports) GetByID(_ context.Context, id uuid.UUID) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	return r, nil
}

func (m *memReports) List(context.Context, *report.ListReportsQuery) (*report.PagedReports, error) {
	return &report.PagedReports{}, nil
}

func (m *memReports) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*report.Report, 0)
	for _, r := range m.byID {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.Before(out[j].ReportDate) })
	return out, nil
}

func (m *memReports) UpdateReadings(_ context.Context, id uuid.UUID, v *health.VitalReading) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, report.ErrReportNotFound
	}
	r.Readings = v
	return r, nil
}

func (m *memReports) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return report.ErrReportNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memReports) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listed
}

type memMedications struct {
	meds  map[uuid.UUID]*medication.Medication
	doses map[string]*medication.DoseLog
}

func newMemMedications() *memMedications {
	return &memMedications{
		meds:  make(map[uuid.UUID]*medication.Medication),
		doses: make(map[string]*medication.DoseLog),
	}
}

func (m *memMedications) Create(_ context.Context, med *medication.Medication) error {
	if med.ID == uuid.Nil {
		med.ID = uuid.New()
	}
	if med.CreatedAt.IsZero() {
		med.CreatedAt = time.Now().UTC()
	}
	m.meds[med.ID] = med
	return nil
}

func (m *memMedications) GetByID(_ context.Context, id uuid.UUID) (*medication.Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, medication.ErrMedicationNotFound
	}
	return med, nil
}

func (m *memMedications) Update(ctx context.Context, id uuid.UUID, cmd *medication.UpdateMedicationCommand) (*medication.Medication, error) {
	med, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Times != nil {
		med.Times = *cmd.Times
	}
	if cmd.Active != nil {
		med.Active = *cmd.Active
	}
	if cmd.Frequency != nil {
		med.Frequency = *cmd.Frequency
	}
	return med, nil
}

func (m *memMedications) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.meds[id]; !ok {
		return medication.ErrMedicationNotFound
	}
	delete(m.meds, id)
	return nil
}

func (m *memMedications) ListByPatient(_ context.Context, patientID uuid.UUID, activeOnly bool) ([]*medication.Medication, error) {
	out := make([]*medication.Medication, 0)
	for _, med := range m.meds {
		if med.PatientID == patientID && (!activeOnly || med.Active) {
			out = append(out, med)
		}
	}
	return out, nil
}

func doseKey(l *medication.DoseLog) string {
	return l.MedicationID.String() + l.Day.Format("2006-01-02") + l.Time
}

func (m *memMedications) RecordDose(_ context.Context, l *medication.DoseLog) error {
	if _, ok := m.doses[doseKey(l)]; !ok {
		m.doses[doseKey(l)] = l
	}
	return nil
}

func (m *memMedications) ListDoses(_ context.Context, patientID uuid.UUID, day time.Time) ([]*medication.DoseLog, error) {
	out := make([]*medication.DoseLog, 0)
	for _, l := range m.doses {
		if l.PatientID == patientID && l.Day.Equal(day) {
			out = append(out, l)
		}
	}
	return out, nil
}

type memMessages struct {
	convs map[string]*message.Conversation
	msgs  []*message.Message
}

func newMemMessages() *memMessages {
	return &memMessages{convs: make(map[string]*message.Conversation)}
}

func (m *memMessages) Append(_ context.Context, conv *message.Conversation, msg *message.Message) error {
	if existing, ok := m.convs[conv.ID]; ok {
		existing.LastMessage = conv.LastMessage
		existing.LastMessageAt = conv.LastMessageAt
	} else {
		m.convs[conv.ID] = conv
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *memMessages) GetConversation(_ context.Context, id string) (*message.Conversation, error) {
	c, ok := m.convs[id]
	if !ok {
		return nil, message.ErrConversationNotFound
	}
	return c, nil
}

func (m *memMessages) ListConversations(_ context.Context, userID uuid.UUID) ([]*message.Conversation, error) {
	out := make([]*message.Conversation, 0)
	for _, c := range m.convs {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memMessages) ListMessages(_ context.Context, q *message.ListMessagesQuery) ([]*message.Message, error) {
	out := make([]*message.Message, 0)
	for i := len(m.msgs) - 1; i >= 0 && len(out) < q.Limit; i-- {
		if m.msgs[i].ConversationID == q.ConversationID {
			out = append(out, m.msgs[i])
		}
	}
	return out, nil
}

func (m *memMessages) MarkRead(_ context.Context, conversationID string, readerID uuid.UUID) (int64, error) {
	var n int64
	now := time.Now().UTC()
	for _, msg := range m.msgs {
		if msg.ConversationID == conversationID && msg.RecipientID == readerID && msg.ReadAt == nil {
			msg.ReadAt = &now
			n++
		}
	}
	return n, nil
}

type memUsers map[uuid.UUID]*domain.User

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func ptr[T any](v T) *T { return &v }
