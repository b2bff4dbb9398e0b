package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/appointment"
	"github.com/project-mc/server/internal/domain/document"
	"github.com/project-mc/server/internal/domain/share"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/pkg/metrics"
)

// One collector per test binary; prometheus panics on duplicate
// registration.
var testCollector = metrics.NewCollector("projectmc_test")

func newTestAudit() *AuditService {
	return NewAuditService(nopAuditRepo{}, zap.NewNop(), testCollector)
}

type nopAuditRepo struct{}

func (nopAuditRepo) Create(context.Context, *domain.AuditLog) error { return nil }

// memFolderRepo is an in-memory drive.FolderRepository used to exercise
// the drive flows without a database.
type memFolderRepo struct {
	mu      sync.Mutex
	folders map[uuid.UUID]*drive.Folder
}

func newMemFolderRepo() *memFolderRepo {
	return &memFolderRepo{folders: make(map[uuid.UUID]*drive.Folder)}
}

func sameScope(f *drive.Folder, ownerID uuid.UUID, patientID *uuid.UUID) bool {
	if f.OwnerID != ownerID {
		return false
	}
	if patientID == nil {
		return f.PatientID == nil
	}
	return f.PatientID != nil && *f.PatientID == *patientID
}

func (r *memFolderRepo) Create(_ context.Context, f *drive.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.folders {
		if sameScope(existing, f.OwnerID, f.PatientID) && existing.FullPath == f.FullPath {
			return drive.ErrFolderAlreadyExists
		}
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.folders[f.ID] = f
	return nil
}

func (r *memFolderRepo) ResolveByPath(_ context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath string) (*drive.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if sameScope(f, ownerID, patientID) && f.FullPath == fullPath {
			return f, nil
		}
	}
	return nil, drive.ErrFolderNotFound
}

func (r *memFolderRepo) ListChildren(_ context.Context, ownerID uuid.UUID, patientID *uuid.UUID, parentID *uuid.UUID) ([]*drive.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*drive.Folder
	for _, f := range r.folders {
		if !sameScope(f, ownerID, patientID) {
			continue
		}
		if parentID == nil && f.ParentID == nil {
			out = append(out, f)
		} else if parentID != nil && f.ParentID != nil && *f.ParentID == *parentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memFolderRepo) DescendantPaths(_ context.Context, ownerID uuid.UUID, patientID *uuid.UUID, rootPath string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for _, f := range r.folders {
		if sameScope(f, ownerID, patientID) && drive.WithinSubtree(rootPath, f.FullPath) {
			paths = append(paths, f.FullPath)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *memFolderRepo) DeleteSubtree(_ context.Context, ownerID uuid.UUID, patientID *uuid.UUID, rootPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.folders {
		if sameScope(f, ownerID, patientID) && drive.WithinSubtree(rootPath, f.FullPath) {
			delete(r.folders, id)
		}
	}
	return nil
}

// memShareRepo is an in-memory share.Repository.
type memShareRepo struct {
	mu     sync.Mutex
	shares []*share.Share
}

func (r *memShareRepo) Create(_ context.Context, s *share.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.shares = append(r.shares, s)
	return nil
}

func (r *memShareRepo) GetByPathForRecipient(_ context.Context, path, email string, ownerID uuid.UUID) (*share.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.shares) - 1; i >= 0; i-- {
		s := r.shares[i]
		if s.Path == path && (s.TargetEmail == email || s.OwnerID == ownerID) {
			return s, nil
		}
	}
	return nil, share.ErrShareNotFound
}

func (r *memShareRepo) ListForRecipient(_ context.Context, email string) ([]*share.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*share.Share
	for i := len(r.shares) - 1; i >= 0; i-- {
		if r.shares[i].TargetEmail == email {
			out = append(out, r.shares[i])
		}
	}
	return out, nil
}

func (r *memShareRepo) DeleteByPathPrefix(_ context.Context, ownerID uuid.UUID, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.shares[:0]
	for _, s := range r.shares {
		if s.OwnerID == ownerID && drive.WithinSubtree(prefix, s.Path) {
			continue
		}
		kept = append(kept, s)
	}
	r.shares = kept
	return nil
}

// fakeMailer records outgoing share emails.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // recipient emails
	links [][]string
	err   error
}

func (m *fakeMailer) SendShareLinks(_ context.Context, toEmail, _ string, links []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, toEmail)
	m.links = append(m.links, links)
	return nil
}

// memAppointmentRepo is an in-memory appointment.Repository.
type memAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*appointment.Appointment
	files        map[uuid.UUID]*appointment.File
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{
		appointments: make(map[uuid.UUID]*appointment.Appointment),
		files:        make(map[uuid.UUID]*appointment.File),
	}
}

func (r *memAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.appointments[a.ID] = a
	return nil
}

func (r *memAppointmentRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.OwnerID != ownerID {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a, nil
}

func (r *memAppointmentRepo) Update(ctx context.Context, ownerID, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	a, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd.Title != nil {
		a.Title = *cmd.Title
	}
	if cmd.Notes != nil {
		a.Notes = *cmd.Notes
	}
	if cmd.StartAt != nil {
		a.StartAt = *cmd.StartAt
	}
	if cmd.EndAt != nil {
		a.EndAt = *cmd.EndAt
	}
	if cmd.AllDay != nil {
		a.AllDay = *cmd.AllDay
	}
	return a, nil
}

func (r *memAppointmentRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, ownerID, id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.appointments, id)
	return nil
}

func (r *memAppointmentRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.appointments {
		if a.OwnerID != q.OwnerID {
			continue
		}
		if q.PatientID == nil && a.PatientID != nil {
			continue
		}
		if q.PatientID != nil && (a.PatientID == nil || *a.PatientID != *q.PatientID) {
			continue
		}
		if !(a.StartAt.Before(q.To) && a.EndAt.After(q.From)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out, nil
}

func (r *memAppointmentRepo) AttachFile(_ context.Context, f *appointment.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.files[f.ID] = f
	return nil
}

func (r *memAppointmentRepo) ListFiles(_ context.Context, ownerID, appointmentID uuid.UUID) ([]*appointment.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*appointment.File
	for _, f := range r.files {
		if f.OwnerID == ownerID && f.AppointmentID == appointmentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (r *memAppointmentRepo) DeleteFile(_ context.Context, ownerID, fileID uuid.UUID) (*appointment.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.OwnerID != ownerID {
		return nil, appointment.ErrFileNotFound
	}
	delete(r.files, fileID)
	return f, nil
}

// memDocumentRepo is an in-memory document.Repository.
type memDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*document.Document
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: make(map[uuid.UUID]*document.Document)}
}

func (r *memDocumentRepo) Create(_ context.Context, d *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	r.docs[d.ID] = d
	return nil
}

func (r *memDocumentRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OwnerID != ownerID {
		return nil, document.ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDocumentRepo) List(_ context.Context, q *document.ListDocumentsQuery) ([]*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*document.Document
	for _, d := range r.docs {
		if d.OwnerID != q.OwnerID {
			continue
		}
		if q.PatientID == nil && d.PatientID != nil {
			continue
		}
		if q.PatientID != nil && (d.PatientID == nil || *d.PatientID != *q.PatientID) {
			continue
		}
		if q.Status != nil && d.Status != *q.Status {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memDocumentRepo) SetText(_ context.Context, ownerID, id uuid.UUID, text *string, status document.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OwnerID != ownerID {
		return document.ErrDocumentNotFound
	}
	d.Text = text
	d.Status = status
	return nil
}

func (r *memDocumentRepo) Reassign(_ context.Context, ownerID, id uuid.UUID, patientID *uuid.UUID, storageKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OwnerID != ownerID {
		return document.ErrDocumentNotFound
	}
	d.PatientID = patientID
	d.StorageKey = storageKey
	return nil
}

func (r *memDocumentRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OwnerID != ownerID {
		return document.ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

// fakeExtractor returns canned responses for the language API.
type fakeExtractor struct {
	extracted  string
	extractErr error
	summary    string
	translated string
	answer     string
}

func (f *fakeExtractor) ExtractText(context.Context, []byte, string) (string, error) {
	return f.extracted, f.extractErr
}

func (f *fakeExtractor) Summarize(context.Context, string, string) (string, error) {
	return f.summary, nil
}

func (f *fakeExtractor) Translate(context.Context, string, string) (string, error) {
	return f.translated, nil
}

func (f *fakeExtractor) Chat(context.Context, string, []string) (string, error) {
	return f.answer, nil
}
