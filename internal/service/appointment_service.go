package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/appointment"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/realtime"
	"github.com/project-mc/server/internal/schedule"
	"github.com/project-mc/server/pkg/metrics"
)

type AppointmentService struct {
	repo     appointment.Repository
	store    drive.ObjectStore
	auditSvc *AuditService
	notifier realtime.Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	store drive.ObjectStore,
	auditSvc *AuditService,
	notifier realtime.Notifier,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:     repo,
		store:    store,
		auditSvc: auditSvc,
		notifier: notifier,
		metrics:  collector,
		log:      log,
	}
}

func (s *AppointmentService) CreateAppointment(ctx context.Context, cmd *appointment.CreateAppointmentCommand, ip string) (*appointment.Appointment, error) {
	if err := validateAppointment(cmd.Title, cmd.StartAt, cmd.EndAt); err != nil {
		return nil, err
	}

	a := &appointment.Appointment{
		OwnerID:   cmd.OwnerID,
		PatientID: cmd.PatientID,
		Title:     strings.TrimSpace(cmd.Title),
		Notes:     cmd.Notes,
		StartAt:   cmd.StartAt,
		EndAt:     cmd.EndAt,
		AllDay:    cmd.AllDay,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.metrics.AppointmentsCreated.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       cmd.OwnerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("appointments", realtime.ActionInsert, a.ID.String(), cmd.OwnerID))

	s.log.Info("appointment created",
		zap.String("appointment_id", a.ID.String()),
		zap.Time("start_at", a.StartAt),
	)

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, ownerID, id uuid.UUID) (*appointment.Appointment, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *AppointmentService) UpdateAppointment(ctx context.Context, ownerID, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand, ip string) (*appointment.Appointment, error) {
	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	title := current.Title
	if cmd.Title != nil {
		title = *cmd.Title
	}
	start, end := current.StartAt, current.EndAt
	if cmd.StartAt != nil {
		start = *cmd.StartAt
	}
	if cmd.EndAt != nil {
		end = *cmd.EndAt
	}
	if err := validateAppointment(title, start, end); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, ownerID, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionUpdate),
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("appointments", realtime.ActionUpdate, id.String(), ownerID))

	return updated, nil
}

func (s *AppointmentService) DeleteAppointment(ctx context.Context, ownerID, id uuid.UUID, ip string) error {
	// Attachment blobs go first so a failed object delete leaves the
	// records intact and retryable.
	files, err := s.repo.ListFiles(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		keys := make([]string, 0, len(files))
		for _, f := range files {
			keys = append(keys, f.StorageKey)
		}
		if err := s.store.Remove(ctx, keys); err != nil {
			return fmt.Errorf("removing attachments: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("appointments", realtime.ActionDelete, id.String(), ownerID))

	return nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	if !q.To.After(q.From) {
		return nil, appointment.ErrInvalidTimeRange
	}
	return s.repo.List(ctx, q)
}

// GetDayView returns the appointments intersecting the given calendar day
// along with the column layout for the timed ones. All-day entries are
// included in the list but never packed into columns.
func (s *AppointmentService) GetDayView(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, date time.Time) (*appointment.DayView, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	appointments, err := s.repo.List(ctx, &appointment.ListAppointmentsQuery{
		OwnerID:   ownerID,
		PatientID: patientID,
		From:      dayStart,
		To:        dayEnd,
	})
	if err != nil {
		return nil, err
	}

	events := make([]schedule.Event, 0, len(appointments))
	for _, a := range appointments {
		if a.AllDay {
			continue
		}
		events = append(events, a.LayoutEvent())
	}

	return &appointment.DayView{
		Date:         dayStart,
		Appointments: appointments,
		Layout:       schedule.LayoutDay(events),
	}, nil
}

// AttachFile uploads the content and records the attachment. The blob is
// keyed under the appointment's scope so drive-style cleanup can find it.
func (s *AppointmentService) AttachFile(ctx context.Context, ownerID, appointmentID uuid.UUID, fileName string, body io.Reader, contentType string, ip string) (*appointment.File, error) {
	a, err := s.repo.GetByID(ctx, ownerID, appointmentID)
	if err != nil {
		return nil, err
	}

	fileName = strings.TrimSpace(fileName)
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, &ValidationError{Fields: []string{"file_name is invalid"}}
	}

	loc := drive.Location{OwnerID: ownerID.String()}
	if a.PatientID != nil {
		loc.PatientID = a.PatientID.String()
	}
	key := loc.In("appointments").In(a.ID.String()).File(fileName).Key()

	if err := s.store.Upload(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("uploading attachment: %w", err)
	}

	f := &appointment.File{
		AppointmentID: a.ID,
		OwnerID:       ownerID,
		FileName:      fileName,
		StorageKey:    key,
	}
	if err := s.repo.AttachFile(ctx, f); err != nil {
		// Roll the blob back so the store does not accumulate orphans.
		_ = s.store.Remove(ctx, []string{key})
		return nil, fmt.Errorf("recording attachment: %w", err)
	}

	s.metrics.UploadsTotal.WithLabelValues("appointment").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "appointment_file",
		ResourceID:   f.ID.String(),
		IPAddress:    ip,
	})

	return f, nil
}

func (s *AppointmentService) ListFiles(ctx context.Context, ownerID, appointmentID uuid.UUID) ([]*appointment.File, error) {
	if _, err := s.repo.GetByID(ctx, ownerID, appointmentID); err != nil {
		return nil, err
	}
	return s.repo.ListFiles(ctx, ownerID, appointmentID)
}

// FileDownloadURL mints a short-lived signed URL for an attachment.
func (s *AppointmentService) FileDownloadURL(ctx context.Context, ownerID, appointmentID, fileID uuid.UUID) (string, error) {
	files, err := s.repo.ListFiles(ctx, ownerID, appointmentID)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.ID == fileID {
			url, err := s.store.SignedURL(ctx, f.StorageKey, drive.DownloadURLTTL)
			if err != nil {
				return "", fmt.Errorf("signing url: %w", err)
			}
			s.metrics.SignedURLsIssued.WithLabelValues("download").Inc()
			return url, nil
		}
	}
	return "", appointment.ErrFileNotFound
}

func (s *AppointmentService) DeleteFile(ctx context.Context, ownerID, fileID uuid.UUID, ip string) error {
	f, err := s.repo.DeleteFile(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, []string{f.StorageKey}); err != nil {
		return fmt.Errorf("removing attachment blob: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "appointment_file",
		ResourceID:   fileID.String(),
		IPAddress:    ip,
	})
	return nil
}

func validateAppointment(title string, start, end time.Time) error {
	if strings.TrimSpace(title) == "" {
		return appointment.ErrTitleRequired
	}
	if !end.After(start) {
		return appointment.ErrInvalidTimeRange
	}
	return nil
}
