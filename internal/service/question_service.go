package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/appointment"
	"github.com/project-mc/server/internal/domain/question"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/realtime"
	"github.com/project-mc/server/pkg/metrics"
)

type QuestionService struct {
	repo     question.Repository
	apptRepo appointment.Repository
	store    drive.ObjectStore
	auditSvc *AuditService
	notifier realtime.Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewQuestionService(
	repo question.Repository,
	apptRepo appointment.Repository,
	store drive.ObjectStore,
	auditSvc *AuditService,
	notifier realtime.Notifier,
	collector *metrics.Collector,
	log *zap.Logger,
) *QuestionService {
	return &QuestionService{
		repo:     repo,
		apptRepo: apptRepo,
		store:    store,
		auditSvc: auditSvc,
		notifier: notifier,
		metrics:  collector,
		log:      log,
	}
}

func (s *QuestionService) CreateQuestion(ctx context.Context, cmd *question.CreateQuestionCommand, ip string) (*question.Question, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, question.ErrTitleRequired
	}

	q := &question.Question{
		OwnerID:     cmd.OwnerID,
		PatientID:   cmd.PatientID,
		Title:       title,
		Description: cmd.Description,
		Priority:    cmd.Priority,
		Status:      question.StatusOpen,
	}
	if err := s.repo.Create(ctx, q); err != nil {
		s.log.Error("failed to create question", zap.Error(err))
		return nil, fmt.Errorf("creating question: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       cmd.OwnerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "question",
		ResourceID:   q.ID.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("questions", realtime.ActionInsert, q.ID.String(), cmd.OwnerID))

	return q, nil
}

func (s *QuestionService) GetQuestion(ctx context.Context, ownerID, id uuid.UUID) (*question.Question, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *QuestionService) ListQuestions(ctx context.Context, q *question.ListQuestionsQuery) ([]*question.Question, error) {
	if q.Status != nil && !q.Status.IsValid() {
		return nil, question.ErrInvalidStatus
	}
	return s.repo.List(ctx, q)
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, ownerID, id uuid.UUID, cmd *question.UpdateQuestionCommand, ip string) (*question.Question, error) {
	if cmd.Title != nil && strings.TrimSpace(*cmd.Title) == "" {
		return nil, question.ErrTitleRequired
	}
	if cmd.Status != nil && !cmd.Status.IsValid() {
		return nil, question.ErrInvalidStatus
	}

	q, err := s.repo.Update(ctx, ownerID, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionUpdate),
		ResourceType: "question",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("questions", realtime.ActionUpdate, id.String(), ownerID))

	return q, nil
}

// DeleteQuestion removes the question, its links, and any attached blobs.
func (s *QuestionService) DeleteQuestion(ctx context.Context, ownerID, id uuid.UUID, ip string) error {
	links, err := s.repo.ListFileLinks(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if len(links) > 0 {
		keys := make([]string, 0, len(links))
		for _, l := range links {
			keys = append(keys, l.StorageKey)
		}
		if err := s.store.Remove(ctx, keys); err != nil {
			return fmt.Errorf("removing question files: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "question",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("questions", realtime.ActionDelete, id.String(), ownerID))

	return nil
}

// LinkAppointment ties a question to an appointment the caller owns. Both
// records are checked so a question can never reference another owner's
// appointment.
func (s *QuestionService) LinkAppointment(ctx context.Context, ownerID, questionID, appointmentID uuid.UUID) (*question.AppointmentLink, error) {
	if _, err := s.repo.GetByID(ctx, ownerID, questionID); err != nil {
		return nil, err
	}
	if _, err := s.apptRepo.GetByID(ctx, ownerID, appointmentID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListAppointmentLinks(ctx, ownerID, questionID)
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if l.AppointmentID == appointmentID {
			return l, nil
		}
	}

	link := &question.AppointmentLink{
		OwnerID:       ownerID,
		QuestionID:    questionID,
		AppointmentID: appointmentID,
	}
	if err := s.repo.LinkAppointment(ctx, link); err != nil {
		return nil, err
	}

	s.notifier.Publish(realtime.NewChangeEvent("question_appointments", realtime.ActionInsert, link.ID.String(), ownerID))
	return link, nil
}

func (s *QuestionService) UnlinkAppointment(ctx context.Context, ownerID, questionID, appointmentID uuid.UUID) error {
	if err := s.repo.UnlinkAppointment(ctx, ownerID, questionID, appointmentID); err != nil {
		return err
	}
	s.notifier.Publish(realtime.NewChangeEvent("question_appointments", realtime.ActionDelete, questionID.String(), ownerID))
	return nil
}

func (s *QuestionService) ListAppointmentLinks(ctx context.Context, ownerID, questionID uuid.UUID) ([]*question.AppointmentLink, error) {
	return s.repo.ListAppointmentLinks(ctx, ownerID, questionID)
}

// AttachFile uploads a blob and links it to the question.
func (s *QuestionService) AttachFile(ctx context.Context, ownerID, questionID uuid.UUID, fileName string, body io.Reader, contentType string, ip string) (*question.FileLink, error) {
	q, err := s.repo.GetByID(ctx, ownerID, questionID)
	if err != nil {
		return nil, err
	}

	fileName = strings.TrimSpace(fileName)
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, &ValidationError{Fields: []string{"file_name is invalid"}}
	}

	loc := drive.Location{OwnerID: ownerID.String()}
	if q.PatientID != nil {
		loc.PatientID = q.PatientID.String()
	}
	key := loc.In("questions").In(q.ID.String()).File(fileName).Key()

	if err := s.store.Upload(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("uploading question file: %w", err)
	}

	link := &question.FileLink{
		OwnerID:    ownerID,
		QuestionID: questionID,
		FileName:   fileName,
		StorageKey: key,
	}
	if err := s.repo.AttachFile(ctx, link); err != nil {
		_ = s.store.Remove(ctx, []string{key})
		return nil, fmt.Errorf("recording question file: %w", err)
	}

	s.metrics.UploadsTotal.WithLabelValues("question").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "question_file",
		ResourceID:   link.ID.String(),
		IPAddress:    ip,
	})

	return link, nil
}

func (s *QuestionService) DetachFile(ctx context.Context, ownerID, linkID uuid.UUID, ip string) error {
	link, err := s.repo.DetachFile(ctx, ownerID, linkID)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, []string{link.StorageKey}); err != nil {
		return fmt.Errorf("removing question file blob: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "question_file",
		ResourceID:   linkID.String(),
		IPAddress:    ip,
	})
	return nil
}

func (s *QuestionService) ListFileLinks(ctx context.Context, ownerID, questionID uuid.UUID) ([]*question.FileLink, error) {
	return s.repo.ListFileLinks(ctx, ownerID, questionID)
}

// FileDownloadURL mints a short-lived signed URL for a question file.
func (s *QuestionService) FileDownloadURL(ctx context.Context, ownerID, questionID, linkID uuid.UUID) (string, error) {
	links, err := s.repo.ListFileLinks(ctx, ownerID, questionID)
	if err != nil {
		return "", err
	}
	for _, l := range links {
		if l.ID == linkID {
			url, err := s.store.SignedURL(ctx, l.StorageKey, drive.DownloadURLTTL)
			if err != nil {
				return "", fmt.Errorf("signing url: %w", err)
			}
			s.metrics.SignedURLsIssued.WithLabelValues("download").Inc()
			return url, nil
		}
	}
	return "", question.ErrLinkNotFound
}
