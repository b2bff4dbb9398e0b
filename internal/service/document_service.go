package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/ai"
	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/document"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/realtime"
	"github.com/project-mc/server/pkg/metrics"
)

// digitizedFolder is the reserved prefix digitized uploads live under,
// outside the user-visible folder tree.
const digitizedFolder = "digitalized"

// Extractor is the slice of the language API the digitization pipeline
// needs. Narrowed for testability.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
	Summarize(ctx context.Context, text, fileName string) (string, error)
	Translate(ctx context.Context, text, targetLang string) (string, error)
	Chat(ctx context.Context, question string, documents []string) (string, error)
}

var _ Extractor = (*ai.Client)(nil)

type DocumentService struct {
	repo      document.Repository
	store     drive.ObjectStore
	extractor Extractor
	auditSvc  *AuditService
	notifier  realtime.Notifier
	metrics   *metrics.Collector
	log       *zap.Logger
}

func NewDocumentService(
	repo document.Repository,
	store drive.ObjectStore,
	extractor Extractor,
	auditSvc *AuditService,
	notifier realtime.Notifier,
	collector *metrics.Collector,
	log *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:      repo,
		store:     store,
		extractor: extractor,
		auditSvc:  auditSvc,
		notifier:  notifier,
		metrics:   collector,
		log:       log,
	}
}

func (s *DocumentService) location(ownerID uuid.UUID, patientID *uuid.UUID) drive.Location {
	loc := drive.Location{OwnerID: ownerID.String()}
	if patientID != nil {
		loc.PatientID = patientID.String()
	}
	return loc
}

// UploadDocument stores the raw blob under the digitized prefix and
// records it in processing state. Call ProcessDocument afterwards to run
// extraction.
func (s *DocumentService) UploadDocument(ctx context.Context, cmd *document.CreateDocumentCommand, body io.Reader, contentType string, ip string) (*document.Document, error) {
	fileName := strings.TrimSpace(cmd.FileName)
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, document.ErrFileNameRequired
	}

	// Timestamp prefix keeps repeated uploads of the same file distinct.
	stored := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), fileName)
	key := s.location(cmd.OwnerID, cmd.PatientID).In(digitizedFolder).File(stored).Key()

	if err := s.store.Upload(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("uploading document: %w", err)
	}

	d := &document.Document{
		OwnerID:    cmd.OwnerID,
		PatientID:  cmd.PatientID,
		FileName:   fileName,
		StorageKey: key,
		Status:     document.StatusProcessing,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		_ = s.store.Remove(ctx, []string{key})
		return nil, fmt.Errorf("recording document: %w", err)
	}

	s.metrics.UploadsTotal.WithLabelValues("document").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       cmd.OwnerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "document",
		ResourceID:   d.ID.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("digital_documents", realtime.ActionInsert, d.ID.String(), cmd.OwnerID))

	return d, nil
}

// ProcessDocument runs text extraction on a stored document. Plain-text
// blobs are read as-is; anything else goes through the language API. The
// status always lands on processed or failed.
func (s *DocumentService) ProcessDocument(ctx context.Context, ownerID, id uuid.UUID) (*document.Document, error) {
	d, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	text, err := s.extractText(ctx, d.StorageKey)
	if err != nil {
		s.log.Error("document extraction failed",
			zap.String("document_id", d.ID.String()),
			zap.Error(err),
		)
		s.metrics.DocumentsProcessed.WithLabelValues(string(document.StatusFailed)).Inc()
		if setErr := s.repo.SetText(ctx, ownerID, id, nil, document.StatusFailed); setErr != nil {
			return nil, setErr
		}
		d.Status = document.StatusFailed
		s.notifier.Publish(realtime.NewChangeEvent("digital_documents", realtime.ActionUpdate, id.String(), ownerID))
		return d, nil
	}

	if err := s.repo.SetText(ctx, ownerID, id, &text, document.StatusProcessed); err != nil {
		return nil, err
	}
	s.metrics.DocumentsProcessed.WithLabelValues(string(document.StatusProcessed)).Inc()
	s.notifier.Publish(realtime.NewChangeEvent("digital_documents", realtime.ActionUpdate, id.String(), ownerID))

	d.Text = &text
	d.Status = document.StatusProcessed
	return d, nil
}

func (s *DocumentService) extractText(ctx context.Context, key string) (string, error) {
	body, err := s.store.Fetch(ctx, key)
	if err != nil {
		return "", fmt.Errorf("fetching blob: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading blob: %w", err)
	}

	mimeType := http.DetectContentType(data)
	if strings.HasPrefix(mimeType, "text/") {
		return string(data), nil
	}

	text, err := s.extractor.ExtractText(ctx, data, mimeType)
	if err != nil {
		s.metrics.AICallsTotal.WithLabelValues("extract", "error").Inc()
		return "", err
	}
	s.metrics.AICallsTotal.WithLabelValues("extract", "ok").Inc()
	return text, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, ownerID, id uuid.UUID) (*document.Document, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *DocumentService) ListDocuments(ctx context.Context, q *document.ListDocumentsQuery) ([]*document.Document, error) {
	return s.repo.List(ctx, q)
}

// DownloadURL mints a short-lived signed URL for the raw blob.
func (s *DocumentService) DownloadURL(ctx context.Context, ownerID, id uuid.UUID) (string, error) {
	d, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.SignedURL(ctx, d.StorageKey, drive.DownloadURLTTL)
	if err != nil {
		return "", err
	}
	s.metrics.SignedURLsIssued.WithLabelValues("download").Inc()
	return url, nil
}

// Summarize produces a summary of the extracted text.
func (s *DocumentService) Summarize(ctx context.Context, ownerID, id uuid.UUID) (string, error) {
	d, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if d.Text == nil || *d.Text == "" {
		return "", document.ErrNoExtractedText
	}

	summary, err := s.extractor.Summarize(ctx, *d.Text, d.FileName)
	if err != nil {
		s.metrics.AICallsTotal.WithLabelValues("summarize", "error").Inc()
		return "", err
	}
	s.metrics.AICallsTotal.WithLabelValues("summarize", "ok").Inc()
	return summary, nil
}

// Translate renders the extracted text in the target language.
func (s *DocumentService) Translate(ctx context.Context, ownerID, id uuid.UUID, targetLang string) (string, error) {
	d, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if d.Text == nil || *d.Text == "" {
		return "", document.ErrNoExtractedText
	}

	translated, err := s.extractor.Translate(ctx, *d.Text, targetLang)
	if err != nil {
		s.metrics.AICallsTotal.WithLabelValues("translate", "error").Inc()
		return "", err
	}
	s.metrics.AICallsTotal.WithLabelValues("translate", "ok").Inc()
	return translated, nil
}

// Chat answers a question grounded on the scope's processed documents.
func (s *DocumentService) Chat(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, questionText string) (string, error) {
	if strings.TrimSpace(questionText) == "" {
		return "", &ValidationError{Fields: []string{"question is required"}}
	}

	processed := document.StatusProcessed
	docs, err := s.repo.List(ctx, &document.ListDocumentsQuery{
		OwnerID:   ownerID,
		PatientID: patientID,
		Status:    &processed,
	})
	if err != nil {
		return "", err
	}

	var texts []string
	for _, d := range docs {
		if d.Text != nil && *d.Text != "" {
			texts = append(texts, *d.Text)
		}
	}
	if len(texts) == 0 {
		return "", document.ErrNoExtractedText
	}

	answer, err := s.extractor.Chat(ctx, questionText, texts)
	if err != nil {
		s.metrics.AICallsTotal.WithLabelValues("chat", "error").Inc()
		return "", err
	}
	s.metrics.AICallsTotal.WithLabelValues("chat", "ok").Inc()
	return answer, nil
}

// ReassignDocument moves the document to another patient scope. The blob
// is relocated so storage keys keep matching their record's scope.
func (s *DocumentService) ReassignDocument(ctx context.Context, ownerID, id uuid.UUID, patientID *uuid.UUID, ip string) (*document.Document, error) {
	d, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(d.StorageKey, "/")
	stored := parts[len(parts)-1]
	newKey := s.location(ownerID, patientID).In(digitizedFolder).File(stored).Key()

	if newKey != d.StorageKey {
		if err := s.store.Move(ctx, d.StorageKey, newKey); err != nil {
			return nil, fmt.Errorf("moving document blob: %w", err)
		}
	}
	if err := s.repo.Reassign(ctx, ownerID, id, patientID, newKey); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionUpdate),
		ResourceType: "document",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("digital_documents", realtime.ActionUpdate, id.String(), ownerID))

	return s.repo.GetByID(ctx, ownerID, id)
}

// DeleteDocument removes the blob and the record.
func (s *DocumentService) DeleteDocument(ctx context.Context, ownerID, id uuid.UUID, ip string) error {
	d, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, []string{d.StorageKey}); err != nil {
		return fmt.Errorf("removing document blob: %w", err)
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "document",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("digital_documents", realtime.ActionDelete, id.String(), ownerID))

	return nil
}
