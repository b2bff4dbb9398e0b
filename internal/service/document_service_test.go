package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain/document"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/realtime"
)

func newDocumentFixture(extractor Extractor) (*DocumentService, *memDocumentRepo, *drive.MemoryStore) {
	repo := newMemDocumentRepo()
	store := drive.NewMemoryStore()
	svc := NewDocumentService(repo, store, extractor, newTestAudit(), realtime.NopNotifier{}, testCollector, zap.NewNop())
	return svc, repo, store
}

func TestUploadDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, _, store := newDocumentFixture(&fakeExtractor{})

	d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{
		OwnerID:  owner,
		FileName: "letter.txt",
	}, strings.NewReader("Dear patient"), "text/plain", "")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if d.Status != document.StatusProcessing {
		t.Errorf("Status = %q, want processing", d.Status)
	}
	if !strings.HasPrefix(d.StorageKey, owner.String()+"/digitalized/") {
		t.Errorf("StorageKey = %q, want digitalized prefix", d.StorageKey)
	}
	if !strings.HasSuffix(d.StorageKey, "-letter.txt") {
		t.Errorf("StorageKey = %q, want timestamped file name", d.StorageKey)
	}
	if _, err := store.Fetch(ctx, d.StorageKey); err != nil {
		t.Errorf("blob not stored: %v", err)
	}

	t.Run("rejects bad file names", func(t *testing.T) {
		for _, name := range []string{"", "a/b.txt"} {
			_, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: name}, strings.NewReader("x"), "", "")
			if !errors.Is(err, document.ErrFileNameRequired) {
				t.Errorf("name %q: err = %v, want ErrFileNameRequired", name, err)
			}
		}
	})
}

func TestProcessDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()

	t.Run("plain text read directly", func(t *testing.T) {
		extractor := &fakeExtractor{extracted: "should not be used"}
		svc, _, _ := newDocumentFixture(extractor)

		d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "note.txt"},
			strings.NewReader("plain contents"), "text/plain", "")
		if err != nil {
			t.Fatalf("UploadDocument: %v", err)
		}

		processed, err := svc.ProcessDocument(ctx, owner, d.ID)
		if err != nil {
			t.Fatalf("ProcessDocument: %v", err)
		}
		if processed.Status != document.StatusProcessed {
			t.Errorf("Status = %q, want processed", processed.Status)
		}
		if processed.Text == nil || *processed.Text != "plain contents" {
			t.Errorf("Text = %v, want the raw contents", processed.Text)
		}
	})

	t.Run("binary goes through extraction", func(t *testing.T) {
		extractor := &fakeExtractor{extracted: "transcribed text"}
		svc, _, _ := newDocumentFixture(extractor)

		d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "scan.pdf"},
			bytes.NewReader([]byte("%PDF-1.4 binary body")), "application/pdf", "")
		if err != nil {
			t.Fatalf("UploadDocument: %v", err)
		}

		processed, err := svc.ProcessDocument(ctx, owner, d.ID)
		if err != nil {
			t.Fatalf("ProcessDocument: %v", err)
		}
		if processed.Status != document.StatusProcessed {
			t.Errorf("Status = %q, want processed", processed.Status)
		}
		if processed.Text == nil || *processed.Text != "transcribed text" {
			t.Errorf("Text = %v, want extractor output", processed.Text)
		}
	})

	t.Run("extraction failure lands on failed", func(t *testing.T) {
		extractor := &fakeExtractor{extractErr: errors.New("model unavailable")}
		svc, repo, _ := newDocumentFixture(extractor)

		d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "scan.pdf"},
			bytes.NewReader([]byte("%PDF-1.4 binary body")), "application/pdf", "")
		if err != nil {
			t.Fatalf("UploadDocument: %v", err)
		}

		processed, err := svc.ProcessDocument(ctx, owner, d.ID)
		if err != nil {
			t.Fatalf("ProcessDocument: %v", err)
		}
		if processed.Status != document.StatusFailed {
			t.Errorf("Status = %q, want failed", processed.Status)
		}

		stored, err := repo.GetByID(ctx, owner, d.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if stored.Status != document.StatusFailed || stored.Text != nil {
			t.Errorf("stored = %+v, want failed with no text", stored)
		}
	})
}

func TestSummarizeRequiresText(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, _, _ := newDocumentFixture(&fakeExtractor{summary: "short"})

	d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "scan.pdf"},
		bytes.NewReader([]byte("%PDF-1.4")), "application/pdf", "")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if _, err := svc.Summarize(ctx, owner, d.ID); !errors.Is(err, document.ErrNoExtractedText) {
		t.Errorf("err = %v, want ErrNoExtractedText", err)
	}
}

func TestChatOverDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, _, _ := newDocumentFixture(&fakeExtractor{answer: "the dose is 5mg"})

	d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "note.txt"},
		strings.NewReader("dose: 5mg daily"), "text/plain", "")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if _, err := svc.ProcessDocument(ctx, owner, d.ID); err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	answer, err := svc.Chat(ctx, owner, nil, "what is the dose?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "the dose is 5mg" {
		t.Errorf("answer = %q", answer)
	}

	t.Run("no processed documents", func(t *testing.T) {
		if _, err := svc.Chat(ctx, uuid.New(), nil, "anything?"); !errors.Is(err, document.ErrNoExtractedText) {
			t.Errorf("err = %v, want ErrNoExtractedText", err)
		}
	})
}

func TestReassignDocumentMovesBlob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	patient := uuid.New()
	svc, _, store := newDocumentFixture(&fakeExtractor{})

	d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "lab.txt"},
		strings.NewReader("results"), "text/plain", "")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	oldKey := d.StorageKey

	moved, err := svc.ReassignDocument(ctx, owner, d.ID, &patient, "")
	if err != nil {
		t.Fatalf("ReassignDocument: %v", err)
	}

	if moved.PatientID == nil || *moved.PatientID != patient {
		t.Errorf("PatientID = %v, want %s", moved.PatientID, patient)
	}
	if !strings.HasPrefix(moved.StorageKey, owner.String()+"/"+patient.String()+"/digitalized/") {
		t.Errorf("StorageKey = %q, want patient-scoped digitalized prefix", moved.StorageKey)
	}
	if _, err := store.Fetch(ctx, oldKey); !errors.Is(err, drive.ErrObjectNotFound) {
		t.Errorf("old blob still present, err = %v", err)
	}
	if _, err := store.Fetch(ctx, moved.StorageKey); err != nil {
		t.Errorf("new blob missing: %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, repo, store := newDocumentFixture(&fakeExtractor{})

	d, err := svc.UploadDocument(ctx, &document.CreateDocumentCommand{OwnerID: owner, FileName: "old.txt"},
		strings.NewReader("x"), "text/plain", "")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}

	if err := svc.DeleteDocument(ctx, owner, d.ID, ""); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := repo.GetByID(ctx, owner, d.ID); !errors.Is(err, document.ErrDocumentNotFound) {
		t.Errorf("record survived delete, err = %v", err)
	}
	if _, err := store.Fetch(ctx, d.StorageKey); !errors.Is(err, drive.ErrObjectNotFound) {
		t.Errorf("blob survived delete, err = %v", err)
	}
}
