package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain/share"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/realtime"
)

func newDriveFixture() (*DriveService, *memFolderRepo, *memShareRepo, *drive.MemoryStore, *fakeMailer) {
	folders := newMemFolderRepo()
	shares := &memShareRepo{}
	store := drive.NewMemoryStore()
	mailer := &fakeMailer{}
	svc := NewDriveService(folders, shares, store, mailer, newTestAudit(), realtime.NopNotifier{}, testCollector, zap.NewNop())
	return svc, folders, shares, store, mailer
}

func TestCreateFolder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()

	t.Run("writes placeholder object", func(t *testing.T) {
		svc, _, _, store, _ := newDriveFixture()

		f, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Labs"}, "127.0.0.1")
		if err != nil {
			t.Fatalf("CreateFolder: %v", err)
		}
		if f.FullPath != "Labs" {
			t.Errorf("FullPath = %q, want %q", f.FullPath, "Labs")
		}

		want := owner.String() + "/Labs/.keep"
		if _, err := store.Fetch(ctx, want); err != nil {
			t.Errorf("placeholder %s not written: %v", want, err)
		}
	})

	t.Run("nested path builds on parent", func(t *testing.T) {
		svc, _, _, _, _ := newDriveFixture()

		if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Labs"}, ""); err != nil {
			t.Fatalf("CreateFolder root: %v", err)
		}
		child, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, ParentPath: "Labs", Name: "2024"}, "")
		if err != nil {
			t.Fatalf("CreateFolder child: %v", err)
		}
		if child.FullPath != "Labs/2024" {
			t.Errorf("FullPath = %q, want %q", child.FullPath, "Labs/2024")
		}
		if child.ParentID == nil {
			t.Error("ParentID not set on nested folder")
		}
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		svc, _, _, _, _ := newDriveFixture()

		for _, name := range []string{"", "  ", "a/b", ".keep"} {
			if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: name}, ""); !errors.Is(err, drive.ErrInvalidFolderName) {
				t.Errorf("name %q: err = %v, want ErrInvalidFolderName", name, err)
			}
		}
	})

	t.Run("duplicate path conflicts", func(t *testing.T) {
		svc, _, _, _, _ := newDriveFixture()

		if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Labs"}, ""); err != nil {
			t.Fatalf("first create: %v", err)
		}
		if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Labs"}, ""); !errors.Is(err, drive.ErrFolderAlreadyExists) {
			t.Errorf("err = %v, want ErrFolderAlreadyExists", err)
		}
	})

	t.Run("missing parent fails", func(t *testing.T) {
		svc, _, _, _, _ := newDriveFixture()

		_, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, ParentPath: "nope", Name: "x"}, "")
		if !errors.Is(err, drive.ErrFolderNotFound) {
			t.Errorf("err = %v, want ErrFolderNotFound", err)
		}
	})
}

func TestListFolderHidesPlaceholder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, _, _, _, _ := newDriveFixture()

	if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Labs"}, ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := svc.UploadFile(ctx, owner, nil, "Labs", "report.pdf", strings.NewReader("data"), "application/pdf", ""); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	listing, err := svc.ListFolder(ctx, owner, nil, "Labs")
	if err != nil {
		t.Fatalf("ListFolder: %v", err)
	}
	if len(listing.Files) != 1 || listing.Files[0].Name != "report.pdf" {
		t.Errorf("Files = %+v, want just report.pdf", listing.Files)
	}
}

func TestDeleteFolderRecursive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, folders, shares, store, _ := newDriveFixture()

	mkdir := func(parent, name string) {
		t.Helper()
		if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, ParentPath: parent, Name: name}, ""); err != nil {
			t.Fatalf("CreateFolder %s/%s: %v", parent, name, err)
		}
	}
	put := func(path, name string) {
		t.Helper()
		if _, err := svc.UploadFile(ctx, owner, nil, path, name, strings.NewReader("x"), "", ""); err != nil {
			t.Fatalf("UploadFile %s/%s: %v", path, name, err)
		}
	}

	mkdir("", "A")
	mkdir("A", "B")
	mkdir("", "A-other")
	put("A", "one.txt")
	put("A/B", "two.txt")
	put("A-other", "keep-me.txt")

	if err := shares.Create(ctx, &share.Share{
		OwnerID: owner, Path: owner.String() + "/A/one.txt", FileName: "one.txt", TargetEmail: "x@example.com",
	}); err != nil {
		t.Fatalf("seeding share: %v", err)
	}
	if err := shares.Create(ctx, &share.Share{
		OwnerID: owner, Path: owner.String() + "/A-other/keep-me.txt", FileName: "keep-me.txt", TargetEmail: "x@example.com",
	}); err != nil {
		t.Fatalf("seeding share: %v", err)
	}

	if err := svc.DeleteFolder(ctx, owner, nil, "A", ""); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	for _, key := range store.Keys() {
		if strings.HasPrefix(key, owner.String()+"/A/") {
			t.Errorf("object %s survived recursive delete", key)
		}
	}
	if _, err := store.Fetch(ctx, owner.String()+"/A-other/keep-me.txt"); err != nil {
		t.Errorf("sibling folder object was deleted: %v", err)
	}

	if _, err := folders.ResolveByPath(ctx, owner, nil, "A"); !errors.Is(err, drive.ErrFolderNotFound) {
		t.Errorf("folder A still resolvable, err = %v", err)
	}
	if _, err := folders.ResolveByPath(ctx, owner, nil, "A/B"); !errors.Is(err, drive.ErrFolderNotFound) {
		t.Errorf("folder A/B still resolvable, err = %v", err)
	}
	if _, err := folders.ResolveByPath(ctx, owner, nil, "A-other"); err != nil {
		t.Errorf("sibling folder A-other was deleted: %v", err)
	}

	remaining, err := shares.ListForRecipient(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("ListForRecipient: %v", err)
	}
	if len(remaining) != 1 || remaining[0].FileName != "keep-me.txt" {
		t.Errorf("shares after delete = %+v, want only keep-me.txt", remaining)
	}
}

func TestDeleteFolderScopedToPatient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	patient := uuid.New()
	svc, folders, _, _, _ := newDriveFixture()

	if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Docs"}, ""); err != nil {
		t.Fatalf("general folder: %v", err)
	}
	if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, PatientID: &patient, Name: "Docs"}, ""); err != nil {
		t.Fatalf("patient folder: %v", err)
	}

	if err := svc.DeleteFolder(ctx, owner, &patient, "Docs", ""); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	if _, err := folders.ResolveByPath(ctx, owner, nil, "Docs"); err != nil {
		t.Errorf("general-namespace folder was deleted: %v", err)
	}
	if _, err := folders.ResolveByPath(ctx, owner, &patient, "Docs"); !errors.Is(err, drive.ErrFolderNotFound) {
		t.Errorf("patient folder still resolvable, err = %v", err)
	}
}

func TestShareFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, _, _, _, mailer := newDriveFixture()

	if _, err := svc.UploadFile(ctx, owner, nil, "", "scan.pdf", strings.NewReader("pdf"), "application/pdf", ""); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	rec, err := svc.ShareFile(ctx, owner, nil, "", "scan.pdf", "Friend@Example.com", "")
	if err != nil {
		t.Fatalf("ShareFile: %v", err)
	}
	if rec.TargetEmail != "friend@example.com" {
		t.Errorf("TargetEmail = %q, want lowercased", rec.TargetEmail)
	}
	if rec.Path != owner.String()+"/scan.pdf" {
		t.Errorf("Path = %q", rec.Path)
	}

	if len(mailer.sent) != 1 || mailer.sent[0] != "friend@example.com" {
		t.Fatalf("sent = %v, want one email to friend@example.com", mailer.sent)
	}
	if len(mailer.links[0]) != 1 {
		t.Errorf("links = %v, want exactly one", mailer.links[0])
	}

	t.Run("recipient redeems", func(t *testing.T) {
		url, err := svc.RedeemShare(ctx, uuid.New(), "friend@example.com", rec.Path)
		if err != nil {
			t.Fatalf("RedeemShare: %v", err)
		}
		if url == "" {
			t.Error("empty url")
		}
	})

	t.Run("owner redeems", func(t *testing.T) {
		if _, err := svc.RedeemShare(ctx, owner, "someone-else@example.com", rec.Path); err != nil {
			t.Fatalf("owner RedeemShare: %v", err)
		}
	})

	t.Run("stranger denied", func(t *testing.T) {
		_, err := svc.RedeemShare(ctx, uuid.New(), "stranger@example.com", rec.Path)
		if !errors.Is(err, share.ErrShareNotFound) {
			t.Errorf("err = %v, want ErrShareNotFound", err)
		}
	})
}

func TestShareFolder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := uuid.New()
	svc, _, _, _, mailer := newDriveFixture()

	if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, Name: "Labs"}, ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if _, err := svc.CreateFolder(ctx, &drive.CreateFolderCommand{OwnerID: owner, ParentPath: "Labs", Name: "2024"}, ""); err != nil {
		t.Fatalf("CreateFolder nested: %v", err)
	}
	for path, name := range map[string]string{"Labs": "a.txt", "Labs/2024": "b.txt"} {
		if _, err := svc.UploadFile(ctx, owner, nil, path, name, strings.NewReader("x"), "", ""); err != nil {
			t.Fatalf("UploadFile: %v", err)
		}
	}

	count, err := svc.ShareFolder(ctx, owner, nil, "Labs", "friend@example.com", "")
	if err != nil {
		t.Fatalf("ShareFolder: %v", err)
	}
	// Placeholders are not shared.
	if count != 2 {
		t.Errorf("shared count = %d, want 2", count)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	if len(mailer.links[0]) != 2 {
		t.Errorf("links = %v, want two", mailer.links[0])
	}

	got, err := svc.SharedWithMe(ctx, "friend@example.com")
	if err != nil {
		t.Fatalf("SharedWithMe: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("SharedWithMe returned %d shares, want 2", len(got))
	}
}
