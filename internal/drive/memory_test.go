package drive_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/project-mc/server/internal/drive"
)

func TestMemoryStore_ListDirectChildrenOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := drive.NewMemoryStore()

	for _, key := range []string{
		"u1/Labs/a.pdf",
		"u1/Labs/b.pdf",
		"u1/Labs/2024/deep.pdf",
		"u1/other.txt",
	} {
		if err := store.Upload(ctx, key, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("Upload(%s): %v", key, err)
		}
	}

	objects, err := store.List(ctx, "u1/Labs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 || objects[0].Name != "a.pdf" || objects[1].Name != "b.pdf" {
		t.Fatalf("List = %+v, want a.pdf and b.pdf only", objects)
	}
}

func TestMemoryStore_MoveAndFetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := drive.NewMemoryStore()

	if err := store.Upload(ctx, "u1/old.txt", strings.NewReader("content"), "text/plain"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Move(ctx, "u1/old.txt", "u1/p1/new.txt"); err != nil {
		t.Fatalf("Move: %v", err)
	}

	if _, err := store.Fetch(ctx, "u1/old.txt"); !errors.Is(err, drive.ErrObjectNotFound) {
		t.Errorf("Fetch old key: err = %v, want ErrObjectNotFound", err)
	}
	rc, err := store.Fetch(ctx, "u1/p1/new.txt")
	if err != nil {
		t.Fatalf("Fetch new key: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "content" {
		t.Errorf("content = %q, want %q", data, "content")
	}
}

func TestMemoryStore_RemoveMissingKeysIsNoError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := drive.NewMemoryStore()

	if err := store.Remove(ctx, []string{"u1/never-existed"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestMemoryStore_SignedURLMissingObject(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := drive.NewMemoryStore()

	if _, err := store.SignedURL(ctx, "u1/missing.pdf", drive.DownloadURLTTL); !errors.Is(err, drive.ErrObjectNotFound) {
		t.Fatalf("SignedURL: err = %v, want ErrObjectNotFound", err)
	}
}
