package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/share"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/mail"
	"github.com/project-mc/server/internal/realtime"
	"github.com/project-mc/server/pkg/metrics"
)

// DriveService layers the folder tree and sharing flows over the flat
// object store. Every operation takes the (owner, patient) scope
// explicitly; a nil patient addresses the owner's general namespace.
type DriveService struct {
	folders  drive.FolderRepository
	shares   share.Repository
	store    drive.ObjectStore
	mailer   mail.Sender
	auditSvc *AuditService
	notifier realtime.Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewDriveService(
	folders drive.FolderRepository,
	shares share.Repository,
	store drive.ObjectStore,
	mailer mail.Sender,
	auditSvc *AuditService,
	notifier realtime.Notifier,
	collector *metrics.Collector,
	log *zap.Logger,
) *DriveService {
	return &DriveService{
		folders:  folders,
		shares:   shares,
		store:    store,
		mailer:   mailer,
		auditSvc: auditSvc,
		notifier: notifier,
		metrics:  collector,
		log:      log,
	}
}

// FolderListing is the content of one folder: sub-folders from the
// relational tree and files from the object store.
type FolderListing struct {
	Path    string          `json:"path"`
	Folders []*drive.Folder `json:"folders"`
	Files   []drive.Object  `json:"files"`
}

func (s *DriveService) location(ownerID uuid.UUID, patientID *uuid.UUID, path []string) drive.Location {
	loc := drive.Location{OwnerID: ownerID.String(), Path: path}
	if patientID != nil {
		loc.PatientID = patientID.String()
	}
	return loc
}

// CreateFolder adds a folder under ParentPath and writes the placeholder
// object so the prefix exists in the store immediately.
func (s *DriveService) CreateFolder(ctx context.Context, cmd *drive.CreateFolderCommand, ip string) (*drive.Folder, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" || strings.Contains(name, "/") || name == drive.KeepFileName {
		return nil, drive.ErrInvalidFolderName
	}

	var parentID *uuid.UUID
	fullPath := name
	if cmd.ParentPath != "" {
		parent, err := s.folders.ResolveByPath(ctx, cmd.OwnerID, cmd.PatientID, cmd.ParentPath)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
		fullPath = parent.FullPath + "/" + name
	}

	f := &drive.Folder{
		OwnerID:   cmd.OwnerID,
		PatientID: cmd.PatientID,
		Name:      name,
		ParentID:  parentID,
		FullPath:  fullPath,
	}
	if err := s.folders.Create(ctx, f); err != nil {
		return nil, err
	}

	keepKey := s.location(cmd.OwnerID, cmd.PatientID, drive.ParseFullPath(fullPath)).File(drive.KeepFileName).Key()
	if err := s.store.Upload(ctx, keepKey, strings.NewReader(""), "text/plain"); err != nil {
		s.log.Warn("failed to write folder placeholder",
			zap.String("key", keepKey),
			zap.Error(err),
		)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       cmd.OwnerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "folder",
		ResourceID:   f.ID.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("folders", realtime.ActionInsert, f.ID.String(), cmd.OwnerID))

	return f, nil
}

// ListFolder returns the sub-folders and files directly under fullPath.
// An empty fullPath lists the scope's root.
func (s *DriveService) ListFolder(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath string) (*FolderListing, error) {
	var parentID *uuid.UUID
	if fullPath != "" {
		folder, err := s.folders.ResolveByPath(ctx, ownerID, patientID, fullPath)
		if err != nil {
			return nil, err
		}
		parentID = &folder.ID
	}

	folders, err := s.folders.ListChildren(ctx, ownerID, patientID, parentID)
	if err != nil {
		return nil, err
	}

	prefix := s.location(ownerID, patientID, drive.ParseFullPath(fullPath)).Key()
	objects, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	files := objects[:0]
	for _, o := range objects {
		if o.Name == drive.KeepFileName {
			continue
		}
		files = append(files, o)
	}

	return &FolderListing{Path: fullPath, Folders: folders, Files: files}, nil
}

// UploadFile stores a file in the folder at fullPath. The folder must
// exist unless the target is the scope root.
func (s *DriveService) UploadFile(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath, fileName string, body io.Reader, contentType string, ip string) (string, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || strings.Contains(fileName, "/") || fileName == drive.KeepFileName {
		return "", &ValidationError{Fields: []string{"file_name is invalid"}}
	}

	if fullPath != "" {
		if _, err := s.folders.ResolveByPath(ctx, ownerID, patientID, fullPath); err != nil {
			return "", err
		}
	}

	key := s.location(ownerID, patientID, drive.ParseFullPath(fullPath)).File(fileName).Key()
	if err := s.store.Upload(ctx, key, body, contentType); err != nil {
		return "", fmt.Errorf("uploading file: %w", err)
	}

	s.metrics.UploadsTotal.WithLabelValues("drive").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "file",
		ResourceID:   key,
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("folders", realtime.ActionUpdate, key, ownerID))

	return key, nil
}

// DownloadURL mints a short-lived signed URL for the file.
func (s *DriveService) DownloadURL(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath, fileName string) (string, error) {
	key := s.location(ownerID, patientID, drive.ParseFullPath(fullPath)).File(fileName).Key()
	url, err := s.store.SignedURL(ctx, key, drive.DownloadURLTTL)
	if err != nil {
		return "", err
	}
	s.metrics.SignedURLsIssued.WithLabelValues("download").Inc()
	return url, nil
}

// DeleteFile removes one stored file and any share records pointing at it.
func (s *DriveService) DeleteFile(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath, fileName string, ip string) error {
	key := s.location(ownerID, patientID, drive.ParseFullPath(fullPath)).File(fileName).Key()
	if err := s.store.Remove(ctx, []string{key}); err != nil {
		return fmt.Errorf("removing file: %w", err)
	}
	if err := s.shares.DeleteByPathPrefix(ctx, ownerID, key); err != nil {
		return fmt.Errorf("removing shares: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "file",
		ResourceID:   key,
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("folders", realtime.ActionUpdate, key, ownerID))

	return nil
}

// DeleteFolder removes the folder at fullPath and everything beneath it:
// folder records, stored objects including placeholders, and share
// records. Sibling folders whose names merely share the string prefix are
// untouched.
func (s *DriveService) DeleteFolder(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath string, ip string) error {
	folder, err := s.folders.ResolveByPath(ctx, ownerID, patientID, fullPath)
	if err != nil {
		return err
	}

	paths, err := s.folders.DescendantPaths(ctx, ownerID, patientID, fullPath)
	if err != nil {
		return err
	}

	var keys []string
	for _, p := range paths {
		loc := s.location(ownerID, patientID, drive.ParseFullPath(p))
		objects, err := s.store.List(ctx, loc.Key())
		if err != nil {
			return fmt.Errorf("listing %s: %w", p, err)
		}
		for _, o := range objects {
			keys = append(keys, loc.File(o.Name).Key())
		}
	}
	if err := s.store.Remove(ctx, keys); err != nil {
		return fmt.Errorf("removing folder objects: %w", err)
	}

	if err := s.folders.DeleteSubtree(ctx, ownerID, patientID, fullPath); err != nil {
		return err
	}

	rootKey := s.location(ownerID, patientID, drive.ParseFullPath(fullPath)).Key()
	if err := s.shares.DeleteByPathPrefix(ctx, ownerID, rootKey); err != nil {
		return fmt.Errorf("removing shares: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "folder",
		ResourceID:   folder.ID.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("folders", realtime.ActionDelete, folder.ID.String(), ownerID))

	s.log.Info("folder deleted",
		zap.String("path", fullPath),
		zap.Int("folders", len(paths)),
		zap.Int("objects", len(keys)),
	)

	return nil
}

// ShareFile emails the recipient a long-lived signed URL for one file and
// records the share so the recipient can mint fresh links later.
func (s *DriveService) ShareFile(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath, fileName, targetEmail string, ip string) (*share.Share, error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == "" || !strings.Contains(targetEmail, "@") {
		return nil, &ValidationError{Fields: []string{"target_email is invalid"}}
	}

	key := s.location(ownerID, patientID, drive.ParseFullPath(fullPath)).File(fileName).Key()
	url, err := s.store.SignedURL(ctx, key, drive.ShareURLTTL)
	if err != nil {
		return nil, err
	}

	rec := &share.Share{
		OwnerID:     ownerID,
		PatientID:   patientID,
		Path:        key,
		FileName:    fileName,
		TargetEmail: targetEmail,
	}
	if err := s.shares.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording share: %w", err)
	}

	if err := s.mailer.SendShareLinks(ctx, targetEmail, "A file was shared with you", []string{url}); err != nil {
		return nil, fmt.Errorf("sending share email: %w", err)
	}

	s.metrics.SharesSent.Inc()
	s.metrics.SignedURLsIssued.WithLabelValues("share").Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionShare),
		ResourceType: "file",
		ResourceID:   key,
		IPAddress:    ip,
	})

	return rec, nil
}

// ShareFolder shares every file in the subtree rooted at fullPath with
// the recipient: one email carrying a signed URL per file, one share
// record per file.
func (s *DriveService) ShareFolder(ctx context.Context, ownerID uuid.UUID, patientID *uuid.UUID, fullPath, targetEmail string, ip string) (int, error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == "" || !strings.Contains(targetEmail, "@") {
		return 0, &ValidationError{Fields: []string{"target_email is invalid"}}
	}

	if _, err := s.folders.ResolveByPath(ctx, ownerID, patientID, fullPath); err != nil {
		return 0, err
	}
	paths, err := s.folders.DescendantPaths(ctx, ownerID, patientID, fullPath)
	if err != nil {
		return 0, err
	}

	var links []string
	var shared int
	for _, p := range paths {
		loc := s.location(ownerID, patientID, drive.ParseFullPath(p))
		objects, err := s.store.List(ctx, loc.Key())
		if err != nil {
			return 0, fmt.Errorf("listing %s: %w", p, err)
		}
		for _, o := range objects {
			if o.Name == drive.KeepFileName {
				continue
			}
			key := loc.File(o.Name).Key()
			url, err := s.store.SignedURL(ctx, key, drive.ShareURLTTL)
			if err != nil {
				return 0, err
			}
			rec := &share.Share{
				OwnerID:     ownerID,
				PatientID:   patientID,
				Path:        key,
				FileName:    o.Name,
				TargetEmail: targetEmail,
			}
			if err := s.shares.Create(ctx, rec); err != nil {
				return 0, fmt.Errorf("recording share: %w", err)
			}
			links = append(links, url)
			shared++
		}
	}

	if shared == 0 {
		return 0, drive.ErrObjectNotFound
	}

	if err := s.mailer.SendShareLinks(ctx, targetEmail, "A folder was shared with you", links); err != nil {
		return 0, fmt.Errorf("sending share email: %w", err)
	}

	s.metrics.SharesSent.Inc()
	s.metrics.SignedURLsIssued.WithLabelValues("share").Add(float64(shared))
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionShare),
		ResourceType: "folder",
		ResourceID:   fullPath,
		IPAddress:    ip,
	})

	return shared, nil
}

// SharedWithMe lists the shares addressed to the caller's email.
func (s *DriveService) SharedWithMe(ctx context.Context, email string) ([]*share.Share, error) {
	return s.shares.ListForRecipient(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// RedeemShare exchanges a share the caller can see for a fresh signed
// URL. Both the recipient and the original owner may redeem.
func (s *DriveService) RedeemShare(ctx context.Context, callerID uuid.UUID, callerEmail, path string) (string, error) {
	rec, err := s.shares.GetByPathForRecipient(ctx, path, strings.ToLower(strings.TrimSpace(callerEmail)), callerID)
	if err != nil {
		return "", err
	}

	url, err := s.store.SignedURL(ctx, rec.Path, drive.ShareURLTTL)
	if err != nil {
		return "", err
	}
	s.metrics.SignedURLsIssued.WithLabelValues("share").Inc()
	return url, nil
}
