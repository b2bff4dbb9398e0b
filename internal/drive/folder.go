package drive

import (
	"time"

	"github.com/google/uuid"
)

// Folder is one node of the materialized folder tree. FullPath is written
// once at creation by joining the parent's FullPath with Name and is
// trusted on read; (OwnerID, PatientID, FullPath) is unique.
type Folder struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index:idx_folders_scope" json:"owner_id"`
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index:idx_folders_scope" json:"patient_id,omitempty"`

	Name     string     `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ParentID *uuid.UUID `gorm:"column:parent_id;type:uuid;index" json:"parent_id,omitempty"`
	FullPath string     `gorm:"column:full_path;type:text;not null" json:"full_path"`
}

func (Folder) TableName() string {
	return "mc.folders"
}

// Location maps the folder back to its drive address.
func (f *Folder) Location() Location {
	loc := Location{OwnerID: f.OwnerID.String(), Path: ParseFullPath(f.FullPath)}
	if f.PatientID != nil {
		loc.PatientID = f.PatientID.String()
	}
	return loc
}

type CreateFolderCommand struct {
	OwnerID    uuid.UUID
	PatientID  *uuid.UUID
	ParentPath string // "" for root
	Name       string
}

// Object is a stored blob listed under a folder prefix.
type Object struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
