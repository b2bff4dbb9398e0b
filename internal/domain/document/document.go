package document

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the digitization pipeline:
//
//	processing → processed (text extracted, possibly empty)
//	processing → failed    (extraction errored)
type Status string

const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Document is one digitized upload. StorageKey points at the raw blob
// under the owner's digitalized prefix; Text holds the extracted content
// once processing finishes.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	FileName   string  `gorm:"column:file_name;type:varchar(255);not null"`
	StorageKey string  `gorm:"column:storage_key;type:text;not null"`
	Text       *string `gorm:"column:text;type:text"`
	Status     Status  `gorm:"column:status;type:varchar(20);not null;default:'processing';index"`
}

func (Document) TableName() string {
	return "mc.digital_documents"
}

type CreateDocumentCommand struct {
	OwnerID   uuid.UUID
	PatientID *uuid.UUID
	FileName  string
}

type ListDocumentsQuery struct {
	OwnerID   uuid.UUID
	PatientID *uuid.UUID
	Status    *Status
}
