package share

import (
	"time"

	"github.com/google/uuid"
)

// Share records that a stored file was shared with an email address. The
// recipient later exchanges the record for a fresh signed URL; Path is the
// full object-store key of the shared file.
type Share struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid"`

	Path        string `gorm:"column:path;type:text;not null;index"`
	FileName    string `gorm:"column:file_name;type:varchar(255);not null"`
	TargetEmail string `gorm:"column:target_email;type:varchar(255);not null;index"`
}

func (Share) TableName() string {
	return "mc.shares"
}
