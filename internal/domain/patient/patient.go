package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a named scope inside one user's workspace. Appointments,
// questions, documents, and the drive can all be partitioned per patient;
// records with a nil patient live in the owner's general namespace.
type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OwnerID uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Name    string    `gorm:"column:name;type:varchar(200);not null"`
}

func (Patient) TableName() string {
	return "mc.patients"
}

type CreatePatientCommand struct {
	OwnerID uuid.UUID
	Name    string
}

type RenamePatientCommand struct {
	Name string
}
