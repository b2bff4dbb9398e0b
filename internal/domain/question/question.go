package question

import (
	"time"

	"github.com/google/uuid"
)

// State transitions are deliberately loose: any status can move to any
// other, matching how a personal question board gets used.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Question is a tracked item on the question board. Priority is a small
// integer, higher means more urgent.
type Question struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	Title       string `gorm:"column:title;type:varchar(255);not null"`
	Description string `gorm:"column:description;type:text"`
	Priority    int    `gorm:"column:priority;default:0;index"`
	Status      Status `gorm:"column:status;type:varchar(20);not null;default:'open';index"`
}

func (Question) TableName() string {
	return "mc.questions"
}

// AppointmentLink ties a question to an appointment where it should be
// raised.
type AppointmentLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	QuestionID    uuid.UUID `gorm:"column:question_id;type:uuid;not null;index"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index"`
}

func (AppointmentLink) TableName() string {
	return "mc.question_appointments"
}

// FileLink attaches an uploaded file to a question.
type FileLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	OwnerID    uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	QuestionID uuid.UUID `gorm:"column:question_id;type:uuid;not null;index"`
	FileName   string    `gorm:"column:file_name;type:varchar(255);not null"`
	StorageKey string    `gorm:"column:storage_key;type:text;not null"`
}

func (FileLink) TableName() string {
	return "mc.question_files"
}

type CreateQuestionCommand struct {
	OwnerID     uuid.UUID
	PatientID   *uuid.UUID
	Title       string
	Description string
	Priority    int
}

type UpdateQuestionCommand struct {
	Title       *string
	Description *string
	Priority    *int
	Status      *Status
}

type ListQuestionsQuery struct {
	OwnerID   uuid.UUID
	PatientID *uuid.UUID
	Status    *Status
}
