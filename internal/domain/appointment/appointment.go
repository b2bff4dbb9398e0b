package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/project-mc/server/internal/schedule"
)

// Appointment is a calendar entry owned by a user, optionally scoped to a
// patient. All-day entries keep their StartAt/EndAt range but are rendered
// outside the time grid.
type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	Title   string    `gorm:"column:title;type:varchar(255);not null"`
	Notes   string    `gorm:"column:notes;type:text"`
	StartAt time.Time `gorm:"column:start_at;not null;index"`
	EndAt   time.Time `gorm:"column:end_at;not null"`
	AllDay  bool      `gorm:"column:all_day;default:false"`
}

func (Appointment) TableName() string {
	return "mc.appointments"
}

// LayoutEvent converts the appointment into the layout engine's input.
func (a *Appointment) LayoutEvent() schedule.Event {
	return schedule.Event{
		ID:      a.ID.String(),
		Title:   a.Title,
		StartAt: a.StartAt.UnixMilli(),
		EndAt:   a.EndAt.UnixMilli(),
	}
}

// File is an uploaded attachment linked to an appointment. StorageKey is
// the object-store address the blob was uploaded under.
type File struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index"`
	OwnerID       uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	FileName      string    `gorm:"column:file_name;type:varchar(255);not null"`
	StorageKey    string    `gorm:"column:storage_key;type:text;not null"`
}

func (File) TableName() string {
	return "mc.appointment_files"
}

type CreateAppointmentCommand struct {
	OwnerID   uuid.UUID
	PatientID *uuid.UUID
	Title     string
	Notes     string
	StartAt   time.Time
	EndAt     time.Time
	AllDay    bool
}

type UpdateAppointmentCommand struct {
	Title   *string
	Notes   *string
	StartAt *time.Time
	EndAt   *time.Time
	AllDay  *bool
}

// ListAppointmentsQuery selects events intersecting [From, To) for one
// owner. PatientID nil selects the general namespace; scope is always
// explicit, never ambient.
type ListAppointmentsQuery struct {
	OwnerID   uuid.UUID
	PatientID *uuid.UUID
	From      time.Time
	To        time.Time
}

// DayView is the rendered day grid: the day's events plus the column
// assignment computed for each.
type DayView struct {
	Date         time.Time                            `json:"date"`
	Appointments []*Appointment                       `json:"appointments"`
	Layout       map[string]schedule.ColumnAssignment `json:"layout"`
}
