package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/project-mc/server/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, ownerID, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	updates := map[string]any{}
	if cmd.Title != nil {
		updates["title"] = *cmd.Title
	}
	if cmd.Notes != nil {
		updates["notes"] = *cmd.Notes
	}
	if cmd.StartAt != nil {
		updates["start_at"] = *cmd.StartAt
	}
	if cmd.EndAt != nil {
		updates["end_at"] = *cmd.EndAt
	}
	if cmd.AllDay != nil {
		updates["all_day"] = *cmd.AllDay
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&appointment.Appointment{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("updating appointment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, appointment.ErrAppointmentNotFound
		}
	}
	return r.GetByID(ctx, ownerID, id)
}

func (r *AppointmentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&appointment.Appointment{})
	if result.Error != nil {
		return fmt.Errorf("deleting appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	tx := r.db.WithContext(ctx).
		Where("owner_id = ?", q.OwnerID).
		// Intersection with [From, To): strict on both sides, so events
		// touching the boundary are excluded.
		Where("start_at < ? AND end_at > ?", q.To, q.From)

	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	} else {
		tx = tx.Where("patient_id IS NULL")
	}

	var appointments []*appointment.Appointment
	if err := tx.Order("start_at ASC, id ASC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) AttachFile(ctx context.Context, f *appointment.File) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("inserting appointment file: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) ListFiles(ctx context.Context, ownerID, appointmentID uuid.UUID) ([]*appointment.File, error) {
	var files []*appointment.File
	err := r.db.WithContext(ctx).
		Where("appointment_id = ? AND owner_id = ?", appointmentID, ownerID).
		Order("file_name ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointment files: %w", err)
	}
	return files, nil
}

func (r *AppointmentRepository) DeleteFile(ctx context.Context, ownerID, fileID uuid.UUID) (*appointment.File, error) {
	var f appointment.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", fileID, ownerID).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching appointment file: %w", err)
	}
	if err := r.db.WithContext(ctx).Delete(&f).Error; err != nil {
		return nil, fmt.Errorf("deleting appointment file: %w", err)
	}
	return &f, nil
}
