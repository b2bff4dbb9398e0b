// Package repository holds the gorm-backed implementations of the domain
// repository interfaces.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/project-mc/server/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) Rename(ctx context.Context, ownerID, id uuid.UUID, name string) (*patient.Patient, error) {
	result := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("name", name)
	if result.Error != nil {
		return nil, fmt.Errorf("renaming patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, patient.ErrPatientNotFound
	}
	return r.GetByID(ctx, ownerID, id)
}

func (r *PatientRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&patient.Patient{})
	if result.Error != nil {
		return fmt.Errorf("deleting patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}
