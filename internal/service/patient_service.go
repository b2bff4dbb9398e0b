package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain"
	"github.com/project-mc/server/internal/domain/patient"
	"github.com/project-mc/server/internal/realtime"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	notifier realtime.Notifier
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, notifier realtime.Notifier, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		notifier: notifier,
		log:      log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, ip string) (*patient.Patient, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, patient.ErrNameRequired
	}

	p := &patient.Patient{
		OwnerID: cmd.OwnerID,
		Name:    name,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       cmd.OwnerID,
		Action:       string(domain.ActionCreate),
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("patients", realtime.ActionInsert, p.ID.String(), cmd.OwnerID))

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("owner_id", cmd.OwnerID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, ownerID, id uuid.UUID) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *PatientService) ListPatients(ctx context.Context, ownerID uuid.UUID) ([]*patient.Patient, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *PatientService) RenamePatient(ctx context.Context, ownerID, id uuid.UUID, name string, ip string) (*patient.Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, patient.ErrNameRequired
	}

	p, err := s.repo.Rename(ctx, ownerID, id, name)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionUpdate),
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("patients", realtime.ActionUpdate, id.String(), ownerID))

	return p, nil
}

// DeletePatient removes the patient record only. Appointments, questions,
// documents, and stored files under the patient scope are kept; they stay
// addressable by their explicit (owner, patient) pair.
func (s *PatientService) DeletePatient(ctx context.Context, ownerID, id uuid.UUID, ip string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       ownerID,
		Action:       string(domain.ActionDelete),
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	s.notifier.Publish(realtime.NewChangeEvent("patients", realtime.ActionDelete, id.String(), ownerID))

	return nil
}
