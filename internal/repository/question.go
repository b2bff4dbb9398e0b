package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/project-mc/server/internal/domain/question"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Create(ctx context.Context, q *question.Question) error {
	if err := r.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*question.Question, error) {
	var q question.Question
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, question.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching question: %w", err)
	}
	return &q, nil
}

func (r *QuestionRepository) Update(ctx context.Context, ownerID, id uuid.UUID, cmd *question.UpdateQuestionCommand) (*question.Question, error) {
	updates := map[string]any{}
	if cmd.Title != nil {
		updates["title"] = *cmd.Title
	}
	if cmd.Description != nil {
		updates["description"] = *cmd.Description
	}
	if cmd.Priority != nil {
		updates["priority"] = *cmd.Priority
	}
	if cmd.Status != nil {
		updates["status"] = *cmd.Status
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&question.Question{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("updating question: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, question.ErrQuestionNotFound
		}
	}
	return r.GetByID(ctx, ownerID, id)
}

func (r *QuestionRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).
			Delete(&question.Question{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return question.ErrQuestionNotFound
		}
		if err := tx.Where("question_id = ? AND owner_id = ?", id, ownerID).
			Delete(&question.AppointmentLink{}).Error; err != nil {
			return err
		}
		return tx.Where("question_id = ? AND owner_id = ?", id, ownerID).
			Delete(&question.FileLink{}).Error
	})
	if err != nil && !errors.Is(err, question.ErrQuestionNotFound) {
		return fmt.Errorf("deleting question: %w", err)
	}
	return err
}

func (r *QuestionRepository) List(ctx context.Context, q *question.ListQuestionsQuery) ([]*question.Question, error) {
	tx := r.db.WithContext(ctx).Where("owner_id = ?", q.OwnerID)

	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	} else {
		tx = tx.Where("patient_id IS NULL")
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var questions []*question.Question
	if err := tx.Order("priority DESC, created_at DESC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	return questions, nil
}

func (r *QuestionRepository) LinkAppointment(ctx context.Context, link *question.AppointmentLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("linking question to appointment: %w", err)
	}
	return nil
}

func (r *QuestionRepository) UnlinkAppointment(ctx context.Context, ownerID, questionID, appointmentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("question_id = ? AND appointment_id = ? AND owner_id = ?", questionID, appointmentID, ownerID).
		Delete(&question.AppointmentLink{})
	if result.Error != nil {
		return fmt.Errorf("unlinking question from appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return question.ErrLinkNotFound
	}
	return nil
}

func (r *QuestionRepository) ListAppointmentLinks(ctx context.Context, ownerID, questionID uuid.UUID) ([]*question.AppointmentLink, error) {
	var links []*question.AppointmentLink
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND owner_id = ?", questionID, ownerID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointment links: %w", err)
	}
	return links, nil
}

func (r *QuestionRepository) AttachFile(ctx context.Context, link *question.FileLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("attaching file to question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) DetachFile(ctx context.Context, ownerID, linkID uuid.UUID) (*question.FileLink, error) {
	var link question.FileLink
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", linkID, ownerID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, question.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching question file link: %w", err)
	}
	if err := r.db.WithContext(ctx).Delete(&link).Error; err != nil {
		return nil, fmt.Errorf("detaching file from question: %w", err)
	}
	return &link, nil
}

func (r *QuestionRepository) ListFileLinks(ctx context.Context, ownerID, questionID uuid.UUID) ([]*question.FileLink, error) {
	var links []*question.FileLink
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND owner_id = ?", questionID, ownerID).
		Order("file_name ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("listing question file links: %w", err)
	}
	return links, nil
}
