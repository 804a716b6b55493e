// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"backoffice/internal/domain/entity"
	domainerrors "backoffice/internal/domain/errors"
	"backoffice/internal/domain/repository"
	"backoffice/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// notificationRepository implements the repository.NotificationRepository interface.
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository is the constructor for notificationRepository.
func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

// CreateNotification persists a new marketing notification.
func (repo *notificationRepository) CreateNotification(ctx context.Context, notification *entity.MarketingNotification) error {
	notificationM := fromNotificationDomain(notification)

	if err := repo.db.WithContext(ctx).Create(notificationM).Error; err != nil {
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrNotificationCreationFailed.WrapMessage("missing required notification information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create notification")
	}

	// Update the entity with generated values
	notification.ID = notificationM.ID
	notification.CreatedAt = notificationM.CreatedAt
	notification.UpdatedAt = notificationM.UpdatedAt

	return nil
}

// FindNotificationByID retrieves a notification by its unique ID.
func (repo *notificationRepository) FindNotificationByID(ctx context.Context, id uuid.UUID) (*entity.MarketingNotification, error) {
	var notificationM model.MarketingNotificationModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&notificationM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotificationNotFound
		}

		return nil, errors.Wrap(err, "failed to find notification by ID")
	}

	return toNotificationDomain(&notificationM), nil
}

// ListNotifications retrieves notifications for the back-office list view, newest first.
func (repo *notificationRepository) ListNotifications(ctx context.Context, limit, offset int) ([]*entity.MarketingNotification, error) {
	var notificationModels []*model.MarketingNotificationModel

	query := repo.db.WithContext(ctx).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&notificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	notifications := make([]*entity.MarketingNotification, 0, len(notificationModels))
	for _, notificationM := range notificationModels {
		notifications = append(notifications, toNotificationDomain(notificationM))
	}

	return notifications, nil
}

// UpdateNotification persists edits to an existing record.
func (repo *notificationRepository) UpdateNotification(ctx context.Context, notification *entity.MarketingNotification) error {
	result := repo.db.WithContext(ctx).
		Model(&model.MarketingNotificationModel{}).
		Where("id = ?", notification.ID).
		Updates(map[string]any{
			"title":         notification.Title,
			"message":       notification.Message,
			"image_url":     notification.ImageURL,
			"is_active":     notification.IsActive,
			"scheduled_for": notification.ScheduledFor,
			"send_status":   string(notification.SendStatus),
			"last_error":    notification.LastError,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update notification")
	}

	if result.RowsAffected == 0 {
		return repository.ErrNotificationNotFound
	}

	return nil
}

// FindDueScheduled retrieves active scheduled notifications whose delivery
// time has arrived, oldest schedule first. The sent_at IS NULL predicate is
// part of the at-most-once guarantee: rows that ever completed a successful
// send are excluded no matter what else changed.
func (repo *notificationRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.MarketingNotification, error) {
	var notificationModels []*model.MarketingNotificationModel

	if err := repo.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("send_status = ?", string(entity.SendStatusScheduled)).
		Where("scheduled_for <= ?", now).
		Where("sent_at IS NULL").
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&notificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find due scheduled notifications")
	}

	notifications := make([]*entity.MarketingNotification, 0, len(notificationModels))
	for _, notificationM := range notificationModels {
		notifications = append(notifications, toNotificationDomain(notificationM))
	}

	return notifications, nil
}

// ClaimForSending atomically moves a dispatchable row to 'sending'. The
// conditional WHERE clause, not a read-then-write, is what closes the race
// between two overlapping sweep invocations.
func (repo *notificationRepository) ClaimForSending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.MarketingNotificationModel{}).
		Where("id = ?", id).
		Where("sent_at IS NULL").
		Where("send_status IN ?", []string{
			string(entity.SendStatusDraft),
			string(entity.SendStatusScheduled),
			string(entity.SendStatusFailed),
		}).
		Update("send_status", string(entity.SendStatusSending))

	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to claim notification for sending")
	}

	return result.RowsAffected > 0, nil
}

// MarkSent records a successful send attempt. sent_at is set exactly once.
func (repo *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.MarketingNotificationModel{}).
		Where("id = ?", id).
		Where("sent_at IS NULL").
		Updates(map[string]any{
			"send_status": string(entity.SendStatusSent),
			"sent_at":     sentAt,
			"last_error":  nil,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark notification sent")
	}

	if result.RowsAffected == 0 {
		return repository.ErrNotificationNotFound
	}

	return nil
}

// MarkFailed records a failed send attempt; sent_at stays null so an operator
// can reschedule the record for another attempt.
func (repo *notificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.MarketingNotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"send_status": string(entity.SendStatusFailed),
			"last_error":  lastError,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark notification failed")
	}

	if result.RowsAffected == 0 {
		return repository.ErrNotificationNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toNotificationDomain converts a GORM MarketingNotificationModel to a domain entity.
func toNotificationDomain(data *model.MarketingNotificationModel) *entity.MarketingNotification {
	if data == nil {
		return nil
	}

	return &entity.MarketingNotification{
		ID:           data.ID,
		Title:        data.Title,
		Message:      data.Message,
		ImageURL:     data.ImageURL,
		IsActive:     data.IsActive,
		ScheduledFor: data.ScheduledFor,
		SendStatus:   entity.SendStatus(data.SendStatus),
		SentAt:       data.SentAt,
		LastError:    data.LastError,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromNotificationDomain converts a domain entity to a GORM MarketingNotificationModel.
func fromNotificationDomain(data *entity.MarketingNotification) *model.MarketingNotificationModel {
	if data == nil {
		return nil
	}

	return &model.MarketingNotificationModel{
		ID:           data.ID,
		Title:        data.Title,
		Message:      data.Message,
		ImageURL:     data.ImageURL,
		IsActive:     data.IsActive,
		ScheduledFor: data.ScheduledFor,
		SendStatus:   string(data.SendStatus),
		SentAt:       data.SentAt,
		LastError:    data.LastError,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
