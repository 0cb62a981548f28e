package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/repositories"
)

// AuditPostgreSQL implements AuditRepository
type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (r *AuditPostgreSQL) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *AuditPostgreSQL) ListByEntity(ctx context.Context, entityType models.AuditEntityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}
