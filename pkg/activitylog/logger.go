package activitylog

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
)

// Logger handles activity logging for audit trail
type Logger struct {
	acts store.Activities
	log  *zap.Logger
}

// NewLogger creates a new activity logger
func NewLogger(acts store.Activities, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{acts: acts, log: log}
}

// LogActivity creates an activity log entry. Failures are logged, never returned to
// the request that triggered them.
func (l *Logger) LogActivity(c *gin.Context, action, entityType string, entityID *uuid.UUID, details interface{}) {
	if l == nil {
		return
	}
	var userID *uuid.UUID
	if id, err := uuid.Parse(c.GetString("user_id")); err == nil {
		userID = &id
	}

	detailsJSON := ""
	if details != nil {
		if jsonBytes, err := json.Marshal(details); err == nil {
			detailsJSON = string(jsonBytes)
		}
	}

	entry := &domain.Activity{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
		IPAddress:  c.ClientIP(),
	}

	if err := l.acts.CreateActivity(context.WithoutCancel(c.Request.Context()), entry); err != nil {
		l.log.Warn("Failed to write activity log",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.Error(err),
		)
	}
}

// LogCreate logs a create action
func (l *Logger) LogCreate(c *gin.Context, entityType string, entityID uuid.UUID, newData interface{}) {
	l.LogActivity(c, "create", entityType, &entityID, map[string]interface{}{
		"new": newData,
	})
}

// LogUpdate logs an update action with old and new values
func (l *Logger) LogUpdate(c *gin.Context, entityType string, entityID uuid.UUID, oldData, newData interface{}) {
	l.LogActivity(c, "update", entityType, &entityID, map[string]interface{}{
		"old": oldData,
		"new": newData,
	})
}

// LogDelete logs a delete action
func (l *Logger) LogDelete(c *gin.Context, entityType string, entityID uuid.UUID, oldData interface{}) {
	l.LogActivity(c, "delete", entityType, &entityID, map[string]interface{}{
		"deleted": oldData,
	})
}

// Recent returns the newest entries.
func (l *Logger) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	return l.acts.ListActivities(ctx, limit)
}
