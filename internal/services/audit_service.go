package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"bondfolio/internal/logger"
	"bondfolio/internal/models"
)

// auditService writes audit log rows for mutating API calls.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. It is best effort: failures are logged and the
// caller's operation carries on.
func (s *auditService) Log(action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(action, changes),
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Named("audit").Errorw("failed to write audit log",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// encodeChanges renders the change set as JSON. Decimal values marshal as
// strings, so amounts keep their exact representation.
func encodeChanges(action string, changes map[string]interface{}) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		logger.Named("audit").Warnw("unencodable audit changes", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}
