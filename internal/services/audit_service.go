package services

import (
	"context"
	"encoding/json"

	"papertrader/internal/logger"
	"papertrader/internal/models"

	"gorm.io/gorm"
)

// Audit actions.
const (
	AuditActionBuy      = "trade.buy"
	AuditActionSell     = "trade.sell"
	AuditActionStopLoss = "trade.stop_loss"
	AuditActionAICycle  = "automation.ai_cycle"
	AuditActionSnapshot = "performance.snapshot"
)

// Actors for operations not started by an operator.
const (
	ActorSystem  = "system"
	ActorAICycle = "ai-cycle"
)

// AuditEntry describes one mutating operation.
type AuditEntry struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      map[string]interface{}
}

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log stores entry. The operation it describes has already committed, so a
// failure here is logged and swallowed.
func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	log := logger.Named("audit")

	if entry.Actor == "" {
		entry.Actor = ActorSystem
	}

	row := &models.AuditLog{
		Actor:        entry.Actor,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
	}
	if entry.Changes != nil {
		data, err := json.Marshal(entry.Changes)
		if err != nil {
			log.Errorw("Failed to encode audit changes", "error", err, "action", entry.Action)
			data = []byte("{}")
		}
		row.Changes = string(data)
	}

	// A cancelled request must not lose the record of a committed trade.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(row).Error; err != nil {
		log.Errorw("Failed to write audit entry",
			"error", err,
			"actor", entry.Actor,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}
