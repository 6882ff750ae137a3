package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/models/reports"
	"github.com/fleetfocus/rentals_backend/utils"
)

// reportCache resolves the cache the write paths invalidate. A variable so
// tests can substitute an isolated in-memory cache.
var reportCache = reports.DefaultCache

// publishAuditFact emits a mutation fact after the write has committed.
// Best-effort: failures are logged and never fail the request.
func publishAuditFact(ctx context.Context, referenceId int, referenceType, action string, oldObj, newObj any) {
	logger := config.GetLogger()

	var oldJSON, newJSON []byte
	var err error
	if oldObj != nil {
		if oldJSON, err = json.Marshal(oldObj); err != nil {
			config.LogError(logger, "workflow", "publishAuditFact", "marshal old object", referenceType, err)
			return
		}
	}
	if newObj != nil {
		if newJSON, err = json.Marshal(newObj); err != nil {
			config.LogError(logger, "workflow", "publishAuditFact", "marshal new object", referenceType, err)
			return
		}
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	fact := config.AuditFact{
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		Action:        action,
		OldObj:        oldJSON,
		NewObj:        newJSON,
		UserId:        userId,
		CorrelationId: correlationId,
	}
	if _, err := config.PublishAuditFact(ctx, fact); err != nil {
		config.LogError(logger, "workflow", "publishAuditFact", "publish "+action, referenceType, err)
	}
}
