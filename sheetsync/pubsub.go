package sheetsync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/gin-gonic/gin"
)

const refreshLockKey = "sheets_refresh_lock"

// PublishRefresh asks every subscriber to reload the active spreadsheet.
func PublishRefresh(ctx context.Context, topicName string, createTopic bool) (string, error) {
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	payload := RefreshPayload{
		CorrelationId: cid,
		RequestedAt:   time.Now().UTC(),
	}
	return config.PublishJSON(ctx, topicName, payload, map[string]string{"kind": "sheets-refresh"}, createTopic)
}

// PubSubPushHandler reloads the spreadsheet on a push delivery. It always answers 204 so
// Pub/Sub does not redeliver; overlapping deliveries are skipped while the lock is held.
func PubSubPushHandler(syncer *Syncer, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Status(http.StatusNoContent)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var payload RefreshPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		ctx := c.Request.Context()
		if payload.CorrelationId != "" {
			ctx = utils.SetCorrelationIdInContext(ctx, payload.CorrelationId)
		}

		release, ok := utils.ObtainLock(ctx, refreshLockKey, 2*time.Minute, "sheetsync", "PubSubPushHandler")
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		defer release()

		if _, err := syncer.Refresh(ctx, models.LoadTriggeredPubSub); err != nil {
			config.LogError(config.GetLogger(), "sheetsync", "PubSubPushHandler", "Error refreshing sheets", envelope.Message.ID, err)
		}
		c.Status(http.StatusNoContent)
	}
}
