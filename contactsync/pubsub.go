package contactsync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PublishOrderEvent emits an order status change for the push subscription
// to deliver back. The storefront webhook receiver is the producer; manual
// re-syncs skip this and go straight through the handler.
func PublishOrderEvent(ctx context.Context, event commerce.OrderStatusEvent) error {
	topicName := strings.TrimSpace(os.Getenv("CONTACT_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "contact-sync-orders"
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topic := client.Topic(topicName)
	if envBoolDefault("CONTACT_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	if event.CorrelationId == "" {
		event.CorrelationId = uuid.NewString()
	}
	data, _ := json.Marshal(event)
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// OrderEventHandler receives order status changes from the storefront
// webhook and hands them to the push subscription. Ingestion is decoupled
// from sync so a slow registry never blocks the storefront.
func (s *Service) OrderEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var event commerce.OrderStatusEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if event.Order.ID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order id is required"})
			return
		}

		if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok && event.CorrelationId == "" {
			event.CorrelationId = cid
		}

		if err := PublishOrderEvent(c.Request.Context(), event); err != nil {
			config.LogError(s.logger, "contactsync", "OrderEventHandler", "publish order event", event.Order.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue order event"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"success": true})
	}
}

// PubSubPushHandler accepts pushed order events. It always returns 204:
// malformed payloads are unrecoverable and must not be redelivered, and
// sync failures are already recorded in the audit log.
func (s *Service) PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolDefault("ENABLE_CONTACT_SYNC_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var event commerce.OrderStatusEvent
		if err := json.Unmarshal(envelope.Message.Data, &event); err != nil {
			c.Status(204)
			return
		}
		if event.Order.ID == 0 {
			c.Status(204)
			return
		}

		ctx := c.Request.Context()
		if event.CorrelationId != "" {
			ctx = utils.SetCorrelationIdInContext(ctx, event.CorrelationId)
		}

		_, _ = s.runSync(ctx, event)
		c.Status(204)
	}
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
