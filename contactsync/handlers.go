package contactsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// Service owns the long-lived sync collaborators and exposes the gin
// handlers. The ledger client is rebuilt per request from the stored
// connection row so credential changes take effect without a restart.
type Service struct {
	logs     *LogStore
	identity IdentityStore
	logger   *logrus.Logger

	newLedger     func(ctx context.Context) (LedgerClient, error)
	getConnection func(ctx context.Context) (*models.LedgerConnection, error)
	syncEnabled   func() bool
}

func NewService(logger *logrus.Logger) *Service {
	s := &Service{
		logs:     NewLogStore(logger),
		identity: NewIdentityBridge(logger),
		logger:   logger,
	}
	s.newLedger = s.ledgerFromConnection
	s.getConnection = func(ctx context.Context) (*models.LedgerConnection, error) {
		return models.GetLedgerConnection(ctx, models.LedgerPluginXero)
	}
	s.syncEnabled = config.ContactSyncEnabled
	return s
}

func (s *Service) Logs() *LogStore {
	return s.logs
}

// ledgerFromConnection builds a registry client from the stored connection
// row, wiring token rotation back into the row.
func (s *Service) ledgerFromConnection(ctx context.Context) (LedgerClient, error) {
	conn, err := s.getConnection(ctx)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != models.LedgerStatusConnected {
		return nil, errors.New("ledger is not connected")
	}

	cfg := xero.Config{
		TenantId:     conn.TenantId,
		ClientId:     conn.ClientId,
		ClientSecret: conn.ClientSecret,
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		OnTokenRefresh: func(accessToken string, refreshToken string, expiresAt time.Time) error {
			return models.SaveLedgerToken(context.Background(), conn.ID, accessToken, refreshToken, expiresAt)
		},
	}
	if conn.TokenExpiresAt != nil {
		cfg.TokenExpiry = *conn.TokenExpiresAt
	}
	return xero.NewClient(cfg)
}

func (s *Service) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		conn, err := models.GetLedgerConnection(c.Request.Context(), models.LedgerPluginXero)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := StatusResponse{
			Connection:  ConnectionResponse{Status: models.LedgerStatusDisconnected},
			SyncEnabled: config.ContactSyncEnabled(),
		}
		if conn != nil {
			resp.Connection = ConnectionResponse{
				Status:   conn.Status,
				TenantId: conn.TenantId,
			}
			resp.LastSyncAt = formatTime(conn.LastSyncAt)
			resp.LastSuccessSyncAt = formatTime(conn.LastSuccessSyncAt)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Service) ConnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := validate.Struct(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		db := config.GetDB().WithContext(ctx)

		conn, err := models.GetLedgerConnection(ctx, models.LedgerPluginXero)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		if conn == nil {
			conn = &models.LedgerConnection{
				Plugin:       models.LedgerPluginXero,
				Status:       models.LedgerStatusConnected,
				TenantId:     req.TenantId,
				ClientId:     req.ClientId,
				ClientSecret: req.ClientSecret,
				AccessToken:  req.AccessToken,
				RefreshToken: req.RefreshToken,
			}
			if err := db.Create(conn).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			if err := db.Model(conn).Updates(map[string]interface{}{
				"status":        models.LedgerStatusConnected,
				"tenant_id":     req.TenantId,
				"client_id":     req.ClientId,
				"client_secret": req.ClientSecret,
				"access_token":  req.AccessToken,
				"refresh_token": req.RefreshToken,
				"updated_at":    now,
			}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Service) DisconnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		ctx := c.Request.Context()
		conn, err := models.GetLedgerConnection(ctx, models.LedgerPluginXero)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if conn == nil {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		if err := config.GetDB().WithContext(ctx).Model(conn).Updates(map[string]interface{}{
			"status":        models.LedgerStatusDisconnected,
			"access_token":  "",
			"refresh_token": "",
			"updated_at":    time.Now(),
		}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// TestConnectionHandler verifies the stored credentials with a live
// organisation read. Failures come back in the body rather than as HTTP
// errors so the admin UI can show them inline.
func (s *Service) TestConnectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		ctx := c.Request.Context()
		ledger, err := s.newLedger(ctx)
		if err != nil {
			c.JSON(http.StatusOK, TestConnectionResponse{Connected: false, Error: err.Error()})
			return
		}

		org, err := ledger.Organisation(ctx)
		if err != nil {
			c.JSON(http.StatusOK, TestConnectionResponse{Connected: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, TestConnectionResponse{Connected: true, Organisation: org.Name})
	}
}

func (s *Service) LogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		entries := s.logs.Entries()
		items := make([]LogEntryResponse, 0, len(entries))
		for _, entry := range entries {
			items = append(items, mapLogEntry(entry))
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func (s *Service) ClearLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		s.logs.Clear()
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// SyncOrderHandler runs one order through the orchestrator synchronously.
// This is the manual path; the push endpoint covers the event-driven one.
func (s *Service) SyncOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}

		var event commerce.OrderStatusEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if event.Order.ID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order id is required"})
			return
		}

		state, err := s.runSync(c.Request.Context(), event)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": string(state)})
	}
}

// runSync checks the feature flag and the stored connection, then hands the
// event to a fresh orchestrator and records the attempt time on the
// connection row. Configuration failures are written to the audit log here
// so the push path, which acks regardless, still leaves a trace.
func (s *Service) runSync(ctx context.Context, event commerce.OrderStatusEvent) (SyncState, error) {
	if !s.syncEnabled() {
		s.logs.Success("contact sync disabled; order skipped", event.Order.ID, "")
		return StateDone, nil
	}

	conn, err := s.getConnection(ctx)
	if err != nil {
		s.logs.Error(fmt.Sprintf("could not read ledger connection: %v", err), event.Order.ID)
		return StateFailed, err
	}
	if conn == nil || conn.Status != models.LedgerStatusConnected {
		s.logs.Error("ledger is not connected; order not synced", event.Order.ID)
		return StateFailed, errors.New("ledger is not connected")
	}

	ledger, err := s.newLedger(ctx)
	if err != nil {
		s.logs.Error(fmt.Sprintf("could not initialize ledger client: %v", err), event.Order.ID)
		return StateFailed, err
	}

	orchestrator := NewOrchestrator(s.identity, ledger, s.logs, s.logger)
	state := orchestrator.SyncOrder(ctx, event)

	if err := models.TouchLedgerSync(ctx, conn.ID, time.Now(), state == StateDone); err != nil {
		config.LogError(s.logger, "contactsync", "runSync", "touch ledger sync", nil, err)
	}
	return state, nil
}

func requireAdmin(c *gin.Context) bool {
	if !utils.GetIsAdminFromContext(c.Request.Context()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

func mapLogEntry(entry LogEntry) LogEntryResponse {
	resp := LogEntryResponse{
		Timestamp:       entry.Timestamp.UTC().Format(time.RFC3339),
		Kind:            string(entry.Kind),
		Message:         entry.Message,
		LedgerContactId: entry.LedgerContactId,
	}
	if entry.OrderId != 0 {
		orderId := entry.OrderId
		resp.OrderId = &orderId
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
