package contactsync

// NOTE: these tests exercise runSync's configuration checks and the push
// endpoint without a database. The connection lookup, client constructor,
// and feature flag are swapped for in-memory stand-ins, the same way the
// orchestrator tests swap their collaborators.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"github.com/gin-gonic/gin"
)

func newTestService() *Service {
	s := NewService(testLogger())
	s.syncEnabled = func() bool { return true }
	return s
}

func TestRunSync_NotConnectedWritesAuditError(t *testing.T) {
	s := newTestService()
	s.getConnection = func(ctx context.Context) (*models.LedgerConnection, error) {
		return &models.LedgerConnection{Status: models.LedgerStatusDisconnected}, nil
	}

	state, err := s.runSync(context.Background(), paidOrderEvent(commerce.Order{ID: 301}))
	if state != StateFailed || err == nil {
		t.Fatalf("expected Failed with error, got state=%v err=%v", state, err)
	}

	entries := s.logs.Entries()
	if len(entries) != 1 || entries[0].Kind != LogKindError {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
	if entries[0].OrderId != 301 {
		t.Fatalf("expected entry for order 301, got %d", entries[0].OrderId)
	}
}

func TestRunSync_DisabledBypassesConnectionCheck(t *testing.T) {
	s := newTestService()
	s.syncEnabled = func() bool { return false }
	s.getConnection = func(ctx context.Context) (*models.LedgerConnection, error) {
		t.Error("connection should not be read when sync is disabled")
		return nil, nil
	}

	state, err := s.runSync(context.Background(), paidOrderEvent(commerce.Order{ID: 302}))
	if state != StateDone || err != nil {
		t.Fatalf("expected Done without error, got state=%v err=%v", state, err)
	}

	entries := s.logs.Entries()
	if len(entries) != 1 || entries[0].Kind != LogKindSuccess {
		t.Fatalf("expected one success entry, got %+v", entries)
	}
}

func TestRunSync_ClientInitFailureWritesAuditError(t *testing.T) {
	s := newTestService()
	s.getConnection = func(ctx context.Context) (*models.LedgerConnection, error) {
		return &models.LedgerConnection{ID: 1, Status: models.LedgerStatusConnected}, nil
	}
	s.newLedger = func(ctx context.Context) (LedgerClient, error) {
		return nil, errors.New("bad credentials")
	}

	state, err := s.runSync(context.Background(), paidOrderEvent(commerce.Order{ID: 303}))
	if state != StateFailed || err == nil {
		t.Fatalf("expected Failed with error, got state=%v err=%v", state, err)
	}

	entries := s.logs.Entries()
	if len(entries) != 1 || entries[0].Kind != LogKindError || entries[0].OrderId != 303 {
		t.Fatalf("expected one error entry for order 303, got %+v", entries)
	}
}

func TestPushHandler_AcksAndLogsWhenNotConnected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := newTestService()
	s.getConnection = func(ctx context.Context) (*models.LedgerConnection, error) {
		return nil, nil
	}

	router := gin.New()
	router.POST("/pubsub/contact-sync", s.PubSubPushHandler())

	data, err := json.Marshal(paidOrderEvent(commerce.Order{ID: 304}))
	if err != nil {
		t.Fatal(err)
	}
	var envelope PubSubPushEnvelope
	envelope.Message.Data = data
	envelope.Subscription = "projects/demo/subscriptions/contact-sync"
	body, err := json.Marshal(envelope)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pubsub/contact-sync", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	entries := s.logs.Entries()
	if len(entries) != 1 || entries[0].Kind != LogKindError || entries[0].OrderId != 304 {
		t.Fatalf("expected an error audit entry for order 304, got %+v", entries)
	}
}
