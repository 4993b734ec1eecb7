package contactsync

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxLogEntries caps the audit log. The 101st append evicts the oldest
// entry; entries are kept newest-last.
const MaxLogEntries = 100

type LogKind string

const (
	LogKindSuccess LogKind = "success"
	LogKindError   LogKind = "error"
)

type LogEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	Kind            LogKind   `json:"kind"`
	Message         string    `json:"message"`
	OrderId         int       `json:"order_id"` // 0 when not tied to an order
	LedgerContactId string    `json:"ledger_contact_id"`
}

// LogStore is the bounded, append-only audit record of sync outcomes.
// Entries are mirrored to the structured logger so operators keep a durable
// trail beyond the ring.
type LogStore struct {
	mu      sync.Mutex
	entries []LogEntry
	logger  *logrus.Logger
	now     func() time.Time
}

func NewLogStore(logger *logrus.Logger) *LogStore {
	return &LogStore{
		logger: logger,
		now:    time.Now,
	}
}

func (s *LogStore) Success(message string, orderId int, ledgerContactId string) {
	s.append(LogEntry{
		Kind:            LogKindSuccess,
		Message:         message,
		OrderId:         orderId,
		LedgerContactId: ledgerContactId,
	})
}

func (s *LogStore) Error(message string, orderId int) {
	s.append(LogEntry{
		Kind:    LogKindError,
		Message: message,
		OrderId: orderId,
	})
}

func (s *LogStore) append(entry LogEntry) {
	entry.Timestamp = s.now()

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > MaxLogEntries {
		s.entries = s.entries[len(s.entries)-MaxLogEntries:]
	}
	s.mu.Unlock()

	if s.logger == nil {
		return
	}
	fields := logrus.Fields{
		"module": "contactsync",
	}
	if entry.OrderId != 0 {
		fields["order_id"] = entry.OrderId
	}
	if entry.LedgerContactId != "" {
		fields["ledger_contact_id"] = entry.LedgerContactId
	}
	if entry.Kind == LogKindError {
		s.logger.WithFields(fields).Error(entry.Message)
	} else {
		s.logger.WithFields(fields).Info(entry.Message)
	}
}

// Entries returns a copy, oldest first.
func (s *LogStore) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *LogStore) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
