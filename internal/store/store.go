package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ignite/affiliate-crm/internal/config"
	"github.com/ignite/affiliate-crm/internal/domain"
	"github.com/ignite/affiliate-crm/internal/fields"
	"github.com/ignite/affiliate-crm/internal/pkg/logger"
)

// Store is the shared record store behind the dashboard: the full affiliate
// collection plus notifications, audit log, upload history and custom field
// definitions. All collections are cached in memory and written back whole
// on every change; there is no partial-update path.
type Store struct {
	config config.StorageConfig
	mu     sync.RWMutex

	// Badger storage (optional)
	kv *badgerBackend

	// S3 snapshot backup (optional)
	snapshots *S3Snapshots

	affiliates    []domain.AffiliateAccount
	notifications []Notification
	auditLog      []AuditEntry
	uploadHistory []UploadRecord
	customFields  []fields.Descriptor

	subMu       sync.Mutex
	subscribers map[int]func([]domain.AffiliateAccount)
	nextSub     int
}

// New creates a Store using the configured backend.
func New(cfg config.StorageConfig) (*Store, error) {
	s := &Store{
		config:        cfg,
		affiliates:    make([]domain.AffiliateAccount, 0),
		notifications: make([]Notification, 0),
		auditLog:      make([]AuditEntry, 0),
		uploadHistory: make([]UploadRecord, 0),
		subscribers:   make(map[int]func([]domain.AffiliateAccount)),
	}

	switch cfg.Type {
	case "badger":
		kv, err := openBadger(cfg.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("opening badger storage: %w", err)
		}
		s.kv = kv
		if err := s.loadFromBadger(); err != nil {
			logger.Warn("could not load existing data from badger", "error", err)
		}

	case "local", "":
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		if err := s.loadFromDisk(); err != nil {
			// Not fatal - just log and continue
			logger.Warn("could not load existing data", "error", err)
		}

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	if cfg.S3Bucket != "" {
		snaps, err := NewS3Snapshots(context.Background(), cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing S3 snapshots: %w", err)
		}
		s.snapshots = snaps

		// Cold start with an empty collection: pull the latest snapshot so a
		// fresh instance picks up where the last one left off.
		if len(s.affiliates) == 0 {
			restored, err := snaps.Restore(context.Background())
			if err != nil {
				logger.Warn("no snapshot restored", "error", err)
			} else if len(restored) > 0 {
				s.affiliates = restored
				if err := s.persistLocked("affiliates", s.affiliates); err != nil {
					logger.Warn("could not persist restored snapshot", "error", err)
				}
				logger.Info("restored affiliates from snapshot", "count", len(restored))
			}
		}
	}

	return s, nil
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}

// GetAffiliates returns a copy of the full affiliate collection.
func (s *Store) GetAffiliates() []domain.AffiliateAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AffiliateAccount, len(s.affiliates))
	copy(out, s.affiliates)
	return out
}

// GetAffiliate looks up one account by id.
func (s *Store) GetAffiliate(id string) (domain.AffiliateAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.affiliates {
		if a.ID == id {
			return a, true
		}
	}
	return domain.AffiliateAccount{}, false
}

// ExistingDomains returns the set of normalized domains currently stored,
// used by the import validator for duplicate detection.
func (s *Store) ExistingDomains() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.affiliates))
	for _, a := range s.affiliates {
		out[domain.Normalize(a.Domain)] = true
	}
	return out
}

// SaveAffiliates replaces the entire affiliate collection and persists it.
// Subscribers are invoked synchronously after a successful write. When S3
// snapshots are configured a backup copy is uploaded; snapshot failures are
// logged, not returned.
func (s *Store) SaveAffiliates(ctx context.Context, affiliates []domain.AffiliateAccount) error {
	s.mu.Lock()
	s.affiliates = make([]domain.AffiliateAccount, len(affiliates))
	copy(s.affiliates, affiliates)
	err := s.persistLocked("affiliates", s.affiliates)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("saving affiliates: %w", err)
	}

	if s.snapshots != nil {
		if err := s.snapshots.Upload(ctx, affiliates); err != nil {
			logger.Warn("affiliate snapshot upload failed", "error", err)
		}
	}

	s.notifySubscribers(affiliates)
	return nil
}

// Subscribe registers a listener invoked synchronously after every
// SaveAffiliates. The returned function unsubscribes it.
func (s *Store) Subscribe(fn func([]domain.AffiliateAccount)) func() {
	s.subMu.Lock()
	token := s.nextSub
	s.nextSub++
	s.subscribers[token] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, token)
		s.subMu.Unlock()
	}
}

func (s *Store) notifySubscribers(affiliates []domain.AffiliateAccount) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, fn := range s.subscribers {
		fn(affiliates)
	}
}

// LoadFields returns the persisted custom field descriptors.
func (s *Store) LoadFields() ([]fields.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]fields.Descriptor, len(s.customFields))
	copy(out, s.customFields)
	return out, nil
}

// SaveFields persists the custom field descriptors.
func (s *Store) SaveFields(custom []fields.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customFields = make([]fields.Descriptor, len(custom))
	copy(s.customFields, custom)
	return s.persistLocked("fields", s.customFields)
}

// Stats returns collection sizes for the health endpoint.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"affiliates":    len(s.affiliates),
		"notifications": len(s.notifications),
		"audit_entries": len(s.auditLog),
		"uploads":       len(s.uploadHistory),
		"custom_fields": len(s.customFields),
	}
}

// persistLocked writes one collection through the active backend.
// Callers must hold s.mu.
func (s *Store) persistLocked(category string, data interface{}) error {
	if s.kv != nil {
		return s.kv.put(category, data)
	}
	return s.saveToFile(category, data)
}

// saveToFile saves a collection to a JSON file
func (s *Store) saveToFile(category string, data interface{}) error {
	dir := filepath.Join(s.config.LocalPath, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, "all.json")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// loadFromDisk loads existing collections from the local path
func (s *Store) loadFromDisk() error {
	load := func(category string, target interface{}) {
		path := filepath.Join(s.config.LocalPath, category, "all.json")
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		if err := json.Unmarshal(data, target); err != nil {
			logger.Warn("skipping unreadable collection", "category", category, "error", err)
		}
	}

	load("affiliates", &s.affiliates)
	load("notifications", &s.notifications)
	load("audit", &s.auditLog)
	load("uploads", &s.uploadHistory)
	load("fields", &s.customFields)
	return nil
}

func (s *Store) loadFromBadger() error {
	load := func(category string, target interface{}) error {
		if _, err := s.kv.get(category, target); err != nil {
			return fmt.Errorf("loading %s: %w", category, err)
		}
		return nil
	}

	for category, target := range map[string]interface{}{
		"affiliates":    &s.affiliates,
		"notifications": &s.notifications,
		"audit":         &s.auditLog,
		"uploads":       &s.uploadHistory,
		"fields":        &s.customFields,
	} {
		if err := load(category, target); err != nil {
			return err
		}
	}
	return nil
}
