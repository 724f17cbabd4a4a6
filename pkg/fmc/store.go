package fmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StoreType represents the type of table snapshot backend.
type StoreType string

const (
	// StoreTypeMemory keeps snapshots in process memory.
	StoreTypeMemory StoreType = "memory"

	// StoreTypeNATS keeps snapshots in a NATS JetStream key-value bucket.
	StoreTypeNATS StoreType = "nats"

	// StoreTypeNone disables snapshots.
	StoreTypeNone StoreType = "none"
)

// Static store errors.
var (
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS store")
	ErrUnsupportedStoreType = errors.New("unsupported store type")
	ErrStoreDisabled        = errors.New("table store disabled")
	ErrSnapshotNotFound     = errors.New("table snapshot not found")
)

// TableSnapshot is the persisted content of one object table.
type TableSnapshot struct {
	Server  string       `json:"server"`
	Type    ObjectType   `json:"type"`
	Entries []CacheEntry `json:"entries"`
	SavedAt time.Time    `json:"saved_at"`
}

// TableStore persists object table snapshots between runs.
type TableStore interface {
	Save(ctx context.Context, snapshot *TableSnapshot) error
	Load(ctx context.Context, server string, objType ObjectType) (*TableSnapshot, error)
	Delete(ctx context.Context, server string, objType ObjectType) error
	Close() error
}

// TableStoreConfig configures the snapshot backend.
type TableStoreConfig struct {
	Type StoreType

	// NATS KV configuration, required for StoreTypeNATS.
	NATS *NATSKVConfig
}

// NATSKVConfig configures the NATS key-value backend.
type NATSKVConfig struct {
	URL    string
	Bucket string
	// TTL expires snapshots. Zero keeps them forever.
	TTL time.Duration
}

// DefaultTableStoreConfig returns the default in-memory store configuration.
func DefaultTableStoreConfig() *TableStoreConfig {
	return &TableStoreConfig{Type: StoreTypeMemory}
}

// NewTableStoreFromConfig creates a snapshot backend from configuration.
func NewTableStoreFromConfig(ctx context.Context, config *TableStoreConfig) (TableStore, error) {
	if config == nil {
		config = DefaultTableStoreConfig()
	}

	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemoryTableStore(), nil

	case StoreTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSTableStore(ctx, config.NATS)

	case StoreTypeNone:
		return NewNoOpTableStore(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStoreType, config.Type)
	}
}

func snapshotKey(server string, objType ObjectType) string {
	return server + "|" + string(objType)
}

// MemoryTableStore keeps snapshots in a map.
type MemoryTableStore struct {
	mu        sync.RWMutex
	snapshots map[string]*TableSnapshot
}

// NewMemoryTableStore creates an empty in-memory store.
func NewMemoryTableStore() *MemoryTableStore {
	return &MemoryTableStore{snapshots: make(map[string]*TableSnapshot)}
}

// Save stores a copy of the snapshot.
func (s *MemoryTableStore) Save(_ context.Context, snapshot *TableSnapshot) error {
	cp := *snapshot
	cp.Entries = append([]CacheEntry(nil), snapshot.Entries...)

	s.mu.Lock()
	s.snapshots[snapshotKey(snapshot.Server, snapshot.Type)] = &cp
	s.mu.Unlock()

	return nil
}

// Load returns a copy of the stored snapshot.
func (s *MemoryTableStore) Load(_ context.Context, server string, objType ObjectType) (*TableSnapshot, error) {
	s.mu.RLock()
	snapshot, ok := s.snapshots[snapshotKey(server, objType)]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrSnapshotNotFound, server, objType)
	}

	cp := *snapshot
	cp.Entries = append([]CacheEntry(nil), snapshot.Entries...)

	return &cp, nil
}

// Delete removes a snapshot.
func (s *MemoryTableStore) Delete(_ context.Context, server string, objType ObjectType) error {
	s.mu.Lock()
	delete(s.snapshots, snapshotKey(server, objType))
	s.mu.Unlock()

	return nil
}

// Close does nothing.
func (s *MemoryTableStore) Close() error {
	return nil
}

// NoOpTableStore is a store that keeps nothing.
type NoOpTableStore struct{}

// NewNoOpTableStore creates a new no-op store.
func NewNoOpTableStore() *NoOpTableStore {
	return &NoOpTableStore{}
}

// Save does nothing.
func (NoOpTableStore) Save(context.Context, *TableSnapshot) error { return nil }

// Load always fails.
func (NoOpTableStore) Load(context.Context, string, ObjectType) (*TableSnapshot, error) {
	return nil, ErrStoreDisabled
}

// Delete does nothing.
func (NoOpTableStore) Delete(context.Context, string, ObjectType) error { return nil }

// Close does nothing.
func (NoOpTableStore) Close() error { return nil }

// NATSTableStore keeps snapshots in a JetStream key-value bucket.
type NATSTableStore struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSTableStore connects to NATS and opens (or creates) the bucket.
func NewNATSTableStore(ctx context.Context, config *NATSKVConfig) (*NATSTableStore, error) {
	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultSnapshotBucket
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "FMC object table snapshots",
		TTL:         config.TTL,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	return &NATSTableStore{conn: conn, kv: kv}, nil
}

// natsKey maps a server URL and type to a valid KV key.
func natsKey(server string, objType ObjectType) string {
	out := make([]byte, 0, len(server)+len(objType)+1)

	for i := 0; i < len(server); i++ {
		c := server[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}

	out = append(out, '.')
	out = append(out, objType...)

	return string(out)
}

// Save writes the snapshot as JSON.
func (s *NATSTableStore) Save(ctx context.Context, snapshot *TableSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	_, err = s.kv.Put(ctx, natsKey(snapshot.Server, snapshot.Type), data)
	if err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}

	return nil
}

// Load reads a snapshot.
func (s *NATSTableStore) Load(ctx context.Context, server string, objType ObjectType) (*TableSnapshot, error) {
	entry, err := s.kv.Get(ctx, natsKey(server, objType))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrSnapshotNotFound, server, objType)
		}

		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snapshot TableSnapshot

	err = json.Unmarshal(entry.Value(), &snapshot)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	return &snapshot, nil
}

// Delete removes a snapshot.
func (s *NATSTableStore) Delete(ctx context.Context, server string, objType ObjectType) error {
	err := s.kv.Delete(ctx, natsKey(server, objType))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	return nil
}

// Close drains the NATS connection.
func (s *NATSTableStore) Close() error {
	return s.conn.Drain()
}
