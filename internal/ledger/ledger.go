// Package ledger keeps the persistent list of words a learner has missed
// and not yet mastered.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/example/vocolatin/pkg/models"
)

// DefaultKey is the storage key for a single-learner ledger.
const DefaultKey = "vocolatin_missed_words"

// ChatKey returns the key of the ledger that belongs to a chat.
func ChatKey(base string, chatID int64) string {
	if base == "" {
		base = DefaultKey
	}
	return base + ":" + strconv.FormatInt(chatID, 10)
}

// ParseChatKey extracts the chat id from a key made by ChatKey.
func ParseChatKey(base, key string) (int64, bool) {
	if base == "" {
		base = DefaultKey
	}
	rest, ok := strings.CutPrefix(key, base+":")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Storage holds serialized values under named keys.
type Storage interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key, value string) error
}

// Ledger is an ordered collection of word records, unique by word.
// Every mutation is persisted before the mutating call returns.
type Ledger struct {
	mu      sync.RWMutex
	storage Storage
	key     string
	log     *slog.Logger
	entries []models.WordRecord
}

// New creates an empty ledger bound to key in storage. Call Load to read
// previously persisted entries.
func New(storage Storage, key string, log *slog.Logger) *Ledger {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		storage: storage,
		key:     key,
		log:     log.With("ledger", key),
	}
}

// Open creates a ledger and loads it from storage.
func Open(ctx context.Context, storage Storage, key string, log *slog.Logger) *Ledger {
	l := New(storage, key, log)
	l.Load(ctx)
	return l
}

// Key returns the storage key of the ledger.
func (l *Ledger) Key() string {
	return l.key
}

// Load replaces the in-memory entries with the persisted ones. Missing or
// unreadable data leaves the ledger empty.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil

	raw, found, err := l.storage.Get(ctx, l.key)
	if err != nil {
		l.log.Warn("failed to read saved words, starting empty", "error", err)
		return
	}
	if !found || raw == "" {
		return
	}

	var saved []models.WordRecord
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		l.log.Warn("failed to decode saved words, starting empty", "error", err)
		return
	}

	// Stored data may predate the uniqueness rule or have been edited by hand.
	seen := make(map[string]bool, len(saved))
	for _, w := range saved {
		if seen[w.Key()] {
			continue
		}
		seen[w.Key()] = true
		l.entries = append(l.entries, w)
	}
}

// Add appends word unless an entry with the same key exists.
// It reports whether the ledger changed.
func (l *Ledger) Add(ctx context.Context, word models.WordRecord) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(word.Key()) >= 0 {
		return false
	}
	l.entries = append(l.entries, word)
	l.persistLocked(ctx)
	return true
}

// Remove deletes the entry keyed key. It reports whether the ledger changed.
func (l *Ledger) Remove(ctx context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(key)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
	l.persistLocked(ctx)
	return true
}

// Persist writes the full ledger to storage.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.write(ctx)
}

// Snapshot returns a copy of the entries in insertion order.
func (l *Ledger) Snapshot() []models.WordRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.WordRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Contains reports whether an entry keyed key exists.
func (l *Ledger) Contains(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOf(key) >= 0
}

func (l *Ledger) indexOf(key string) int {
	for i, w := range l.entries {
		if w.Key() == key {
			return i
		}
	}
	return -1
}

// persistLocked writes the ledger and only logs a failure.
func (l *Ledger) persistLocked(ctx context.Context) {
	if err := l.write(ctx); err != nil {
		l.log.Warn("failed to persist missed words", "error", err, "count", len(l.entries))
	}
}

func (l *Ledger) write(ctx context.Context) error {
	entries := l.entries
	if entries == nil {
		entries = []models.WordRecord{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode missed words: %w", err)
	}
	if err := l.storage.Put(ctx, l.key, string(data)); err != nil {
		return fmt.Errorf("failed to store missed words: %w", err)
	}
	return nil
}
