// Package daystore persists day entries as JSON documents in a
// quota-bounded key/value store. Loads never fail; saves normalize the
// entry, and a full store is relieved by evicting the least recently edited
// days before a single retry.
package daystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/logger"
	"github.com/julianstephens/unfilled/internal/models"
	"github.com/julianstephens/unfilled/internal/storage"
)

var (
	ErrInvalidDayID = errors.New("invalid day id")
	// ErrStorageFull is returned when a save still fails after eviction.
	ErrStorageFull = errors.New("storage full: could not save day entry even after evicting old entries")
)

// Options tunes a Store. Zero values fall back to the package defaults.
type Options struct {
	EvictionRatio float64
	Debounce      time.Duration
	// OnError receives failures from debounced saves.
	OnError func(dayID string, err error)
	// OnEvict is told which days were evicted to make room.
	OnEvict func(dayIDs []string)
	Now     func() time.Time
}

type Store struct {
	kv   storage.KV
	opts Options

	// writeMu serializes day writes, flushes and deletes.
	writeMu sync.Mutex

	mu            sync.Mutex
	pending       map[string]pendingWrite
	seq           uint64
	evictionRatio float64
	debounced     func(f func())
}

type pendingWrite struct {
	entry models.DayEntry
	seq   uint64
}

func New(kv storage.KV, opts Options) *Store {
	if opts.EvictionRatio <= 0 || opts.EvictionRatio > 1 {
		opts.EvictionRatio = constants.DefaultEvictionRatio
	}
	if opts.Debounce <= 0 {
		opts.Debounce = constants.DefaultSaveDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		kv:            kv,
		opts:          opts,
		pending:       make(map[string]pendingWrite),
		evictionRatio: opts.EvictionRatio,
		debounced:     debounce.New(opts.Debounce),
	}
}

// DayKey is the storage key of a day entry.
func DayKey(dayID string) string {
	return constants.DayKeyPrefix + dayID
}

// SetEvictionRatio changes the share of entries evicted on a quota failure.
// Values outside (0,1] are ignored.
func (s *Store) SetEvictionRatio(r float64) {
	if r <= 0 || r > 1 || math.IsNaN(r) {
		return
	}
	s.mu.Lock()
	s.evictionRatio = r
	s.mu.Unlock()
}

func (s *Store) EvictionRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictionRatio
}

// Load returns the stored entry for dayID, a pending debounced write for it,
// or a fresh empty entry. It never fails; storage and decode errors are
// logged and produce an empty entry.
func (s *Store) Load(ctx context.Context, dayID, mode string) models.DayEntry {
	s.mu.Lock()
	if p, ok := s.pending[dayID]; ok {
		s.mu.Unlock()
		return Normalize(p.entry)
	}
	s.mu.Unlock()

	raw, ok, err := s.kv.GetItem(ctx, DayKey(dayID))
	if err != nil {
		logger.Warn("Failed to read day entry", "dayId", dayID, "error", err)
		return models.NewEmptyDayEntry(dayID, mode)
	}
	if !ok {
		return models.NewEmptyDayEntry(dayID, mode)
	}

	var entry models.DayEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logger.Warn("Corrupt day entry, starting fresh", "dayId", dayID, "error", err)
		return models.NewEmptyDayEntry(dayID, mode)
	}

	if entry.ID == "" {
		entry.ID = dayID
	}
	if entry.DateISO == "" {
		entry.DateISO = dayID
	}
	if entry.Mode == "" {
		entry.Mode = mode
	}
	if entry.Notes == nil {
		entry.Notes = []models.Note{}
	}
	if entry.Tasks == nil {
		entry.Tasks = []models.Task{}
	}
	entry.Lifecycle = models.ComputeLifecycle(entry)
	return entry
}

// Normalize applies the persistence rules to a copy of entry: lifecycle
// recomputed, inline media payloads dropped, notes and tasks capped.
func Normalize(entry models.DayEntry) models.DayEntry {
	if entry.DateISO == "" {
		entry.DateISO = entry.ID
	}
	if entry.Mode == "" {
		entry.Mode = constants.DefaultCalendarMode
	}

	if entry.Media != nil {
		media := *entry.Media
		if strings.HasPrefix(media.URL, "data:") || strings.HasPrefix(media.URL, "blob:") {
			media.URL = ""
		}
		entry.Media = &media
	}

	notes := make([]models.Note, 0, min(len(entry.Notes), constants.MaxNotesPerDay))
	for i, n := range entry.Notes {
		if i >= constants.MaxNotesPerDay {
			break
		}
		n.Text = truncateRunes(n.Text, constants.MaxNoteLength)
		notes = append(notes, n)
	}
	entry.Notes = notes

	tasks := make([]models.Task, 0, min(len(entry.Tasks), constants.MaxTasksPerDay))
	for i, t := range entry.Tasks {
		if i >= constants.MaxTasksPerDay {
			break
		}
		t.Text = truncateRunes(t.Text, constants.MaxTaskLength)
		tasks = append(tasks, t)
	}
	entry.Tasks = tasks

	entry.Lifecycle = models.ComputeLifecycle(entry)
	return entry
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Save normalizes and persists entry, returning what was written. When the
// store is over quota the oldest entries are evicted and the write is
// retried exactly once. A queued debounced edit of the same day is
// superseded and dropped.
func (s *Store) Save(ctx context.Context, entry models.DayEntry) (models.DayEntry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	delete(s.pending, entry.ID)
	s.mu.Unlock()
	return s.write(ctx, entry)
}

func (s *Store) write(ctx context.Context, entry models.DayEntry) (models.DayEntry, error) {
	if err := models.ValidateDayID(entry.ID); err != nil {
		return models.DayEntry{}, fmt.Errorf("%w: %v", ErrInvalidDayID, err)
	}

	entry = Normalize(entry)
	entry.LastEditedAt = s.opts.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return models.DayEntry{}, fmt.Errorf("failed to encode day entry %s: %w", entry.ID, err)
	}
	if len(data) > constants.DayEntryWarnBytes {
		logger.Warn("Day entry is unusually large", "dayId", entry.ID, "sizeKB", float64(len(data))/1024)
	}

	err = s.kv.SetItem(ctx, DayKey(entry.ID), string(data))
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		return models.DayEntry{}, fmt.Errorf("failed to save day entry %s: %w", entry.ID, err)
	}

	logger.Warn("Storage quota exceeded, evicting old day entries", "dayId", entry.ID)
	evicted, evictErr := s.evictOldest(ctx)
	if evictErr != nil {
		logger.Error("Eviction failed", "error", evictErr)
	}
	if len(evicted) > 0 && s.opts.OnEvict != nil {
		s.opts.OnEvict(evicted)
	}

	if err := s.kv.SetItem(ctx, DayKey(entry.ID), string(data)); err != nil {
		logger.Error("Save failed after eviction", "dayId", entry.ID, "evicted", len(evicted), "error", err)
		return models.DayEntry{}, fmt.Errorf("%w (%s): %v", ErrStorageFull, entry.ID, err)
	}
	logger.Info("Saved day entry after eviction", "dayId", entry.ID, "evicted", len(evicted))
	return entry, nil
}

type keyAge struct {
	key    string
	edited time.Time
}

// evictOldest removes the least recently edited share of day entries.
func (s *Store) evictOldest(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, constants.DayKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list day entries: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	ages := make([]keyAge, 0, len(keys))
	for _, k := range keys {
		var e models.DayEntry
		if raw, ok, err := s.kv.GetItem(ctx, k); err == nil && ok {
			_ = json.Unmarshal([]byte(raw), &e)
		}
		ages = append(ages, keyAge{key: k, edited: e.LastEdited()})
	}
	sort.SliceStable(ages, func(i, j int) bool {
		return ages[i].edited.Before(ages[j].edited)
	})

	n := int(math.Ceil(float64(len(ages)) * s.EvictionRatio()))
	n = max(1, min(n, len(ages)))

	evicted := make([]string, 0, n)
	for _, a := range ages[:n] {
		if err := s.kv.RemoveItem(ctx, a.key); err != nil {
			return evicted, fmt.Errorf("failed to evict %s: %w", a.key, err)
		}
		evicted = append(evicted, strings.TrimPrefix(a.key, constants.DayKeyPrefix))
	}
	return evicted, nil
}

// SaveDebounced queues entry and writes it once no further edits arrive for
// the debounce interval. Only the latest state of each day is written.
func (s *Store) SaveDebounced(entry models.DayEntry) {
	s.mu.Lock()
	s.seq++
	s.pending[entry.ID] = pendingWrite{entry: entry, seq: s.seq}
	s.mu.Unlock()
	s.debounced(s.flushPending)
}

func (s *Store) flushPending() {
	for id, err := range s.flush(context.Background()) {
		logger.Error("Debounced save failed", "dayId", id, "error", err)
		if s.opts.OnError != nil {
			s.opts.OnError(id, err)
		}
	}
}

// flush writes a snapshot of the pending edits. Each entry stays visible to
// Load until its write has been attempted, and is only dropped from pending
// if no newer edit was queued meanwhile.
func (s *Store) flush(ctx context.Context) map[string]error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	batch := make(map[string]pendingWrite, len(s.pending))
	for id, p := range s.pending {
		batch[id] = p
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	failed := map[string]error{}
	for _, id := range ids {
		p := batch[id]
		_, err := s.write(ctx, p.entry)
		if err != nil {
			failed[id] = err
		}
		s.mu.Lock()
		if cur, ok := s.pending[id]; ok && cur.seq == p.seq {
			delete(s.pending, id)
		}
		s.mu.Unlock()
	}
	return failed
}

// Flush writes any pending debounced entries immediately.
func (s *Store) Flush(ctx context.Context) error {
	var errs []error
	for id, err := range s.flush(ctx) {
		errs = append(errs, fmt.Errorf("%s: %w", id, err))
	}
	return errors.Join(errs...)
}

// Pending reports how many days are waiting on a debounced write.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close flushes pending writes.
func (s *Store) Close() error {
	s.debounced(func() {})
	return s.Flush(context.Background())
}

// Delete removes the entry for dayID, including any pending write.
func (s *Store) Delete(ctx context.Context, dayID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	delete(s.pending, dayID)
	s.mu.Unlock()
	if err := s.kv.RemoveItem(ctx, DayKey(dayID)); err != nil {
		return fmt.Errorf("failed to delete day entry %s: %w", dayID, err)
	}
	return nil
}

// List returns the stored day ids in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, constants.DayKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list day entries: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, constants.DayKeyPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// ClearAll removes every stored day entry and returns how many were removed.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.pending = make(map[string]pendingWrite)
	s.mu.Unlock()

	keys, err := s.kv.Keys(ctx, constants.DayKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list day entries: %w", err)
	}
	for i, k := range keys {
		if err := s.kv.RemoveItem(ctx, k); err != nil {
			return i, fmt.Errorf("failed to remove %s: %w", k, err)
		}
	}
	logger.Info("Cleared day entries", "count", len(keys))
	return len(keys), nil
}

type EntryStat struct {
	DayID  string  `json:"dayId"`
	SizeKB float64 `json:"sizeKB"`
}

type Stats struct {
	Count   int         `json:"count"`
	TotalKB float64     `json:"totalKB"`
	Entries []EntryStat `json:"entries"` // largest first
}

// Stats sizes every stored day entry.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.kv.Keys(ctx, constants.DayKeyPrefix)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list day entries: %w", err)
	}

	st := Stats{Entries: make([]EntryStat, 0, len(keys))}
	for _, k := range keys {
		raw, ok, err := s.kv.GetItem(ctx, k)
		if err != nil || !ok {
			continue
		}
		kb := float64(len(raw)) / 1024
		st.TotalKB += kb
		st.Entries = append(st.Entries, EntryStat{DayID: strings.TrimPrefix(k, constants.DayKeyPrefix), SizeKB: kb})
	}
	st.Count = len(st.Entries)
	sort.SliceStable(st.Entries, func(i, j int) bool {
		return st.Entries[i].SizeKB > st.Entries[j].SizeKB
	})
	return st, nil
}
