package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/storage/archive"
)

const logRoot = "signals"

// ArchiveStore keeps one JSON document per signal date under signals/ in
// an archive.Storage.
type ArchiveStore struct {
	store archive.Storage
	mu    sync.Mutex
}

// NewArchiveStore creates a signal log on top of store.
func NewArchiveStore(store archive.Storage) *ArchiveStore {
	return &ArchiveStore{store: store}
}

type record struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Action      core.Action    `json:"action"`
	Confidence  float64        `json:"confidence"`
	Price       float64        `json:"price"`
	Reason      string         `json:"reason"`
	Strategy    string         `json:"strategy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func toRecord(s core.Signal) record {
	return record{
		ID:          s.ID,
		Symbol:      s.Symbol,
		Action:      s.Action,
		Confidence:  s.Confidence,
		Price:       s.Price,
		Reason:      s.Reason,
		Strategy:    s.Strategy,
		Metadata:    s.Metadata,
		GeneratedAt: s.GeneratedAt,
	}
}

func (r record) signal() core.Signal {
	return core.Signal{
		ID:          r.ID,
		Symbol:      r.Symbol,
		Action:      r.Action,
		Confidence:  r.Confidence,
		Price:       r.Price,
		Reason:      r.Reason,
		Strategy:    r.Strategy,
		Metadata:    r.Metadata,
		GeneratedAt: r.GeneratedAt,
	}
}

func dayPath(t time.Time) string {
	return fmt.Sprintf("%s/%s.json", logRoot, t.UTC().Format("2006-01-02"))
}

// Save appends signal to the document of its generation date.
func (a *ArchiveStore) Save(ctx context.Context, signal core.Signal) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}

	path := dayPath(signal.GeneratedAt)
	records, err := a.readDay(ctx, path)
	if err != nil {
		return err
	}
	records = append(records, toRecord(signal))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding signal log: %w", err)
	}
	return a.store.Write(ctx, path, data)
}

// List scans the day documents that can hold matches for filter.
func (a *ArchiveStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	paths, err := a.store.List(ctx, logRoot)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var all []core.Signal
	for _, path := range paths {
		if !a.dayInRange(path, filter) {
			continue
		}
		records, err := a.readDay(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			all = append(all, r.signal())
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].GeneratedAt.Before(all[j].GeneratedAt)
	})
	return apply(all, filter), nil
}

func (a *ArchiveStore) readDay(ctx context.Context, path string) ([]record, error) {
	data, err := a.store.Read(ctx, path)
	if errors.Is(err, core.ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("decoding %s: %w", path, err))
	}
	return records, nil
}

// dayInRange skips documents whose date lies wholly outside filter.
func (a *ArchiveStore) dayInRange(path string, filter ListFilter) bool {
	name := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".json")
	day, err := time.Parse("2006-01-02", name)
	if err != nil {
		return false
	}
	if !filter.From.IsZero() && day.Add(24*time.Hour).Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && day.After(filter.To) {
		return false
	}
	return true
}
