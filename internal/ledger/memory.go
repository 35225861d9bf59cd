package ledger

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// MemoryLedger is a concurrency-safe in-memory Ledger.  It backs unit tests
// and the standalone mode where the service runs without a database.
type MemoryLedger struct {
    mu       sync.RWMutex
    byID     map[string]model.Reservation
    byIdem   map[string]string // idempotency key -> reservation ID
    byConf   map[string]string // confirmation number -> reservation ID
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *MemoryLedger {
    return &MemoryLedger{
        byID:   make(map[string]model.Reservation),
        byIdem: make(map[string]string),
        byConf: make(map[string]string),
    }
}

func (l *MemoryLedger) Insert(_ context.Context, res model.Reservation) error {
    l.mu.Lock()
    defer l.mu.Unlock()
    if _, exists := l.byID[res.ID]; exists {
        return ErrDuplicateKey
    }
    if _, exists := l.byConf[res.ConfirmationNumber]; exists {
        return ErrDuplicateKey
    }
    if res.IdempotencyKey != "" {
        if _, exists := l.byIdem[res.IdempotencyKey]; exists {
            return ErrDuplicateKey
        }
        l.byIdem[res.IdempotencyKey] = res.ID
    }
    l.byID[res.ID] = res.Clone()
    l.byConf[res.ConfirmationNumber] = res.ID
    return nil
}

func (l *MemoryLedger) Update(_ context.Context, res model.Reservation) error {
    l.mu.Lock()
    defer l.mu.Unlock()
    if _, exists := l.byID[res.ID]; !exists {
        return ErrNotFound
    }
    l.byID[res.ID] = res.Clone()
    return nil
}

func (l *MemoryLedger) GetByID(_ context.Context, id string) (model.Reservation, error) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    res, ok := l.byID[id]
    if !ok {
        return model.Reservation{}, ErrNotFound
    }
    return res.Clone(), nil
}

func (l *MemoryLedger) GetByIdempotencyKey(_ context.Context, key string) (model.Reservation, error) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    id, ok := l.byIdem[key]
    if !ok {
        return model.Reservation{}, ErrNotFound
    }
    return l.byID[id].Clone(), nil
}

func (l *MemoryLedger) GetOverlapping(_ context.Context, resourceID string, iv model.Interval, statuses []model.Status) ([]model.Reservation, error) {
    wanted := make(map[model.Status]bool, len(statuses))
    for _, s := range statuses {
        wanted[s] = true
    }
    l.mu.RLock()
    defer l.mu.RUnlock()
    var out []model.Reservation
    for _, res := range l.byID {
        if res.ResourceID != resourceID || !wanted[res.Status] {
            continue
        }
        if res.Interval.Overlaps(iv) {
            out = append(out, res.Clone())
        }
    }
    return out, nil
}

func (l *MemoryLedger) ListByCustomer(_ context.Context, customerID string) ([]model.Reservation, error) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    out := make([]model.Reservation, 0)
    for _, res := range l.byID {
        if res.CustomerID == customerID {
            out = append(out, res.Clone())
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
    return out, nil
}

func (l *MemoryLedger) ListExpiredPending(_ context.Context, now time.Time) ([]model.Reservation, error) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    var out []model.Reservation
    for _, res := range l.byID {
        if res.Status != model.StatusPending {
            continue
        }
        if res.HoldExpired(now) {
            out = append(out, res.Clone())
        }
    }
    return out, nil
}

func (l *MemoryLedger) ListDueForActivation(_ context.Context, now time.Time) ([]model.Reservation, error) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    var out []model.Reservation
    for _, res := range l.byID {
        if res.Status == model.StatusConfirmed && !res.Interval.Start.After(now) {
            out = append(out, res.Clone())
        }
    }
    return out, nil
}
