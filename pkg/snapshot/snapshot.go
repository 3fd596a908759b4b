package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/attrs/pkg/attrs"
)

// ErrNotFound is returned when a snapshot ID does not exist in a store.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is a point-in-time copy of a model's properties: plain
// attributes overlaid with the current value of every observable.
type Snapshot struct {
	ID         string         `json:"id"`
	ModelID    uint64         `json:"model_id"`
	TakenAt    time.Time      `json:"taken_at"`
	Attributes map[string]any `json:"attributes"`
}

// Capture takes a snapshot of the model's current state.
func Capture(m *attrs.Model) Snapshot {
	return Snapshot{
		ID:         uuid.NewString(),
		ModelID:    m.ID(),
		TakenAt:    time.Now().UTC(),
		Attributes: m.Attributes(),
	}
}

// Restore writes the snapshot's properties into m as one batch, routed
// through the model's write-merge. Read-only computed properties in the
// snapshot are expected (their values re-derive from dependencies) and are
// dropped; any other fault is returned. Re-applying values a retry already
// wrote is harmless thanks to equality suppression.
func (s Snapshot) Restore(m *attrs.Model) error {
	values := make(map[string]any, len(s.Attributes))
	for name, value := range s.Attributes {
		values[name] = value
	}

	for len(values) > 0 {
		err := m.SetAll(values)
		if err == nil {
			return nil
		}
		var ue *attrs.UnsettableError
		if !errors.As(err, &ue) {
			return err
		}
		delete(values, ue.Name)
	}
	return nil
}

// Store persists snapshots. Implementations: MemoryStore, SQLiteStore,
// S3Store.
type Store interface {
	// Save persists a snapshot, replacing any snapshot with the same ID.
	Save(ctx context.Context, s Snapshot) error

	// Load retrieves a snapshot by ID. Returns ErrNotFound if absent.
	Load(ctx context.Context, id string) (Snapshot, error)

	// List returns all stored snapshots, oldest first.
	List(ctx context.Context) ([]Snapshot, error)

	// Delete removes a snapshot by ID. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id string) error
}
