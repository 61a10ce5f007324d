package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaskrrish/Go-QEC/internal/models/qec"
)

// ErrNotFound is returned when no run has the requested id
var ErrNotFound = errors.New("run not found")

// Store persists runs. Implementations hand out copies; mutating a returned
// run does not change the stored one.
type Store interface {
	// Put inserts or replaces a run
	Put(ctx context.Context, run *qec.Run) error
	Get(ctx context.Context, id uuid.UUID) (*qec.Run, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns every run ordered by creation time
	List(ctx context.Context) ([]*qec.Run, error)
	// DeleteExpired removes runs whose expiry is before now and returns how
	// many were removed
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// Open returns the backend named by driver: "memory" or "sqlite"
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func cloneRun(r *qec.Run) *qec.Run {
	cp := *r
	cp.Circuit = append([]qec.GateSpec(nil), r.Circuit...)
	cp.Noise.Qubits = append([]int(nil), r.Noise.Qubits...)
	if r.Stats != nil {
		stats := *r.Stats
		stats.SyndromeCounts = make(map[string]int, len(r.Stats.SyndromeCounts))
		for k, v := range r.Stats.SyndromeCounts {
			stats.SyndromeCounts[k] = v
		}
		cp.Stats = &stats
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
