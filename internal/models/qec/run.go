package qec

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaskrrish/Go-QEC/internal/qec/noise"
	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

// RunStatus represents the current state of a correction run
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Limits applied by Validate
const (
	MaxTrials         = 10000
	MaxCircuitLength  = 1024
	DefaultTrials     = 100
	DefaultTTLMinutes = 1440
	MaxTTLMinutes     = 10080
)

// GateSpec is the wire form of a gate
type GateSpec struct {
	Gate    string  `json:"gate"`
	Target  int     `json:"target"`
	Control int     `json:"control,omitempty"`
	Theta   float64 `json:"theta,omitempty"`
}

// ToGate converts the wire form into a simulator gate
func (g GateSpec) ToGate() (quantum.Gate, error) {
	switch strings.ToLower(g.Gate) {
	case "h":
		return quantum.H(g.Target), nil
	case "x":
		return quantum.X(g.Target), nil
	case "y":
		return quantum.Y(g.Target), nil
	case "z":
		return quantum.Z(g.Target), nil
	case "phase", "p", "u1":
		return quantum.Phase(g.Target, g.Theta), nil
	case "cnot", "cx":
		return quantum.CNOT(g.Control, g.Target), nil
	default:
		return quantum.Gate{}, ErrInvalidGate
	}
}

// Gates converts a circuit into simulator gates
func Gates(specs []GateSpec) ([]quantum.Gate, error) {
	gates := make([]quantum.Gate, len(specs))
	for i, s := range specs {
		g, err := s.ToGate()
		if err != nil {
			return nil, err
		}
		gates[i] = g
	}
	return gates, nil
}

// Run is a batch of noisy correction trials on the Steane code
type Run struct {
	RunID        uuid.UUID    `json:"run_id"`
	Label        string       `json:"label,omitempty"`
	NumQubits    int          `json:"num_qubits"`
	Circuit      []GateSpec   `json:"circuit"`
	Noise        noise.Config `json:"noise"`
	Trials       int          `json:"trials"`
	Seed         uint64       `json:"seed"`
	DigestMethod string       `json:"digest_method"`
	Status       RunStatus    `json:"status"`
	Stats        *RunStats    `json:"stats,omitempty"`
	Message      string       `json:"message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// RunStats aggregates the outcome of every trial of a run
type RunStats struct {
	Trials           int            `json:"trials"`
	Recovered        int            `json:"recovered"`
	NoisyTrials      int            `json:"noisy_trials"`
	UnknownSyndromes int            `json:"unknown_syndromes"`
	MeanFidelity     float64        `json:"mean_fidelity"`
	MinFidelity      float64        `json:"min_fidelity"`
	SyndromeCounts   map[string]int `json:"syndrome_counts"`
	StatementDigest  string         `json:"statement_digest,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// RecoveryRate returns the fraction of trials restored to the prepared state
func (s *RunStats) RecoveryRate() float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.Recovered) / float64(s.Trials)
}

// RunSummary is the short form of a run returned by listings
type RunSummary struct {
	RunID        uuid.UUID `json:"run_id"`
	Label        string    `json:"label,omitempty"`
	Status       RunStatus `json:"status"`
	Trials       int       `json:"trials"`
	RecoveryRate *float64  `json:"recovery_rate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Summary returns the listing form of the run. The recovery rate is set
// once the run has statistics.
func (r *Run) Summary() RunSummary {
	summary := RunSummary{
		RunID:     r.RunID,
		Label:     r.Label,
		Status:    r.Status,
		Trials:    r.Trials,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
	if r.Stats != nil {
		rate := r.Stats.RecoveryRate()
		summary.RecoveryRate = &rate
	}
	return summary
}

// RunListResponse lists runs
type RunListResponse struct {
	Runs  []RunSummary `json:"runs"`
	Count int          `json:"count"`
}

// RunCreateRequest represents a request to create a new run
type RunCreateRequest struct {
	Label        string        `json:"label,omitempty"`
	Circuit      []GateSpec    `json:"circuit,omitempty"`
	Noise        *noise.Config `json:"noise,omitempty"`
	Trials       int           `json:"trials,omitempty"`
	Seed         *uint64       `json:"seed,omitempty"`
	DigestMethod string        `json:"digest_method,omitempty"`
	TTLMinutes   int           `json:"ttl_minutes,omitempty"`
}

// RunResponse represents the response when creating or querying a run
type RunResponse struct {
	Run   *Run   `json:"run"`
	Error string `json:"error,omitempty"`
}

// CodeResponse describes the stabilizer code runs are corrected with
type CodeResponse struct {
	Name              string                    `json:"name"`
	NumQubits         int                       `json:"num_qubits"`
	Distance          int                       `json:"distance"`
	CorrectableWeight int                       `json:"correctable_weight"`
	Stabilizers       []quantum.Stabilizer      `json:"stabilizers"`
	LogicalOperators  []quantum.LogicalOperator `json:"logical_operators"`
	TableSize         int                       `json:"table_size"`
}

// VerifyRequest presents a state and the syndrome it claims to carry
type VerifyRequest struct {
	StateHex string `json:"state_hex"`
	Syndrome []bool `json:"syndrome"`
}

// VerifyResponse reports whether the state is consistent with the syndrome
type VerifyResponse struct {
	Consistent bool                `json:"consistent"`
	Recovery   *quantum.PauliError `json:"recovery,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Validate validates a run create request and fills defaults
func (r *RunCreateRequest) Validate() error {
	if r.Trials == 0 {
		r.Trials = DefaultTrials
	}
	if r.Trials < 1 || r.Trials > MaxTrials {
		return ErrInvalidTrials
	}

	if len(r.Circuit) > MaxCircuitLength {
		return ErrCircuitTooLong
	}
	if _, err := Gates(r.Circuit); err != nil {
		return err
	}

	if r.Noise != nil {
		if err := r.Noise.Validate(); err != nil {
			return ErrInvalidNoise
		}
	}

	// Set default TTL if not specified (24 hours)
	if r.TTLMinutes == 0 {
		r.TTLMinutes = DefaultTTLMinutes
	}
	if r.TTLMinutes < 1 || r.TTLMinutes > MaxTTLMinutes {
		return ErrInvalidTTL
	}

	return nil
}

// Validate validates a verify request
func (r *VerifyRequest) Validate() error {
	if r.StateHex == "" {
		return ErrInvalidState
	}
	if len(r.Syndrome) == 0 {
		return ErrInvalidSyndrome
	}
	return nil
}

// QECError is a request or lookup failure reported to API clients
type QECError struct {
	Message string
}

func (e *QECError) Error() string {
	return e.Message
}

var (
	ErrInvalidTrials   = &QECError{"trials must be between 1 and 10000"}
	ErrCircuitTooLong  = &QECError{"circuit must have at most 1024 gates"}
	ErrInvalidGate     = &QECError{"gate must be one of h, x, y, z, phase, cnot"}
	ErrInvalidNoise    = &QECError{"noise parameters out of range"}
	ErrInvalidTTL      = &QECError{"TTL must be between 1 and 10080 minutes"}
	ErrInvalidRunID    = &QECError{"invalid run ID"}
	ErrInvalidState    = &QECError{"state_hex is required"}
	ErrInvalidSyndrome = &QECError{"syndrome is required"}
	ErrRunNotFound     = &QECError{"run not found"}
	ErrRunExpired      = &QECError{"run has expired"}
	ErrRunInProgress   = &QECError{"run already executed or in progress"}
)
