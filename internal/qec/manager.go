package qec

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaskrrish/Go-QEC/internal/logging"
	"github.com/jaskrrish/Go-QEC/internal/models/qec"
	"github.com/jaskrrish/Go-QEC/internal/qec/correction"
	"github.com/jaskrrish/Go-QEC/internal/qec/noise"
	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
	"github.com/jaskrrish/Go-QEC/internal/qec/transcript"
	"github.com/jaskrrish/Go-QEC/internal/store"
)

// ManagerOptions bound what a RunManager accepts
type ManagerOptions struct {
	MaxTrials    int
	DigestMethod transcript.Method
	// DefaultNoise applies to requests that carry no noise section
	DefaultNoise noise.Config
}

// RunManager manages correction runs and orchestrates their execution
type RunManager struct {
	store   store.Store
	code    *correction.Code
	options ManagerOptions
	logger  *zap.Logger

	// executing holds the runs currently inside ExecuteRun; a run's status
	// is only read and written while its slot is held
	executing map[uuid.UUID]struct{}
	mutex     sync.Mutex
}

// NewRunManager creates a run manager on the Steane code
func NewRunManager(s store.Store, options ManagerOptions, logger *zap.Logger) *RunManager {
	if options.MaxTrials <= 0 {
		options.MaxTrials = qec.MaxTrials
	}
	if options.DigestMethod == "" {
		options.DigestMethod = transcript.SHA3_256Method
	}
	return &RunManager{
		store:     s,
		code:      correction.NewSteaneCode(),
		options:   options,
		logger:    logging.OrNop(logger),
		executing: make(map[uuid.UUID]struct{}),
	}
}

// Code returns the stabilizer code runs are corrected with
func (rm *RunManager) Code() *correction.Code {
	return rm.code
}

// CreateRun validates the request and stores a pending run
func (rm *RunManager) CreateRun(ctx context.Context, req *qec.RunCreateRequest) (*qec.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Trials > rm.options.MaxTrials {
		return nil, qec.ErrInvalidTrials
	}

	digest := transcript.Method(req.DigestMethod)
	if digest == "" {
		digest = rm.options.DigestMethod
	}
	if _, err := transcript.NewHasher(digest); err != nil {
		return nil, &qec.QECError{Message: err.Error()}
	}

	gates, err := qec.Gates(req.Circuit)
	if err != nil {
		return nil, err
	}
	for _, g := range gates {
		for _, q := range g.Qubits() {
			if q < 0 || q >= rm.code.NumQubits() {
				return nil, &qec.QECError{Message: fmt.Sprintf("gate %s is outside the %d-qubit register", g, rm.code.NumQubits())}
			}
		}
	}
	noiseCfg := rm.options.DefaultNoise
	if req.Noise != nil {
		noiseCfg = *req.Noise
	}
	if _, err := noise.NewModel(noiseCfg, rm.code.NumQubits()); err != nil {
		return nil, &qec.QECError{Message: err.Error()}
	}

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}

	now := time.Now()
	run := &qec.Run{
		RunID:        uuid.New(),
		Label:        req.Label,
		NumQubits:    rm.code.NumQubits(),
		Circuit:      req.Circuit,
		Noise:        noiseCfg,
		Trials:       req.Trials,
		Seed:         seed,
		DigestMethod: string(digest),
		Status:       qec.RunPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(req.TTLMinutes) * time.Minute),
	}

	if err := rm.store.Put(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}
	activeRuns.Inc()

	rm.logger.Info("run created",
		zap.Stringer("run_id", run.RunID),
		zap.Int("trials", run.Trials),
		zap.Uint64("seed", run.Seed))

	return run, nil
}

// ExecuteRun performs every trial of a pending run and stores the statistics
func (rm *RunManager) ExecuteRun(ctx context.Context, runID uuid.UUID) (*qec.Run, error) {
	rm.mutex.Lock()
	if _, busy := rm.executing[runID]; busy {
		rm.mutex.Unlock()
		return nil, qec.ErrRunInProgress
	}
	rm.executing[runID] = struct{}{}
	rm.mutex.Unlock()
	defer func() {
		rm.mutex.Lock()
		delete(rm.executing, runID)
		rm.mutex.Unlock()
	}()

	// read only while holding the slot so the status cannot be stale
	run, err := rm.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != qec.RunPending {
		return nil, qec.ErrRunInProgress
	}

	run.Status = qec.RunRunning
	if err := rm.store.Put(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	start := time.Now()
	result, err := rm.execute(ctx, run)
	elapsed := time.Since(start)
	runDuration.Observe(elapsed.Seconds())

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = qec.RunFailed
		run.Message = err.Error()
		runsTotal.WithLabelValues(string(qec.RunFailed)).Inc()
		rm.logger.Error("run failed", zap.Stringer("run_id", runID), zap.Error(err))
	} else {
		run.Status = qec.RunCompleted
		run.Stats = &qec.RunStats{
			Trials:           result.Trials,
			Recovered:        result.Recovered,
			NoisyTrials:      result.NoisyTrials,
			UnknownSyndromes: result.UnknownSyndromes,
			MeanFidelity:     result.MeanFidelity,
			MinFidelity:      result.MinFidelity,
			SyndromeCounts:   result.SyndromeCounts,
			StatementDigest:  hex.EncodeToString(result.Digest),
			ProcessingTimeMs: elapsed.Milliseconds(),
		}
		run.Message = fmt.Sprintf("Recovered %d of %d trials (%d unknown syndromes)",
			result.Recovered, result.Trials, result.UnknownSyndromes)
		runsTotal.WithLabelValues(string(qec.RunCompleted)).Inc()
		rm.logger.Info("run completed",
			zap.Stringer("run_id", runID),
			zap.Int("recovered", result.Recovered),
			zap.Int("trials", result.Trials),
			zap.Float64("recovery_rate", run.Stats.RecoveryRate()),
			zap.Float64("mean_fidelity", result.MeanFidelity),
			zap.Duration("elapsed", elapsed))
	}

	// the outcome is recorded even when the request context has gone away
	if putErr := rm.store.Put(context.WithoutCancel(ctx), run); putErr != nil {
		return nil, fmt.Errorf("failed to store run: %w", putErr)
	}
	if err != nil {
		return run, fmt.Errorf("run failed: %w", err)
	}
	return run, nil
}

func (rm *RunManager) execute(ctx context.Context, run *qec.Run) (*ExperimentResult, error) {
	gates, err := qec.Gates(run.Circuit)
	if err != nil {
		return nil, err
	}
	model, err := noise.NewModel(run.Noise, rm.code.NumQubits())
	if err != nil {
		return nil, err
	}

	experiment := NewExperiment(rm.code, model, gates, run.Trials)
	experiment.SetDigestMethod(transcript.Method(run.DigestMethod))
	return experiment.Run(ctx, quantum.NewSource(run.Seed))
}

// GetRun retrieves a run by ID. Expired runs are reported as such.
func (rm *RunManager) GetRun(ctx context.Context, runID uuid.UUID) (*qec.Run, error) {
	run, err := rm.store.Get(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, qec.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(run.ExpiresAt) {
		return nil, qec.ErrRunExpired
	}
	return run, nil
}

// DeleteRun removes a run
func (rm *RunManager) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	err := rm.store.Delete(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return qec.ErrRunNotFound
	}
	if err != nil {
		return err
	}
	activeRuns.Dec()
	rm.logger.Info("run deleted", zap.Stringer("run_id", runID))
	return nil
}

// ListRuns returns every stored run that has not expired, oldest first
func (rm *RunManager) ListRuns(ctx context.Context) ([]*qec.Run, error) {
	runs, err := rm.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	live := runs[:0]
	for _, run := range runs {
		if !now.After(run.ExpiresAt) {
			live = append(live, run)
		}
	}
	return live, nil
}

// CleanupExpiredRuns removes expired runs
func (rm *RunManager) CleanupExpiredRuns(ctx context.Context) (int, error) {
	removed, err := rm.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	activeRuns.Sub(float64(removed))
	if removed > 0 {
		rm.logger.Debug("expired runs removed", zap.Int("count", removed))
	}
	return removed, nil
}

// StartCleanup removes expired runs every interval until ctx is done. The
// returned channel is closed when the loop has exited.
func (rm *RunManager) StartCleanup(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := rm.CleanupExpiredRuns(ctx); err != nil && ctx.Err() == nil {
					rm.logger.Warn("cleanup failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}

// Verify checks a presented state against a claimed syndrome without
// changing any stored run
func (rm *RunManager) Verify(req *qec.VerifyRequest) (quantum.PauliError, error) {
	if err := req.Validate(); err != nil {
		return quantum.PauliError{}, err
	}
	data, err := hex.DecodeString(req.StateHex)
	if err != nil {
		return quantum.PauliError{}, &qec.QECError{Message: "state_hex is not valid hex"}
	}
	var state quantum.State
	if err := state.UnmarshalBinary(data); err != nil {
		return quantum.PauliError{}, &qec.QECError{Message: err.Error()}
	}
	if state.NumQubits() != rm.code.NumQubits() {
		return quantum.PauliError{}, &qec.QECError{Message: fmt.Sprintf(
			"state has %d qubits, code %s needs %d", state.NumQubits(), rm.code.Name(), rm.code.NumQubits())}
	}
	return correction.Verify(&state, rm.code, correction.SyndromeFromBools(req.Syndrome))
}
