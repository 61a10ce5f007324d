package qec

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jaskrrish/Go-QEC/internal/qec/correction"
	"github.com/jaskrrish/Go-QEC/internal/qec/noise"
	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
	"github.com/jaskrrish/Go-QEC/internal/qec/transcript"
)

// RecoveryTolerance is how far below 1 a trial's fidelity may be and still
// count as recovered. It only absorbs floating point error: thermal noise
// leaves every amplitude slightly off, so with a nonzero
// thermal_noise_strength almost no trial counts as recovered and
// MeanFidelity and MinFidelity are the measure to read.
const RecoveryTolerance = 1e-9

// Experiment prepares a register, corrupts it with noise and corrects it,
// repeated over a number of trials
type Experiment struct {
	code         *correction.Code
	model        *noise.Model
	circuit      []quantum.Gate
	trials       int
	digestMethod transcript.Method
}

// NewExperiment creates an experiment on code's register
func NewExperiment(code *correction.Code, model *noise.Model, circuit []quantum.Gate, trials int) *Experiment {
	return &Experiment{
		code:         code,
		model:        model,
		circuit:      circuit,
		trials:       trials,
		digestMethod: transcript.SHA3_256Method,
	}
}

// SetDigestMethod sets the hash used to bind the final statement
func (e *Experiment) SetDigestMethod(method transcript.Method) {
	e.digestMethod = method
}

// TrialResult is the outcome of one noisy trial
type TrialResult struct {
	Syndrome correction.Syndrome
	Recovery quantum.PauliError
	Fidelity float64
	// Unknown is set when the syndrome had no recovery; the state is then
	// left uncorrected
	Unknown bool
	State   *quantum.State
}

// Recovered reports whether the trial ended on the prepared state up to
// global phase
func (r TrialResult) Recovered() bool {
	return !r.Unknown && r.Fidelity >= 1-RecoveryTolerance
}

// ExperimentResult aggregates every trial
type ExperimentResult struct {
	Trials           int
	Recovered        int
	NoisyTrials      int
	UnknownSyndromes int
	MeanFidelity     float64
	MinFidelity      float64
	SyndromeCounts   map[string]int
	// Digest binds the final trial's corrected state and syndrome
	Digest []byte
}

// Prepare runs the preparation circuit on a fresh register
func (e *Experiment) Prepare() (*quantum.State, error) {
	state := quantum.New(e.code.NumQubits())
	if err := state.ApplyGates(e.circuit...); err != nil {
		return nil, fmt.Errorf("failed to prepare register: %w", err)
	}
	return state, nil
}

// RunTrial applies noise to a copy of reference, then measures, decodes and
// recovers it
func (e *Experiment) RunTrial(reference *quantum.State, src quantum.Source) (TrialResult, error) {
	state := reference.Clone()
	if err := e.model.Apply(state, src); err != nil {
		return TrialResult{}, fmt.Errorf("failed to apply noise: %w", err)
	}

	syndrome, err := correction.MeasureSyndrome(state, e.code)
	if err != nil {
		return TrialResult{}, fmt.Errorf("failed to measure syndrome: %w", err)
	}

	result := TrialResult{Syndrome: syndrome, State: state}
	recovery, err := correction.Recover(state, e.code, syndrome)
	switch {
	case errors.Is(err, correction.ErrUnknownSyndrome):
		result.Unknown = true
	case err != nil:
		return TrialResult{}, fmt.Errorf("failed to recover: %w", err)
	default:
		result.Recovery = recovery
	}

	result.Fidelity, err = reference.Fidelity(state)
	if err != nil {
		return TrialResult{}, err
	}
	return result, nil
}

// Run executes every trial. An unknown syndrome is counted, not fatal; any
// other failure stops the run.
func (e *Experiment) Run(ctx context.Context, src quantum.Source) (*ExperimentResult, error) {
	if e.trials < 1 {
		return nil, fmt.Errorf("trials must be positive, got %d", e.trials)
	}

	reference, err := e.Prepare()
	if err != nil {
		return nil, err
	}

	result := &ExperimentResult{
		MinFidelity:    math.Inf(1),
		SyndromeCounts: make(map[string]int),
	}

	var (
		fidelitySum float64
		last        TrialResult
	)
	for i := 0; i < e.trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trial, err := e.RunTrial(reference, src)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
		trialsTotal.WithLabelValues(trialOutcome(trial)).Inc()

		result.Trials++
		result.SyndromeCounts[trial.Syndrome.String()]++
		if !trial.Syndrome.IsZero() {
			result.NoisyTrials++
		}
		if trial.Unknown {
			result.UnknownSyndromes++
		}
		if trial.Recovered() {
			result.Recovered++
		}
		fidelitySum += trial.Fidelity
		result.MinFidelity = math.Min(result.MinFidelity, trial.Fidelity)
		last = trial
	}
	result.MeanFidelity = fidelitySum / float64(result.Trials)

	result.Digest, err = transcript.Bind(e.digestMethod, last.State, last.Syndrome)
	if err != nil {
		return nil, fmt.Errorf("failed to bind statement: %w", err)
	}
	return result, nil
}

func trialOutcome(t TrialResult) string {
	switch {
	case t.Unknown:
		return "unknown_syndrome"
	case t.Recovered():
		return "recovered"
	default:
		return "logical_error"
	}
}
