package noise

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when a noise parameter is out of range
var ErrInvalidConfig = errors.New("invalid noise configuration")

// Config holds the rate and probability parameters of the noise channel
type Config struct {
	// DecoherenceRate is the per-qubit probability of a Z error
	DecoherenceRate float64 `yaml:"decoherence_rate" json:"decoherence_rate"`
	// DepolarizingProbability is the per-qubit probability of a uniformly
	// chosen X, Y or Z error
	DepolarizingProbability float64 `yaml:"depolarizing_probability" json:"depolarizing_probability"`
	// ThermalNoiseStrength is the standard deviation of the Gaussian added to
	// each real and imaginary amplitude component
	ThermalNoiseStrength float64 `yaml:"thermal_noise_strength" json:"thermal_noise_strength"`
	// CorrelationLength scales the pairwise coefficient exp(-|i-j|/length).
	// Zero disables correlated errors.
	CorrelationLength float64 `yaml:"correlation_length" json:"correlation_length"`
	// Qubits restricts every channel to these qubits. Empty means all.
	Qubits []int `yaml:"qubits,omitempty" json:"qubits,omitempty"`
}

// Noiseless returns a configuration that leaves every state untouched
func Noiseless() Config {
	return Config{}
}

func checkProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %s must be in [0, 1], got %g", ErrInvalidConfig, name, p)
	}
	return nil
}

// Validate checks every parameter range
func (c Config) Validate() error {
	if err := checkProbability("decoherence_rate", c.DecoherenceRate); err != nil {
		return err
	}
	if err := checkProbability("depolarizing_probability", c.DepolarizingProbability); err != nil {
		return err
	}
	if math.IsNaN(c.ThermalNoiseStrength) || math.IsInf(c.ThermalNoiseStrength, 0) || c.ThermalNoiseStrength < 0 {
		return fmt.Errorf("%w: thermal_noise_strength must be a finite value >= 0, got %g", ErrInvalidConfig, c.ThermalNoiseStrength)
	}
	if math.IsNaN(c.CorrelationLength) || c.CorrelationLength < 0 {
		return fmt.Errorf("%w: correlation_length must be >= 0, got %g", ErrInvalidConfig, c.CorrelationLength)
	}
	for _, q := range c.Qubits {
		if q < 0 {
			return fmt.Errorf("%w: negative target qubit %d", ErrInvalidConfig, q)
		}
	}
	return nil
}
