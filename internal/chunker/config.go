package chunker

import (
	"errors"
	"fmt"
)

const (
	// DefaultTargetSize is the soft upper bound for a chunk, in characters
	DefaultTargetSize = 1000
	// DefaultOverlapBudget is the most trailing text carried into the next chunk
	DefaultOverlapBudget = 200
	// DefaultMinChunkSize is the smallest chunk worth emitting
	DefaultMinChunkSize = 100

	// oversizedFactor times the target size marks a paragraph that is split
	// into sentences instead of being kept whole
	oversizedFactor = 1.5
)

var ErrInvalidConfig = errors.New("invalid chunker config")

// Config controls chunk sizes. All sizes are in characters.
type Config struct {
	TargetSize    int `yaml:"target_size"`
	OverlapBudget int `yaml:"overlap_budget"`
	MinChunkSize  int `yaml:"min_chunk_size"`
}

// DefaultConfig returns the sizes used by the indexer
func DefaultConfig() Config {
	return Config{
		TargetSize:    DefaultTargetSize,
		OverlapBudget: DefaultOverlapBudget,
		MinChunkSize:  DefaultMinChunkSize,
	}
}

// Validate rejects configurations that would produce degenerate chunks
func (c Config) Validate() error {
	if c.TargetSize <= 0 {
		return fmt.Errorf("%w: target size must be > 0, got %d", ErrInvalidConfig, c.TargetSize)
	}
	if c.OverlapBudget < 0 {
		return fmt.Errorf("%w: overlap budget must be >= 0, got %d", ErrInvalidConfig, c.OverlapBudget)
	}
	if c.OverlapBudget >= c.TargetSize {
		return fmt.Errorf("%w: overlap budget %d must be smaller than target size %d",
			ErrInvalidConfig, c.OverlapBudget, c.TargetSize)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("%w: min chunk size must be >= 0, got %d", ErrInvalidConfig, c.MinChunkSize)
	}
	if c.MinChunkSize > c.TargetSize {
		return fmt.Errorf("%w: min chunk size %d exceeds target size %d",
			ErrInvalidConfig, c.MinChunkSize, c.TargetSize)
	}
	return nil
}

func (c Config) oversizedLimit() float64 {
	return oversizedFactor * float64(c.TargetSize)
}
