package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/parq/errors"
	"github.com/kbukum/parq/validation"
)

// Degree is a requested worker count. The zero value means auto.
type Degree int

// AutoDegree lets the engine pick the worker count.
const AutoDegree Degree = 0

// IsAuto reports whether d leaves the worker count to the engine.
func (d Degree) IsAuto() bool { return d == AutoDegree }

func (d Degree) String() string {
	if d.IsAuto() {
		return "auto"
	}
	return strconv.Itoa(int(d))
}

// MarshalText renders "auto" or the worker count.
func (d Degree) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts "auto", an empty string, or a positive integer.
func (d *Degree) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(strings.ToLower(string(text)))
	if s == "" || s == "auto" {
		*d = AutoDegree
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.InvalidConfiguration("degree", fmt.Sprintf("degree must be \"auto\" or an integer, got %q", string(text))).WithCause(err)
	}
	if n < 0 {
		return errors.InvalidConfiguration("degree", fmt.Sprintf("degree must be positive or auto, got %d", n))
	}
	*d = Degree(n)
	return nil
}

// Mode selects whether the engine may decide to run sequentially.
type Mode string

const (
	// ModeAuto lets the engine fall back to one worker for small inputs.
	ModeAuto Mode = "auto"
	// ModeForcedParallel always runs at least two workers.
	ModeForcedParallel Mode = "forced-parallel"
)

// Ordering selects whether results keep input order.
type Ordering string

const (
	// OrderingRelax releases results as they complete.
	OrderingRelax Ordering = "relax"
	// OrderingPreserve releases results in input order.
	OrderingPreserve Ordering = "preserve"
)

// Defaults.
const (
	DefaultMaxDegree           = 512
	DefaultSequentialThreshold = 32
	DefaultChunkSize           = 16
)

// Config is the configuration of one query. It is copied into the handle by
// New and never changes afterwards.
type Config struct {
	Degree   Degree   `yaml:"degree" mapstructure:"degree" validate:"gte=0"`
	Mode     Mode     `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=auto forced-parallel"`
	Ordering Ordering `yaml:"ordering" mapstructure:"ordering" validate:"omitempty,oneof=relax preserve"`
	// MaxDegree caps the worker count whatever Degree asks for.
	MaxDegree int `yaml:"max_degree" mapstructure:"max_degree" validate:"gte=0"`
	// SequentialThreshold is the input size below which auto mode runs a
	// single worker. Only applies when the size is known up front. Zero
	// means DefaultSequentialThreshold; set 1 to never fall back.
	SequentialThreshold int `yaml:"sequential_threshold" mapstructure:"sequential_threshold" validate:"gte=0"`
	// ChunkSize is the partition size used for single-pass sources.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
	// MaxErrors stops dispatch once that many elements have failed. Zero
	// disables the limit.
	MaxErrors int `yaml:"max_errors" mapstructure:"max_errors" validate:"gte=0"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeAuto
	}
	if c.Ordering == "" {
		c.Ordering = OrderingRelax
	}
	if c.MaxDegree == 0 {
		c.MaxDegree = DefaultMaxDegree
	}
	if c.SequentialThreshold == 0 {
		c.SequentialThreshold = DefaultSequentialThreshold
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
}

// Validate checks field ranges and combinations. A forced-parallel query
// that cannot get two workers is a conflict.
func (c Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	v := validation.New()
	if c.Mode == ModeForcedParallel {
		v.Custom(c.Degree != 1, "degree", "forced-parallel mode conflicts with a degree of 1")
		v.Custom(c.MaxDegree == 0 || c.MaxDegree >= 2, "max_degree", "forced-parallel mode needs a max degree of at least 2")
	}
	return v.Err()
}

// Forced reports whether the mode requires parallel execution.
func (c Config) Forced() bool { return c.Mode == ModeForcedParallel }

// Preserve reports whether results keep input order.
func (c Config) Preserve() bool { return c.Ordering == OrderingPreserve }
