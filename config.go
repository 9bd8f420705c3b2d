package actrie

import (
	"log/slog"
	"strconv"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/dist"
	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/pattern"
)

// MaxGapLimit is the largest accepted Config.MaxGap.
const MaxGapLimit = 255

// Config controls matcher construction.
//
// Example:
//
//	config := actrie.DefaultConfig()
//	config.MaxGap = 8 // tighter bound on every gap pattern
//	m, err := actrie.CompileFile("words.txt.zst", config)
type Config struct {
	// Kind selects the matcher. KindDistance (the default) understands gap
	// patterns such as "A.{0,5}B"; KindPlain treats every keyword as a literal.
	Kind matcher.Kind

	// EnablePrefilter lets a scan skip buffers that contain no keyword at all.
	EnablePrefilter bool

	// MaxGap caps the gap of every pattern, in characters.
	// Pattern-declared bounds above it are clamped.
	MaxGap int

	// StrictLines rejects dictionary keywords that are not valid UTF-8.
	// Otherwise such keywords are matched as raw bytes.
	StrictLines bool

	// StrictPatterns turns malformed gap patterns into construction errors.
	// Otherwise they are matched as literal keywords.
	StrictPatterns bool

	// Logger receives construction and loader diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration: distance matcher,
// prefilter enabled, gaps capped at 15 characters, lenient line parsing.
func DefaultConfig() Config {
	return Config{
		Kind:            matcher.KindDistance,
		EnablePrefilter: true,
		MaxGap:          pattern.DefaultMaxGap,
	}
}

// Validate checks the configuration.
//
// Valid ranges:
//   - Kind: KindDistance or KindPlain
//   - MaxGap: 0 to 255
func (c Config) Validate() error {
	if c.Kind != matcher.KindDistance && c.Kind != matcher.KindPlain {
		return &ConfigError{
			Field:   "Kind",
			Message: "unknown matcher kind " + strconv.Itoa(int(c.Kind)),
		}
	}
	if c.MaxGap < 0 || c.MaxGap > MaxGapLimit {
		return &ConfigError{
			Field:   "MaxGap",
			Message: "must be between 0 and 255",
		}
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c Config) dictOptions() dict.Options {
	return dict.Options{Strict: c.StrictLines, Logger: c.Logger}
}

func (c Config) distConfig() dist.Config {
	return dist.Config{
		MaxGap:          c.MaxGap,
		EnablePrefilter: c.EnablePrefilter,
		StrictPatterns:  c.StrictPatterns,
		Logger:          c.Logger,
	}
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "actrie: invalid config: " + e.Field + ": " + e.Message
}
