// Package config defines the book configuration and its loader.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/freeeve/openbook/internal/selector"
)

// ErrInvalidConfig is returned for settings that cannot be clamped into
// range.
var ErrInvalidConfig = errors.New("invalid config")

// Value ranges accepted for the numeric options.
const (
	MaxBookMoves = 10000
	MaxEvalLimit = 99999
)

// Config contains the book settings.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the probe service listen address.
	Addr string `koanf:"addr"`

	// EnginePath is the UCI engine used by book generation.
	EnginePath string `koanf:"engine_path"`

	OwnBook    bool `koanf:"own_book"`
	NarrowBook bool `koanf:"narrow_book"`
	BookMoves  int  `koanf:"book_moves"`
	IgnoreRate int  `koanf:"ignore_rate"`

	// BookFile is resolved under BookDir. "no_book" disables the book and
	// "book.bin" selects a packed binary book.
	BookFile string `koanf:"book_file"`
	BookDir  string `koanf:"book_dir"`

	EvalDiff int `koanf:"eval_diff"`
	// EvalBlackLimit applies to the first player (white in chess) and
	// EvalWhiteLimit to the second.
	EvalBlackLimit int `koanf:"eval_black_limit"`
	EvalWhiteLimit int `koanf:"eval_white_limit"`
	DepthLimit     int `koanf:"depth_limit"`

	// OnTheFly keeps the book on disk and bisects it per lookup.
	OnTheFly          bool `koanf:"on_the_fly"`
	ConsiderMoveCount bool `koanf:"consider_move_count"`
	PVMoves           int  `koanf:"pv_moves"`
	IgnorePly         bool `koanf:"ignore_ply"`
}

// New returns a Config with the default settings.
func New() *Config {
	opts := selector.DefaultOptions()
	return &Config{
		LogLevel:       "info",
		Addr:           ":8017",
		EnginePath:     "stockfish",
		OwnBook:        opts.OwnBook,
		NarrowBook:     opts.NarrowBook,
		BookMoves:      opts.BookMoves,
		IgnoreRate:     opts.IgnoreRate,
		BookFile:       "standard_book.db",
		BookDir:        "book",
		EvalDiff:       opts.EvalDiff,
		EvalBlackLimit: opts.EvalBlackLimit,
		EvalWhiteLimit: opts.EvalWhiteLimit,
		DepthLimit:     opts.DepthLimit,
		PVMoves:        opts.PVMoves,
	}
}

// Validate clamps numeric options into their ranges and rejects settings
// that have no sensible fallback.
func (c *Config) Validate() error {
	if c.BookFile == "" {
		return fmt.Errorf("%w: book_file must not be empty", ErrInvalidConfig)
	}
	c.BookMoves = clamp(c.BookMoves, 0, MaxBookMoves)
	c.IgnoreRate = clamp(c.IgnoreRate, 0, 100)
	c.EvalDiff = clamp(c.EvalDiff, 0, MaxEvalLimit)
	c.EvalBlackLimit = clamp(c.EvalBlackLimit, -MaxEvalLimit, MaxEvalLimit)
	c.EvalWhiteLimit = clamp(c.EvalWhiteLimit, -MaxEvalLimit, MaxEvalLimit)
	c.DepthLimit = clamp(c.DepthLimit, 0, MaxBookMoves)
	if c.PVMoves < 1 {
		c.PVMoves = 1
	}
	return nil
}

// BookPath joins BookDir and BookFile.
func (c *Config) BookPath() string {
	if c.BookDir == "" || filepath.IsAbs(c.BookFile) {
		return c.BookFile
	}
	return filepath.Join(c.BookDir, c.BookFile)
}

// SelectorOptions converts the config into selector settings.
func (c *Config) SelectorOptions() selector.Options {
	return selector.Options{
		OwnBook:           c.OwnBook,
		NarrowBook:        c.NarrowBook,
		BookMoves:         c.BookMoves,
		IgnoreRate:        c.IgnoreRate,
		EvalDiff:          c.EvalDiff,
		EvalBlackLimit:    c.EvalBlackLimit,
		EvalWhiteLimit:    c.EvalWhiteLimit,
		DepthLimit:        c.DepthLimit,
		ConsiderMoveCount: c.ConsiderMoveCount,
		PVMoves:           c.PVMoves,
	}
}

func clamp(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
