// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package spool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "spool config: " + e.Field + " " + e.Message
}

// Sweeper removes staging files abandoned by writers that never reached
// Remove, typically because their process died. Shippers run a sweep at
// startup or on a timer against each staging directory they own.
type Sweeper struct {
	// Dir is the directory to scan.
	Dir string

	// Prefix is the staging filename prefix to match. Empty means the
	// writer default.
	Prefix string

	// MaxAge is the minimum time since last modification before a file
	// counts as abandoned.
	MaxAge time.Duration

	// Clock is the time source; nil means the wall clock.
	Clock clockwork.Clock

	// Logger is used for sweep events; nil means slog.Default().
	Logger *slog.Logger
}

func (s *Sweeper) validate() error {
	if s.Dir == "" {
		return &ConfigError{Field: "Dir", Message: "cannot be empty"}
	}
	if s.MaxAge <= 0 {
		return &ConfigError{Field: "MaxAge", Message: "must be positive"}
	}
	return nil
}

func (s *Sweeper) clock() clockwork.Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return clockwork.NewRealClock()
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Sweeper) prefix() string {
	if s.Prefix != "" {
		return s.Prefix
	}
	return defaultPrefix
}

// Sweep removes matching regular files whose age is at least MaxAge and
// returns how many were removed. Individual removal failures do not stop
// the sweep; they are collected into the returned error.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("spool: read staging dir: %w", err)
	}

	logger := s.logger()
	cutoff := s.clock().Now().Add(-s.MaxAge)
	prefix := s.prefix() + "-"

	removed := 0
	var errs *multierror.Error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Raced with its own writer's Remove.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = multierror.Append(errs, fmt.Errorf("spool: stat %s: %w", entry.Name(), err))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.Dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = multierror.Append(errs, fmt.Errorf("spool: remove %s: %w", path, err))
			continue
		}
		logger.Debug("Swept abandoned staging file",
			slog.String("path", path),
			slog.Time("modified", info.ModTime()))
		removed++
	}

	if removed > 0 {
		recordSweepMetrics(ctx, int64(removed))
		logger.Info("Staging sweep complete",
			slog.String("dir", s.Dir),
			slog.Int("removed", removed))
	}
	return removed, errs.ErrorOrNil()
}
