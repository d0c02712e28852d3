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
	"log/slog"
	"os"

	"github.com/c2h5oh/datasize"
)

const (
	defaultPrefix     = "spool"
	defaultBufferSize = 64 * datasize.KB
)

type config struct {
	logger  *slog.Logger
	dir     string
	prefix  string
	bufSize datasize.ByteSize
}

func defaultConfig() config {
	return config{
		logger:  slog.Default(),
		dir:     os.TempDir(),
		prefix:  defaultPrefix,
		bufSize: defaultBufferSize,
	}
}

type WriterOption interface {
	apply(*config)
}

// WithLogger sets the logger used for writer lifecycle events. A nil
// logger keeps the default.
func WithLogger(l *slog.Logger) WriterOption {
	return &loggerOption{l: l}
}

type loggerOption struct {
	l *slog.Logger
}

func (o *loggerOption) apply(c *config) {
	if o.l != nil {
		c.logger = o.l
	}
}

// WithDir sets the directory staging files are created in. The default
// is os.TempDir(). The directory must already exist.
func WithDir(dir string) WriterOption {
	return &dirOption{dir: dir}
}

type dirOption struct {
	dir string
}

func (o *dirOption) apply(c *config) {
	if o.dir != "" {
		c.dir = o.dir
	}
}

// WithPrefix sets the staging filename prefix.
func WithPrefix(prefix string) WriterOption {
	return &prefixOption{prefix: prefix}
}

type prefixOption struct {
	prefix string
}

func (o *prefixOption) apply(c *config) {
	if o.prefix != "" {
		c.prefix = o.prefix
	}
}

// WithBufferSize sets the size of the in-memory buffer in front of the
// codec. Sizes below one byte keep the default of 64KB.
func WithBufferSize(size datasize.ByteSize) WriterOption {
	return &bufferSizeOption{size: size}
}

type bufferSizeOption struct {
	size datasize.ByteSize
}

func (o *bufferSizeOption) apply(c *config) {
	if o.size > 0 {
		c.bufSize = o.size
	}
}
