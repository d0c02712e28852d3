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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/spoolfile/internal/idgen"
	"github.com/cardinalhq/spoolfile/spool/codec"
)

var (
	// ErrAlreadyClosed is returned by Close when the writer was closed before.
	ErrAlreadyClosed = errors.New("spool: writer already closed")

	// ErrWriterClosed is reported when a closed writer is asked to do work.
	ErrWriterClosed = errors.New("spool: writer is closed")
)

// Writer stages records in a uniquely named local file until a shipper
// takes over. Records are appended one per line through an optional
// compression codec. Writers are not concurrency-safe.
type Writer struct {
	id        string
	path      string
	codecName string
	logger    *slog.Logger

	file  *os.File
	codec io.WriteCloser
	buf   *bufio.Writer

	writtenBytes int64
	writtenCount int64

	writeErr error
	closed   bool
}

// New creates a staging file in the configured directory and returns a
// Writer that appends records to it through the named codec. An
// unrecognized codec name, or a codec constructor failure, never fails
// construction: the writer logs a warning and stages uncompressed
// instead. File creation failures do fail construction.
//
// The empty codec name means codec.None.
func New(codecName string, opts ...WriterOption) (*Writer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	id := idgen.Default.NewID()
	logger := cfg.logger.With(slog.String("spool_id", id))

	name := codecName
	if name == "" {
		name = codec.None
	}
	factory, ext, ok := codec.Lookup(name)
	if !ok {
		logger.Warn("Unknown codec, staging uncompressed",
			slog.String("codec", name),
			slog.Any("registered", codec.Names()))
		recordCodecFallback(context.Background(), name)
		name = codec.None
		factory, ext, _ = codec.Lookup(name)
	}

	file, err := os.CreateTemp(cfg.dir, cfg.prefix+"-"+id+"-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("spool: create staging file: %w", err)
	}

	cw, err := factory(file)
	if err != nil {
		logger.Warn("Codec construction failed, staging uncompressed",
			slog.String("codec", name),
			slog.Any("error", err))
		recordCodecFallback(context.Background(), name)
		name = codec.None
		nf, _, _ := codec.Lookup(name)
		cw, _ = nf(file)
	}

	w := &Writer{
		id:        id,
		path:      file.Name(),
		codecName: name,
		logger:    logger,
		file:      file,
		codec:     cw,
		buf:       bufio.NewWriterSize(cw, int(cfg.bufSize.Bytes())),
	}

	logger.Debug("Staging file created",
		slog.String("path", w.path),
		slog.String("codec", name))
	return w, nil
}

// Write appends record to the staging file as a line of text, using the
// value's default string form. The logical counters advance even if the
// underlying write fails; the first failure is retained and available
// from Err. Write on a closed writer records ErrWriterClosed and leaves
// the counters unchanged.
func (w *Writer) Write(record any) {
	if w.closed {
		w.noteErr(ErrWriterClosed)
		return
	}
	s := fmt.Sprint(record)
	if _, err := w.buf.WriteString(s); err != nil {
		w.noteErr(fmt.Errorf("spool: write record: %w", err))
	} else if err := w.buf.WriteByte('\n'); err != nil {
		w.noteErr(fmt.Errorf("spool: write record: %w", err))
	}
	w.writtenBytes += int64(utf8.RuneCountInString(s))
	w.writtenCount++
}

// Err returns the first error observed on the write path, or nil. Write
// never fails loudly; callers that care check Err before shipping the
// staged file.
func (w *Writer) Err() error {
	return w.writeErr
}

// Flush pushes buffered records through the codec and onto disk without
// ending the codec stream.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrWriterClosed
	}
	if err := w.buf.Flush(); err != nil {
		err = fmt.Errorf("spool: flush buffer: %w", err)
		w.noteErr(err)
		return err
	}
	if f, ok := w.codec.(codec.Flusher); ok {
		if err := f.Flush(); err != nil {
			err = fmt.Errorf("spool: flush codec: %w", err)
			w.noteErr(err)
			return err
		}
	}
	return nil
}

// WrittenBytes returns the logical size of the staged records: the sum
// of the character counts of their string forms, excluding line
// terminators and unaffected by encoding or compression.
func (w *Writer) WrittenBytes() int64 {
	return w.writtenBytes
}

// WrittenCount returns the number of records accepted by Write.
func (w *Writer) WrittenCount() int64 {
	return w.writtenCount
}

// Size flushes pending data and returns the staging file's physical size
// on disk. On a closed writer it stats the path without flushing; the
// file often outlives its writer until a shipper removes it.
func (w *Writer) Size() (int64, error) {
	if !w.closed {
		if err := w.Flush(); err != nil {
			return 0, err
		}
	}
	fi, err := os.Stat(w.path)
	if err != nil {
		return 0, fmt.Errorf("spool: stat staging file: %w", err)
	}
	return fi.Size(), nil
}

// Path returns the staging file's path. It never changes for the life of
// the writer.
func (w *Writer) Path() string {
	return w.path
}

// ID returns the writer's unique identifier. It is embedded in the
// staging file name and attached to the writer's log events.
func (w *Writer) ID() string {
	return w.id
}

// Close flushes pending data, finalizes the codec stream, and closes the
// staging file, in that order. Every stage runs even if an earlier one
// fails; failures are collected into the returned error. Closing a
// closed writer returns ErrAlreadyClosed. Close does not remove the file.
func (w *Writer) Close() error {
	if w.closed {
		return ErrAlreadyClosed
	}
	w.closed = true

	var errs *multierror.Error
	if err := w.buf.Flush(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("spool: flush buffer: %w", err))
	}
	if err := w.codec.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("spool: finalize codec: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("spool: close staging file: %w", err))
	}

	recordCloseMetrics(context.Background(), w.codecName, w.writtenCount, w.writtenBytes)
	w.logger.Debug("Staging file closed",
		slog.String("path", w.path),
		slog.Int64("records", w.writtenCount),
		slog.Int64("logical_size", w.writtenBytes))
	return errs.ErrorOrNil()
}

// Remove deletes the staging file. Removal is best-effort cleanup: a
// file that is already gone counts as success, and other failures are
// logged but never surfaced. Remove works before or after Close.
func (w *Writer) Remove() {
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("Failed to remove staging file",
			slog.String("path", w.path),
			slog.Any("error", err))
		return
	}
	w.logger.Debug("Staging file removed", slog.String("path", w.path))
}

// noteErr retains the first error seen on the write path.
func (w *Writer) noteErr(err error) {
	if w.writeErr == nil {
		w.writeErr = err
	}
}
