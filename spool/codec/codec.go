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

// Package codec maps string identifiers to compression stream factories.
//
// A staging writer asks the registry for a factory by name and wraps its
// file handle with the result. The table is populated with the built-in
// codecs at init time; applications may register their own or replace a
// built-in (for example to substitute a pooled or parallel encoder).
package codec

import (
	"io"
	"maps"
	"slices"
	"sync"
)

// Factory builds a compressing decorator around w. The returned writer
// compresses into w; its Close finalizes the codec stream and must not
// close w itself.
type Factory func(w io.Writer) (io.WriteCloser, error)

// Flusher is implemented by decorators that can push pending data to
// the wrapped writer without ending the stream. All built-in codecs
// implement it; for None the flush is a no-op.
type Flusher interface {
	Flush() error
}

// None identifies the identity codec: no compression, no extension.
// It is always registered and serves as the fallback for unresolved
// identifiers.
const None = "none"

type entry struct {
	factory Factory
	ext     string
}

var (
	mu       sync.RWMutex
	registry = make(map[string]entry)
)

// Register adds a factory under name, with ext the filename extension
// (including the dot, empty for none) for files written through it.
// Later registrations replace earlier ones. Register panics on an empty
// name or a nil factory.
func Register(name, ext string, f Factory) {
	if name == "" {
		panic("codec: Register with empty name")
	}
	if f == nil {
		panic("codec: Register with nil factory")
	}
	mu.Lock()
	defer mu.Unlock()
	registry[name] = entry{factory: f, ext: ext}
}

// Lookup returns the factory and filename extension registered under
// name, and whether the name is known.
func Lookup(name string) (Factory, string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := registry[name]
	return e.factory, e.ext, ok
}

// Names returns the registered identifiers in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := slices.Collect(maps.Keys(registry))
	slices.Sort(names)
	return names
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func (nopCloser) Flush() error { return nil }
