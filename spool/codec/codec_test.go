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

package codec

import (
	"bytes"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("", ".x", func(w io.Writer) (io.WriteCloser, error) { return nopCloser{w}, nil })
	})
	assert.Panics(t, func() {
		Register("nilfactory", ".x", nil)
	})
}

func TestRegisterReplaces(t *testing.T) {
	Register("replaceme", ".v1", func(w io.Writer) (io.WriteCloser, error) { return nopCloser{w}, nil })
	Register("replaceme", ".v2", func(w io.Writer) (io.WriteCloser, error) { return nopCloser{w}, nil })

	_, ext, ok := Lookup("replaceme")
	require.True(t, ok)
	assert.Equal(t, ".v2", ext, "later registration should win")
}

func TestLookupUnknown(t *testing.T) {
	f, ext, ok := Lookup("no-such-codec")
	assert.False(t, ok)
	assert.Nil(t, f)
	assert.Empty(t, ext)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.True(t, slices.IsSorted(names))
	for _, want := range []string{None, "gzip", "pgzip", "zstd", "snappy", "s2", "lz4", "brotli"} {
		assert.Contains(t, names, want)
	}
}

func TestNoneIsIdentity(t *testing.T) {
	f, ext, ok := Lookup(None)
	require.True(t, ok)
	assert.Empty(t, ext)

	var buf bytes.Buffer
	wc, err := f(&buf)
	require.NoError(t, err)
	_, err = wc.Write([]byte("plain text\n"))
	require.NoError(t, err)

	fl, ok := wc.(Flusher)
	require.True(t, ok, "the identity codec should flush as a no-op")
	require.NoError(t, fl.Flush())

	require.NoError(t, wc.Close())
	assert.Equal(t, "plain text\n", buf.String())
}

func TestBuiltinRoundTrip(t *testing.T) {
	payload := strings.Repeat("staging writers favor speed over ratio\n", 200)

	cases := []struct {
		name    string
		ext     string
		decoder func(t *testing.T, r io.Reader) io.Reader
	}{
		{
			name: "gzip",
			ext:  ".gz",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				zr, err := gzip.NewReader(r)
				require.NoError(t, err)
				t.Cleanup(func() { _ = zr.Close() })
				return zr
			},
		},
		{
			name: "pgzip",
			ext:  ".gz",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				zr, err := gzip.NewReader(r)
				require.NoError(t, err)
				t.Cleanup(func() { _ = zr.Close() })
				return zr
			},
		},
		{
			name: "zstd",
			ext:  ".zstd",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				zr, err := zstd.NewReader(r)
				require.NoError(t, err)
				t.Cleanup(zr.Close)
				return zr
			},
		},
		{
			name: "snappy",
			ext:  ".sz",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				return snappy.NewReader(r)
			},
		},
		{
			name: "s2",
			ext:  ".s2",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				return s2.NewReader(r)
			},
		},
		{
			name: "lz4",
			ext:  ".lz4",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				return lz4.NewReader(r)
			},
		},
		{
			name: "brotli",
			ext:  ".br",
			decoder: func(t *testing.T, r io.Reader) io.Reader {
				return brotli.NewReader(r)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, ext, ok := Lookup(tc.name)
			require.True(t, ok)
			assert.Equal(t, tc.ext, ext)

			var buf bytes.Buffer
			wc, err := f(&buf)
			require.NoError(t, err)

			_, ok = wc.(Flusher)
			assert.True(t, ok, "built-in codecs should support Flush")

			_, err = io.Copy(wc, strings.NewReader(payload))
			require.NoError(t, err)
			require.NoError(t, wc.Close())

			assert.Less(t, buf.Len(), len(payload), "compressed output should be smaller")

			decoded, err := io.ReadAll(tc.decoder(t, &buf))
			require.NoError(t, err)
			assert.Equal(t, payload, string(decoded))
		})
	}
}

func TestFlushMakesDataReadable(t *testing.T) {
	f, _, ok := Lookup("gzip")
	require.True(t, ok)

	var buf bytes.Buffer
	wc, err := f(&buf)
	require.NoError(t, err)

	_, err = wc.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, wc.(Flusher).Flush())

	// A sync flush must push the written bytes downstream without
	// ending the stream.
	assert.Positive(t, buf.Len())

	zr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got := make([]byte, 7)
	_, err = io.ReadFull(zr, got)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(got))

	require.NoError(t, wc.Close())
}
