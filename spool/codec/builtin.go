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
	"io"
	"runtime"

	"github.com/andybalholm/brotli"
	"github.com/c2h5oh/datasize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
)

// Staging files are compressed for transport, not archival, so the
// built-ins favor speed over ratio.
const pgzipBlockSize = 256 * datasize.KB

func init() {
	Register(None, "", func(w io.Writer) (io.WriteCloser, error) {
		return nopCloser{w}, nil
	})
	Register("gzip", ".gz", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	})
	Register("pgzip", ".gz", func(w io.Writer) (io.WriteCloser, error) {
		zw, err := pgzip.NewWriterLevel(w, pgzip.BestSpeed)
		if err != nil {
			return nil, err
		}
		if err := zw.SetConcurrency(int(pgzipBlockSize.Bytes()), runtime.GOMAXPROCS(0)); err != nil {
			return nil, err
		}
		return zw, nil
	})
	Register("zstd", ".zstd", func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	Register("snappy", ".sz", func(w io.Writer) (io.WriteCloser, error) {
		return snappy.NewBufferedWriter(w), nil
	})
	Register("s2", ".s2", func(w io.Writer) (io.WriteCloser, error) {
		return s2.NewWriter(w), nil
	})
	Register("lz4", ".lz4", func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	})
	Register("brotli", ".br", func(w io.Writer) (io.WriteCloser, error) {
		return brotli.NewWriter(w), nil
	})
}
