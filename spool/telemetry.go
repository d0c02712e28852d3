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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	recordsWrittenCounter otelmetric.Int64Counter
	bytesWrittenCounter   otelmetric.Int64Counter
	codecFallbackCounter  otelmetric.Int64Counter
	filesRemovedCounter   otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/spoolfile/spool")

	var err error
	recordsWrittenCounter, err = meter.Int64Counter(
		"spoolfile.writer.records.written",
		otelmetric.WithDescription("Number of records written to staging files"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create records.written counter: %w", err))
	}

	bytesWrittenCounter, err = meter.Int64Counter(
		"spoolfile.writer.bytes.written",
		otelmetric.WithDescription("Logical size of records written to staging files, before encoding and compression"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create bytes.written counter: %w", err))
	}

	codecFallbackCounter, err = meter.Int64Counter(
		"spoolfile.writer.codec.fallbacks",
		otelmetric.WithDescription("Number of writers that fell back to uncompressed staging"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create codec.fallbacks counter: %w", err))
	}

	filesRemovedCounter, err = meter.Int64Counter(
		"spoolfile.sweeper.files.removed",
		otelmetric.WithDescription("Number of abandoned staging files removed by sweeps"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create files.removed counter: %w", err))
	}
}

// recordCloseMetrics updates the per-file counters when a writer closes.
func recordCloseMetrics(ctx context.Context, codecName string, records, logicalSize int64) {
	attrs := otelmetric.WithAttributes(attribute.String("codec", codecName))
	recordsWrittenCounter.Add(ctx, records, attrs)
	bytesWrittenCounter.Add(ctx, logicalSize, attrs)
}

// recordCodecFallback counts a construction that proceeded without its
// requested codec.
func recordCodecFallback(ctx context.Context, codecName string) {
	codecFallbackCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("codec", codecName)))
}

// recordSweepMetrics counts staging files removed by a sweep.
func recordSweepMetrics(ctx context.Context, removed int64) {
	filesRemovedCounter.Add(ctx, removed)
}
