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

// Package spool stages serialized records in uniquely named local files
// until a shipper takes them over.
//
// A Writer
//  1. creates a staging file with a unique, time-ordered name,
//  2. appends records one per line, optionally through a compression
//     codec resolved by name from the codec registry,
//  3. tracks the logical size and record count of what it accepted,
//  4. on Close(), finalizes the codec stream and closes the file, leaving
//     it on disk for the shipper to pick up and Remove() after a
//     successful hand-off.
//
// A codec name that cannot be resolved never fails construction: staging
// proceeds uncompressed so records are not lost to a configuration
// mistake. The logical counters describe records as written (character
// counts, before encoding and compression, excluding line terminators)
// so shippers can report payload sizes without reading staged files back.
//
// Writers left behind by crashed processes become abandoned files; a
// Sweeper cleans those out of a staging directory.
package spool
