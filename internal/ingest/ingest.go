/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package ingest walks a working directory, diffs it against the content
// already recorded in a cube, and appends one event per changed file.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/docker/go-units"
	"lukechampine.com/blake3"

	"github.com/hackiado/eikyu/internal/cube"
	"github.com/hackiado/eikyu/internal/event"
)

// Summary totals one ingestion run, printed as a single human-readable line.
type Summary struct {
	Scanned      int
	Changed      int
	SkippedBytes []string // relative paths skipped for not being valid UTF-8 or exceeding event.MaxStringLen
	Failed       []string // relative paths that errored out of the batch
	BytesWritten int64
}

// Run walks root, hashes every candidate file's current content against the
// log-derived seen map, and appends a record for every path whose content is
// new or has changed (spec §4.3). Writer must already be open on the cube
// associated with repoRoot's author.
func Run(w *cube.Writer, root string) (Summary, error) {
	var sum Summary

	sm, err := buildSeenMap(w.Path())
	if err != nil {
		return sum, fmt.Errorf("ingest: build seen map: %w", err)
	}

	paths, err := Walk(root)
	if err != nil {
		return sum, fmt.Errorf("ingest: walk %s: %w", root, err)
	}

	for _, rel := range paths {
		sum.Scanned++

		full := filepath.Join(root, rel)
		content, err := os.ReadFile(full)
		if err != nil {
			// The file may have been removed or renamed mid-walk; this is
			// not fatal to the batch, but it is reported rather than
			// silently dropped (spec §4.3 step 5).
			sum.Failed = append(sum.Failed, rel)
			continue
		}

		hash := blake3.Sum256(content)
		if prev, ok := sm.get(rel); ok && prev.hash == hash {
			continue
		}

		if len(content) > event.MaxStringLen {
			sum.SkippedBytes = append(sum.SkippedBytes, rel)
			continue
		}
		if !utf8.Valid(content) {
			// Binary content has no line-oriented diff representation and
			// the wire format has no byte-string variant (spec §9 open
			// question, accepted as-is): skip rather than corrupt history.
			sum.SkippedBytes = append(sum.SkippedBytes, rel)
			continue
		}

		if _, err := w.Append(rel, string(content)); err != nil {
			// A per-file append failure is reported but does not abort the
			// rest of the batch (spec §4.3 step 5, §7).
			sum.Failed = append(sum.Failed, rel)
			continue
		}
		sm.set(rel, hash)
		sum.Changed++
		sum.BytesWritten += int64(len(content))
	}

	return sum, nil
}

// String renders the summary the way a CLI run would print it.
func (s Summary) String() string {
	msg := fmt.Sprintf("scanned %d file(s), %d changed, %s written", s.Scanned, s.Changed, units.HumanSize(float64(s.BytesWritten)))
	if len(s.SkippedBytes) > 0 {
		msg += fmt.Sprintf(", %d skipped (not valid UTF-8 or too large)", len(s.SkippedBytes))
	}
	if len(s.Failed) > 0 {
		msg += fmt.Sprintf(", %d failed (read or append error)", len(s.Failed))
	}
	return msg
}
