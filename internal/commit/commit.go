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

// Package commit implements the two-phase pending-to-final commit protocol
// layered on top of a cube (spec §4.4).
package commit

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/hackiado/eikyu/internal/cube"
	"github.com/hackiado/eikyu/internal/event"
	"github.com/hackiado/eikyu/internal/snapshot"
)

var millisDivisor = big.NewInt(1_000_000)

// Record is the JSON payload written as a commit event's noumenon. Only ID,
// Ty, Summary, and Timestamp are ever read back by the core; the rest are
// opaque to it.
type Record struct {
	ID          uint64  `json:"id"`
	Parent      *uint64 `json:"parent"`
	Ty          string  `json:"ty"`
	Summary     string  `json:"summary"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	AuthorEmail string  `json:"author_email"`
	Timestamp   int64   `json:"timestamp"` // milliseconds since the Unix epoch
}

// Options captures the fields a caller supplies for a new commit; ID,
// Parent, Author, and Timestamp are filled in by Seal from its own
// parameters.
type Options struct {
	Ty          string
	Summary     string
	Body        string
	AuthorEmail string
}

// Seal reserves an id, finalises a durable commit record, and refreshes the
// author's snapshot tree, implementing the two-phase protocol of spec §4.4.
func Seal(w *cube.Writer, repoRoot, author string, opts Options) (Record, error) {
	template := fmt.Sprintf("%s: %s", opts.Ty, opts.Summary)

	pendingOffset, err := w.Append("commit:pending", template)
	if err != nil {
		return Record{}, fmt.Errorf("commit: reserve: %w", err)
	}

	pending, err := cube.ReadAt(w.Path(), pendingOffset)
	if err != nil {
		return Record{}, fmt.Errorf("commit: read back reservation: %w", err)
	}

	parent, err := latestCommitID(w.Path())
	if err != nil {
		return Record{}, fmt.Errorf("commit: resolve parent: %w", err)
	}

	rec := Record{
		ID:          pending.ID,
		Parent:      parent,
		Ty:          opts.Ty,
		Summary:     opts.Summary,
		Body:        opts.Body,
		Author:      author,
		AuthorEmail: opts.AuthorEmail,
		Timestamp:   new(big.Int).Div(pending.Timestamp, millisDivisor).Int64(),
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("commit: encode record: %w", err)
	}

	if _, err := w.Append("commit", string(body)); err != nil {
		return Record{}, fmt.Errorf("commit: finalise: %w", err)
	}

	if err := snapshot.UpdateTree(repoRoot, author); err != nil {
		return rec, fmt.Errorf("commit: refresh snapshot: %w", err)
	}

	return rec, nil
}

// latestCommitID scans the cube for the most recent durable (non-pending)
// commit event and returns the commit id embedded in its record, or nil if
// there isn't one yet.
func latestCommitID(path string) (*uint64, error) {
	var parent *uint64
	err := cube.ForEach(path, func(ev event.Event, _ uint64) bool {
		if ev.IsCommit() {
			var rec Record
			if err := json.Unmarshal([]byte(ev.Noumenon), &rec); err != nil {
				return true
			}
			id := rec.ID
			parent = &id
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// Log returns every durable commit record in append order, filtering out
// the pending reservations readers are expected to ignore (spec §4.4).
func Log(path string) ([]Record, error) {
	var out []Record
	err := cube.ForEach(path, func(ev event.Event, _ uint64) bool {
		if !ev.IsCommit() {
			return true
		}
		var rec Record
		if err := json.Unmarshal([]byte(ev.Noumenon), &rec); err != nil {
			return true
		}
		out = append(out, rec)
		return true
	})
	return out, err
}
