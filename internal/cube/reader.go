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

package cube

import (
	"fmt"
	"io"
	"os"

	"github.com/google/btree"

	"github.com/hackiado/eikyu/internal/event"
)

// indexEntry is one id->offset pair kept in the ordered index.
type indexEntry struct {
	id     uint64
	offset uint64
}

func indexLess(a, b indexEntry) bool { return a.id < b.id }

// Index is the ordered id->offset view rebuilt by RebuildIndex.
type Index struct {
	tree *btree.BTreeG[indexEntry]
}

// Len returns the number of distinct ids in the index.
func (idx *Index) Len() int { return idx.tree.Len() }

// Offset looks up the byte offset of a given id, if present.
func (idx *Index) Offset(id uint64) (uint64, bool) {
	e, ok := idx.tree.Get(indexEntry{id: id})
	return e.offset, ok
}

// Ascend visits every (id, offset) pair in ascending id order, stopping
// early if fn returns false.
func (idx *Index) Ascend(fn func(id, offset uint64) bool) {
	idx.tree.Ascend(func(e indexEntry) bool {
		return fn(e.id, e.offset)
	})
}

// ReadAt performs a random-access read of a single record at a known byte
// offset. Unlike Iterate, any corruption here is a hard failure (spec §4.2).
func ReadAt(path string, offset uint64) (event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return event.Event{}, fmt.Errorf("cube: open %s: %w", path, err)
	}
	defer f.Close()

	_, ev, status := readFrame(f, offset)
	switch status {
	case frameOK:
		return ev, nil
	case frameEOF:
		return event.Event{}, fmt.Errorf("cube: read at %d: %w", offset, io.ErrUnexpectedEOF)
	default:
		return event.Event{}, fmt.Errorf("cube: read at %d: %w", offset, ErrCorruption)
	}
}

// ForEach walks every valid record in id-append order starting right after
// the header, calling fn with each event and the offset it started at. It
// stops at the first frame that fails any integrity check, treating
// everything beyond as a torn tail (spec §4.2) — this is silent, not an
// error.
func ForEach(path string, fn func(ev event.Event, offset uint64) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cube: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := readHeader(f); err != nil {
		return err
	}

	offset := uint64(headerLen)
	for {
		next, ev, status := readFrame(f, offset)
		if status != frameOK {
			return nil
		}
		if !fn(ev, offset) {
			return nil
		}
		offset = next
	}
}

// ReadAll collects every valid event into a slice, in append (and thus id)
// order.
func ReadAll(path string) ([]event.Event, error) {
	var out []event.Event
	err := ForEach(path, func(ev event.Event, _ uint64) bool {
		out = append(out, ev)
		return true
	})
	return out, err
}

// RebuildIndex scans every valid frame and returns an ordered id->offset
// index. If an id appears more than once (which the append protocol never
// produces) the later occurrence wins.
func RebuildIndex(path string) (*Index, error) {
	tree := btree.NewG(32, indexLess)
	err := ForEach(path, func(ev event.Event, offset uint64) bool {
		tree.ReplaceOrInsert(indexEntry{id: ev.ID, offset: offset})
		return true
	})
	if err != nil {
		return nil, err
	}
	return &Index{tree: tree}, nil
}

// maxID scans a cube for the highest id among its valid records, used to
// recover next_id after a header write was lost to a crash. Returns 0 if
// the cube has no valid records yet.
func maxID(path string) (uint64, error) {
	var max uint64
	err := ForEach(path, func(ev event.Event, _ uint64) bool {
		if ev.ID > max {
			max = ev.ID
		}
		return true
	})
	return max, err
}
