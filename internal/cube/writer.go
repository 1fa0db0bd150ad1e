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
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/dc0d/onexit"

	"github.com/hackiado/eikyu/internal/event"
)

// Writer owns one cube file for append. Opening a cube is cheap and
// idempotent; callers are expected to keep one Writer per process per cube,
// per the single-writer ownership model (spec §5).
type Writer struct {
	path string
	f    *os.File

	mu     sync.Mutex
	nextID uint64
	closed bool

	watch *WatchServer // optional, nil unless Attach is called
}

// Open opens path, creating and initialising it if it doesn't exist yet,
// recovering nextID from a scan if the header's copy reads zero (spec §4.2
// state machine: [recoverable] --open--> scan --> [initialized]).
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("cube: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cube: stat %s: %w", path, err)
	}

	w := &Writer{path: path, f: f}

	if info.Size() == 0 {
		if err := writeHeader(f, 1); err != nil {
			f.Close()
			return nil, fmt.Errorf("cube: write header %s: %w", path, err)
		}
		w.nextID = 1
	} else {
		nextID, err := readHeader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		if nextID == 0 {
			// A prior crash landed between the data write and the header
			// update (or the header write itself never completed). The
			// cube itself remains the source of truth: recompute from it.
			recovered, err := maxID(path)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("cube: recovery scan %s: %w", path, err)
			}
			nextID = recovered + 1
			if err := writeNextID(f, nextID); err != nil {
				f.Close()
				return nil, fmt.Errorf("cube: persist recovered next id %s: %w", path, err)
			}
		}
		w.nextID = nextID
	}

	if _, err := f.Seek(0, os.SEEK_END); err != nil {
		f.Close()
		return nil, fmt.Errorf("cube: seek end %s: %w", path, err)
	}

	onexit.Register(func() { _ = w.Close() })

	return w, nil
}

// Close releases the underlying file handle. Safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}

// Path returns the cube file path this writer owns.
func (w *Writer) Path() string { return w.path }

// Attach wires a WatchServer that receives a best-effort, non-blocking
// notification of every successfully appended "commit" event (spec §4.8).
func (w *Writer) Attach(ws *WatchServer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watch = ws
}

// Append assigns the next id, durably writes one record, and returns the
// byte offset the record starts at (spec §4.2).
func (w *Writer) Append(phenomenon, noumenon string) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	nanos := time.Now().UnixNano()
	if nanos < 0 {
		return 0, ErrClockSkew
	}
	ts := big.NewInt(nanos)

	id := w.nextID
	frame, err := encodeFrame(ts, id, phenomenon, noumenon)
	if err != nil {
		return 0, err
	}

	start, err := w.f.Seek(0, os.SEEK_END)
	if err != nil {
		return 0, fmt.Errorf("cube: seek end: %w", err)
	}

	if _, err := w.f.Write(frame); err != nil {
		return 0, fmt.Errorf("cube: write record: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return 0, fmt.Errorf("cube: sync record: %w", err)
	}

	if id == ^uint64(0) {
		// The record above is durable; only the id sequence is exhausted.
		// The header's next_id is left untouched, matching a writer that
		// can no longer make progress rather than silently wrapping.
		return 0, ErrIDOverflow
	}
	newNextID := id + 1

	// WriteAt does not disturb the file's current offset, so the writer's
	// append cursor (left at end-of-file by the Write above) needs no
	// explicit restore.
	if err := writeNextID(w.f, newNextID); err != nil {
		return 0, fmt.Errorf("cube: persist next id: %w", err)
	}

	w.nextID = newNextID

	if w.watch != nil && phenomenon == "commit" {
		w.watch.publish(event.Event{ID: id, Timestamp: ts, Phenomenon: phenomenon, Noumenon: noumenon})
	}

	return uint64(start), nil
}
