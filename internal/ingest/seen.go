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

package ingest

import (
	"lukechampine.com/blake3"

	"github.com/launix-de/NonLockingReadMap"

	"github.com/hackiado/eikyu/internal/cube"
	"github.com/hackiado/eikyu/internal/event"
)

// seenEntry is one path's last-known content hash, as derived from the log.
type seenEntry struct {
	path string
	hash [32]byte
}

func (e *seenEntry) ComputeSize() uint { return uint(len(e.path)) + 32 }
func (e *seenEntry) GetKey() string    { return e.path }

// seenMap is the in-memory "path -> content hash" view rebuilt from a cube
// at the start of every ingestion call (spec §4.3 step 1, §9). It is never
// persisted: the cube is the only source of truth, and a later record for
// the same path always supersedes an earlier one.
type seenMap struct {
	m NonLockingReadMap.NonLockingReadMap[seenEntry, string]
}

// buildSeenMap scans every valid event in the cube at path, hashing each
// ingested file's stored content, last writer per path wins.
func buildSeenMap(path string) (*seenMap, error) {
	sm := &seenMap{m: NonLockingReadMap.New[seenEntry, string]()}

	err := cube.ForEach(path, func(ev event.Event, _ uint64) bool {
		if ev.IsCommit() || ev.IsPendingCommit() {
			return true
		}
		sm.set(ev.Phenomenon, blake3.Sum256([]byte(ev.Noumenon)))
		return true
	})
	if err != nil {
		return nil, err
	}
	return sm, nil
}

func (sm *seenMap) get(path string) (*seenEntry, bool) {
	e := sm.m.Get(path)
	if e == nil {
		return nil, false
	}
	return e, true
}

func (sm *seenMap) set(path string, hash [32]byte) {
	sm.m.Set(&seenEntry{path: path, hash: hash})
}
