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

// Package event defines the single entity a cube persists: the Event.
package event

import "math/big"

// MaxStringLen bounds phenomenon and noumenon: both are framed with a u16
// length prefix on the wire.
const MaxStringLen = 1<<16 - 1

// Event is one immutable record read back from a cube. Ids are assigned by
// the writer on append and never change once durable.
type Event struct {
	ID         uint64
	Timestamp  *big.Int // nanoseconds since the Unix epoch; wire width is 128 bits
	Phenomenon string
	Noumenon   string
}

// New builds an Event with the given id and timestamp, useful for tests and
// for constructing a value to hand to a codec without going through a file.
func New(id uint64, timestamp *big.Int, phenomenon, noumenon string) Event {
	return Event{ID: id, Timestamp: timestamp, Phenomenon: phenomenon, Noumenon: noumenon}
}

// IsCommit reports whether this event's phenomenon marks it as a durable
// (non-pending) commit record.
func (e Event) IsCommit() bool {
	return e.Phenomenon == "commit"
}

// IsPendingCommit reports whether this event is a commit reservation.
func (e Event) IsPendingCommit() bool {
	return e.Phenomenon == "commit:pending"
}
