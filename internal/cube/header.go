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
	"encoding/binary"
	"fmt"
	"io"
)

const (
	headerLen      = 16
	headerReserved = 2
	currentVersion = uint16(1)
)

var magic = [4]byte{'A', 'K', 'L', 'A'}

// writeHeader writes a fresh 16-byte header at the start of f: MAGIC,
// VERSION, nextID and two zero reserved bytes.
func writeHeader(w io.WriterAt, nextID uint64) error {
	var buf [headerLen]byte
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], currentVersion)
	binary.LittleEndian.PutUint64(buf[6:14], nextID)
	// buf[14:16] stays zero (reserved)
	_, err := w.WriteAt(buf[:], 0)
	return err
}

// readHeader reads and validates the header, returning the persisted nextID.
func readHeader(r io.ReaderAt) (uint64, error) {
	var buf [headerLen]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if string(buf[0:4]) != string(magic[:]) {
		return 0, fmt.Errorf("%w: bad magic", ErrInvalidHeader)
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != currentVersion {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrWrongVersion, version, currentVersion)
	}
	return binary.LittleEndian.Uint64(buf[6:14]), nil
}

// writeNextID rewrites only the NEXT_ID field of an existing header.
func writeNextID(w io.WriterAt, nextID uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], nextID)
	_, err := w.WriteAt(buf[:], 6)
	return err
}
