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
	"errors"
	"io"

	"github.com/hackiado/eikyu/internal/event"
)

// frameStatus classifies the outcome of reading one frame at a known offset.
type frameStatus int

const (
	frameOK frameStatus = iota
	frameEOF
	frameTorn // present but fails a length/crc/utf-8 check
)

// readFrame reads and validates exactly one frame starting at offset. It
// never returns an error for a torn or missing frame — that is communicated
// through the returned status, so both iteration (stop silently) and
// random-access reads (fail hard) can apply their own policy on top.
func readFrame(r io.ReaderAt, offset uint64) (next uint64, ev event.Event, status frameStatus) {
	var lenBuf [lenPrefixWidth]byte
	n, err := r.ReadAt(lenBuf[:], int64(offset))
	if n < lenPrefixWidth {
		if err != nil && errors.Is(err, io.EOF) && n == 0 {
			return offset, event.Event{}, frameEOF
		}
		return offset, event.Event{}, frameTorn
	}

	lenTotal := binary.LittleEndian.Uint32(lenBuf[:])
	if lenTotal < minFrameLen {
		return offset, event.Event{}, frameTorn
	}

	body := make([]byte, lenTotal)
	if _, err := r.ReadAt(body, int64(offset)+lenPrefixWidth); err != nil {
		return offset, event.Event{}, frameTorn
	}

	payload, err := verifyAndSplit(body)
	if err != nil {
		return offset, event.Event{}, frameTorn
	}

	ts, id, ph, no, err := decodePayload(payload)
	if err != nil {
		return offset, event.Event{}, frameTorn
	}

	ev = event.Event{ID: id, Timestamp: ts, Phenomenon: ph, Noumenon: no}
	next = offset + lenPrefixWidth + uint64(lenTotal)
	return next, ev, frameOK
}
