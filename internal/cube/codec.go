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
	"hash/crc32"
	"math/big"
	"unicode/utf8"

	"github.com/hackiado/eikyu/internal/event"
)

// Frame layout: len_total(u32 LE) + payload + crc32(u32 LE). Payload layout:
// timestamp(u128 LE) + id(u64 LE) + ph_len(u16 LE) + no_len(u16 LE) + ph + no.
const (
	tsWidth        = 16
	idWidth        = 8
	lenPrefixWidth = 4
	crcWidth       = 4
	minPayloadLen  = tsWidth + idWidth + 2 + 2         // 28
	minFrameLen    = minPayloadLen + crcWidth          // 32, per spec §4.2
	crcTableIEEE   = crc32.IEEE                         // ISO-HDLC polynomial, same as crc32fast's default
)

var crcTable = crc32.MakeTable(crcTableIEEE)

// putUint128LE writes the low 128 bits of v into dst (len 16) little-endian.
func putUint128LE(dst []byte, v *big.Int) {
	b := v.Bytes() // big-endian, no leading zeros
	for i := 0; i < tsWidth; i++ {
		if i < len(b) {
			dst[i] = b[len(b)-1-i]
		} else {
			dst[i] = 0
		}
	}
}

// getUint128LE reads 16 little-endian bytes back into a big.Int.
func getUint128LE(src []byte) *big.Int {
	be := make([]byte, tsWidth)
	for i := 0; i < tsWidth; i++ {
		be[tsWidth-1-i] = src[i]
	}
	return new(big.Int).SetBytes(be)
}

// encodeFrame builds one complete, CRC-protected record frame ready to be
// appended to a cube: len_total + payload + crc.
func encodeFrame(ts *big.Int, id uint64, phenomenon, noumenon string) ([]byte, error) {
	if len(phenomenon) > event.MaxStringLen || len(noumenon) > event.MaxStringLen {
		return nil, fmt.Errorf("cube: phenomenon/noumenon exceeds %d bytes", event.MaxStringLen)
	}

	payloadLen := minPayloadLen + len(phenomenon) + len(noumenon)
	buf := make([]byte, lenPrefixWidth+payloadLen+crcWidth)

	p := buf[lenPrefixWidth:]
	putUint128LE(p[0:tsWidth], ts)
	binary.LittleEndian.PutUint64(p[tsWidth:tsWidth+idWidth], id)
	binary.LittleEndian.PutUint16(p[tsWidth+idWidth:tsWidth+idWidth+2], uint16(len(phenomenon)))
	binary.LittleEndian.PutUint16(p[tsWidth+idWidth+2:tsWidth+idWidth+4], uint16(len(noumenon)))
	off := tsWidth + idWidth + 4
	off += copy(p[off:], phenomenon)
	copy(p[off:], noumenon)

	payload := p[:payloadLen]
	crc := crc32.Checksum(payload, crcTable)
	binary.LittleEndian.PutUint32(buf[lenPrefixWidth+payloadLen:], crc)

	lenTotal := uint32(payloadLen + crcWidth)
	binary.LittleEndian.PutUint32(buf[0:lenPrefixWidth], lenTotal)

	return buf, nil
}

// decodePayload parses and validates a verified payload (CRC already
// checked by the caller) into an Event's fields.
func decodePayload(payload []byte) (ts *big.Int, id uint64, phenomenon, noumenon string, err error) {
	if len(payload) < minPayloadLen {
		return nil, 0, "", "", fmt.Errorf("%w: short payload", ErrCorruption)
	}
	ts = getUint128LE(payload[0:tsWidth])
	id = binary.LittleEndian.Uint64(payload[tsWidth : tsWidth+idWidth])
	phLen := int(binary.LittleEndian.Uint16(payload[tsWidth+idWidth : tsWidth+idWidth+2]))
	noLen := int(binary.LittleEndian.Uint16(payload[tsWidth+idWidth+2 : tsWidth+idWidth+4]))

	start := tsWidth + idWidth + 4
	phEnd := start + phLen
	noEnd := phEnd + noLen
	if phEnd < start || noEnd < phEnd || noEnd > len(payload) {
		return nil, 0, "", "", fmt.Errorf("%w: malformed length fields", ErrCorruption)
	}

	phBytes := payload[start:phEnd]
	noBytes := payload[phEnd:noEnd]
	if !utf8.Valid(phBytes) || !utf8.Valid(noBytes) {
		return nil, 0, "", "", fmt.Errorf("%w: invalid utf-8", ErrCorruption)
	}

	return ts, id, string(phBytes), string(noBytes), nil
}

// verifyAndSplit checks the CRC of a raw frame body (everything after the
// length prefix) and returns the payload slice with the CRC trimmed off.
func verifyAndSplit(body []byte) ([]byte, error) {
	if len(body) < crcWidth {
		return nil, fmt.Errorf("%w: frame shorter than crc width", ErrCorruption)
	}
	payload := body[:len(body)-crcWidth]
	wantCRC := binary.LittleEndian.Uint32(body[len(body)-crcWidth:])
	gotCRC := crc32.Checksum(payload, crcTable)
	if wantCRC != gotCRC {
		return nil, fmt.Errorf("%w: crc mismatch", ErrCorruption)
	}
	return payload, nil
}
