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

import "errors"

// Error kinds exposed by the cube core (spec §7). Sequential iteration
// treats Corruption as "stop here", read-at treats it as a hard failure.
var (
	ErrInvalidHeader = errors.New("cube: invalid header")
	ErrCorruption    = errors.New("cube: corrupted record")
	ErrClockSkew     = errors.New("cube: system clock precedes unix epoch")
	ErrIDOverflow    = errors.New("cube: next id overflowed uint64 range")
	ErrWrongVersion  = errors.New("cube: unsupported cube version")
)
