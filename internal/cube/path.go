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
	"os"
	"path/filepath"
	"time"
)

// ResolveForAuthor returns the absolute path of the current month's cube for
// author under repoRoot, creating the month directory on demand (spec §4.5:
// `.eikyu/cubes/<YYYY-MM>/<author>.cube`). A failure to create the directory
// is unrecoverable setup, not a per-operation error: it panics, matching the
// pack's own file-storage convention.
func ResolveForAuthor(repoRoot, author string, now time.Time) (string, error) {
	monthDir := filepath.Join(repoRoot, ".eikyu", "cubes", now.Format("2006-01"))
	if err := os.MkdirAll(monthDir, 0750); err != nil {
		panic(err)
	}
	return filepath.Join(monthDir, author+".cube"), nil
}

// InitLayout creates the on-disk `.eikyu` skeleton (cubes/, branches/
// reserved, tree/<author>) and the current cube file for author, mirroring
// the CLI's `init` subcommand (spec §4.5, §6). As in ResolveForAuthor, a
// failed mkdir panics rather than returning an error.
func InitLayout(repoRoot, author string) (string, error) {
	for _, dir := range []string{
		filepath.Join(repoRoot, ".eikyu", "cubes"),
		filepath.Join(repoRoot, ".eikyu", "branches"),
		filepath.Join(repoRoot, ".eikyu", "tree", author),
	} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			panic(err)
		}
	}

	cubePath, err := ResolveForAuthor(repoRoot, author, time.Now())
	if err != nil {
		return "", err
	}
	w, err := Open(cubePath)
	if err != nil {
		return "", err
	}
	defer w.Close()

	return cubePath, nil
}
