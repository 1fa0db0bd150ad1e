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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/crackcomm/go-gitignore"
)

// loadIgnore loads patterns from root/.ignore and root/.gitignore, if they
// exist. A repository with neither file simply has no extra patterns beyond
// the hard-coded exclusions in Walk.
func loadIgnore(root string) (*gitignore.GitIgnore, error) {
	var lines []string
	for _, name := range []string{".ignore", ".gitignore"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	if len(lines) == 0 {
		return gitignore.New(strings.NewReader(""), root)
	}
	return gitignore.New(strings.NewReader(strings.Join(lines, "\n")), root)
}

// hardExcluded reports the always-on exclusions from spec §4.3: dotfiles
// and any path component named "target" or ".git".
func hardExcluded(rel string) bool {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, comp := range strings.Split(filepath.ToSlash(rel), "/") {
		if comp == "target" || comp == ".git" {
			return true
		}
	}
	return false
}

// Walk enumerates regular-file candidates under root, honouring a
// gitignore-style ignore file and the hard-coded dotfile/target/.git
// exclusions, and returns them sorted lexicographically for deterministic
// ingestion order (spec §4.3 steps 2-3).
func Walk(root string) ([]string, error) {
	ignore, err := loadIgnore(root)
	if err != nil {
		return nil, err
	}

	var candidates []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			if hardExcluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if hardExcluded(rel) {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if ignore.Match(filepath.ToSlash(rel)) {
			return nil
		}
		candidates = append(candidates, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(candidates)
	return candidates, nil
}
