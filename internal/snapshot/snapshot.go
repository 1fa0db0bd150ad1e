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

// Package snapshot mirrors a working directory into a per-author reference
// tree and diffs the live tree against it.
package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hackiado/eikyu/internal/ingest"
)

// treeDir returns `<repoRoot>/.eikyu/tree/<author>`.
func treeDir(repoRoot, author string) string {
	return filepath.Join(repoRoot, ".eikyu", "tree", author)
}

// UpdateTree destructively mirrors repoRoot's working directory into the
// author's reference tree (spec §4.6): remove, recreate, copy every
// candidate file byte-for-byte. Permissions and timestamps are not
// preserved.
func UpdateTree(repoRoot, author string) error {
	dest := treeDir(repoRoot, author)

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("snapshot: remove %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0750); err != nil {
		return fmt.Errorf("snapshot: create %s: %w", dest, err)
	}

	paths, err := ingest.Walk(repoRoot)
	if err != nil {
		return fmt.Errorf("snapshot: walk %s: %w", repoRoot, err)
	}

	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(repoRoot, rel))
		if err != nil {
			continue
		}
		dstPath := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(dstPath), 0750); err != nil {
			return fmt.Errorf("snapshot: mkdir %s: %w", filepath.Dir(dstPath), err)
		}
		if err := os.WriteFile(dstPath, data, 0644); err != nil {
			return fmt.Errorf("snapshot: write %s: %w", dstPath, err)
		}
	}

	return nil
}

// listTree returns every regular file under root, relative to root, sorted
// lexicographically. Unlike ingest.Walk it applies no ignore rules: the
// snapshot tree already holds exactly what the last update_tree copied.
func listTree(root string) ([]string, error) {
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Diff compares the live working directory against the author's snapshot
// tree and returns one rendered line per change, in path order (spec §4.6).
// A missing snapshot directory is reported as ErrNoSnapshot, non-fatal to
// the caller.
func Diff(repoRoot, author string) ([]string, error) {
	dest := treeDir(repoRoot, author)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}

	workPaths, err := ingest.Walk(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("snapshot: walk %s: %w", repoRoot, err)
	}
	snapPaths, err := listTree(dest)
	if err != nil {
		return nil, fmt.Errorf("snapshot: walk %s: %w", dest, err)
	}

	work := toSet(workPaths)
	snap := toSet(snapPaths)

	var allPaths []string
	for p := range union(work, snap) {
		allPaths = append(allPaths, p)
	}
	sort.Strings(allPaths)

	var lines []string
	for _, p := range allPaths {
		_, inWork := work[p]
		_, inSnap := snap[p]

		switch {
		case inWork && !inSnap:
			lines = append(lines, "+ "+p)
		case inSnap && !inWork:
			lines = append(lines, "- "+p)
		default:
			changed, rendered, err := diffFile(repoRoot, dest, p)
			if err != nil {
				return nil, err
			}
			if changed {
				lines = append(lines, rendered...)
			}
		}
	}

	return lines, nil
}

func diffFile(repoRoot, snapRoot, rel string) (bool, []string, error) {
	workData, err := os.ReadFile(filepath.Join(repoRoot, rel))
	if err != nil {
		return false, nil, fmt.Errorf("snapshot: read %s: %w", rel, err)
	}
	snapData, err := os.ReadFile(filepath.Join(snapRoot, rel))
	if err != nil {
		return false, nil, fmt.Errorf("snapshot: read snapshot %s: %w", rel, err)
	}

	if bytes.Equal(workData, snapData) {
		return false, nil, nil
	}

	if !utf8.Valid(workData) || !utf8.Valid(snapData) {
		return true, []string{fmt.Sprintf("~ %s (modified binary)", rel)}, nil
	}

	return true, unifiedLineDiff(rel, string(snapData), string(workData)), nil
}

func toSet(paths []string) map[string]struct{} {
	s := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

func union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for p := range a {
		out[p] = struct{}{}
	}
	for p := range b {
		out[p] = struct{}{}
	}
	return out
}

// unifiedLineDiff renders lines unique to the snapshot (old) prefixed "-"
// and lines unique to the working copy (new) prefixed "+", omitting equal
// lines, via a longest-common-subsequence alignment (spec §4.6 step 3).
func unifiedLineDiff(path, oldText, newText string) []string {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	n, m := len(oldLines), len(newLines)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []string
	out = append(out, fmt.Sprintf("~ %s", path))
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case oldLines[i] == newLines[j]:
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, "- "+oldLines[i])
			i++
		default:
			out = append(out, "+ "+newLines[j])
			j++
		}
	}
	for ; i < n; i++ {
		out = append(out, "- "+oldLines[i])
	}
	for ; j < m; j++ {
		out = append(out, "+ "+newLines[j])
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
