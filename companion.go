// Copyright 2026 The go-dcimg Authors
// SPDX-License-Identifier: MIT

package dcimg

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// groupCompanions enumerates the sibling files that establish the Z axis.
// When group is false, the result is the single-element list containing
// primaryPath. Otherwise every ".dcimg" sibling in primaryPath's directory
// that passes the magic check is included, sorted lexicographically; a
// sibling that fails the check is skipped and logged at warn level.
//
// It returns the companion list and the index within it of primaryPath.
func groupCompanions(primaryPath string, group bool, warnf func(string, ...any)) ([]string, int, error) {
	if !group {
		return []string{primaryPath}, 0, nil
	}

	dir := filepath.Dir(primaryPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, newIOErrorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var companions []string
	for _, name := range names {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if ext != "dcimg" {
			continue
		}

		candidate := filepath.Join(dir, name)
		ok, err := probeCompanion(candidate)
		if err != nil {
			warnf("dcimg: companion %s failed magic check: %v", candidate, err)
			continue
		}
		if !ok {
			warnf("dcimg: companion %s is not a DCIMG file", candidate)
			continue
		}
		companions = append(companions, candidate)
	}

	primaryIndex := -1
	for i, c := range companions {
		if c == primaryPath {
			primaryIndex = i
			break
		}
	}
	if primaryIndex == -1 {
		// The primary file must be included even if the directory scan
		// missed it (e.g. a primary whose extension is not ".dcimg").
		companions = append(companions, primaryPath)
		sort.Strings(companions)
		for i, c := range companions {
			if c == primaryPath {
				primaryIndex = i
				break
			}
		}
	}

	return companions, primaryIndex, nil
}

// probeCompanion opens path transiently to run the magic check, closing it
// before returning regardless of outcome.
func probeCompanion(path string) (bool, error) {
	s, err := openByteSource(path)
	if err != nil {
		return false, err
	}
	defer s.close()
	return isDCIMGMagic(s)
}
