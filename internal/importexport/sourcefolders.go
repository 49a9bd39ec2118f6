// Implements: §4.6 step 4 (source folder normalization) and §8
// property 5 / the "Source folder antichain" scenario.
package importexport

import (
	"path/filepath"
	"sort"
	"strings"
)

// ParentDirs returns the deduplicated set of parent directories of the
// given absolute file paths, preserving first-seen order (§4.6 step 4
// "Take the set of parent directories of all absolute paths").
func ParentDirs(filePaths []string) []string {
	seen := make(map[string]bool, len(filePaths))
	var out []string
	for _, p := range filePaths {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// ProcessSourceFoldersList normalizes folders into the antichain described
// by §3 invariant 4 and §4.6 step 4:
//  1. Deduplicate.
//  2. Drop any entry that is a descendant of another entry in the set,
//     keeping only the shortest/ancestor path (the antichain of minimal
//     elements).
//  3. Drop any entry under gitToplevel.
//  4. Append gitToplevel, if non-empty, as the last element.
//  5. If the result is empty, fall back to fallbackDir.
func ProcessSourceFoldersList(folders []string, gitToplevel, fallbackDir string) []string {
	deduped := dedupeNonEmpty(folders)
	antichain := antichainPrune(deduped)

	var kept []string
	for _, f := range antichain {
		if gitToplevel != "" && startsWithDir(f, gitToplevel) {
			continue
		}
		kept = append(kept, f)
	}
	sort.Strings(kept)

	if gitToplevel != "" {
		kept = append(kept, gitToplevel)
	}

	if len(kept) == 0 && fallbackDir != "" {
		kept = append(kept, fallbackDir)
	}
	return kept
}

func dedupeNonEmpty(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// antichainPrune keeps only entries that are not descendants of a shorter
// entry already kept (§3 invariant 4: "no entry is a proper prefix of
// another").
func antichainPrune(in []string) []string {
	sorted := append([]string(nil), in...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })

	var kept []string
	for _, candidate := range sorted {
		descendant := false
		for _, k := range kept {
			if startsWithDir(candidate, k) {
				descendant = true
				break
			}
		}
		if !descendant {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// startsWithDir reports whether child is dir itself or a path-component
// descendant of dir (a naive strings.HasPrefix would wrongly match "/ab"
// against dir "/a").
func startsWithDir(child, dir string) bool {
	if child == dir {
		return true
	}
	trimmed := strings.TrimSuffix(dir, "/")
	return strings.HasPrefix(child, trimmed+"/")
}

// CommonAncestor returns the deepest directory that is an ancestor of every
// path given (§4.6 Noir step: "the smallest common parent source
// dir"). Returns "" for an empty input.
func CommonAncestor(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		common = commonPrefixDir(common, dir)
		if common == "/" || common == "." {
			break
		}
	}
	return common
}

func commonPrefixDir(a, b string) string {
	aParts := strings.Split(strings.Trim(a, "/"), "/")
	bParts := strings.Split(strings.Trim(b, "/"), "/")
	n := len(aParts)
	if len(bParts) < n {
		n = len(bParts)
	}
	var common []string
	for i := 0; i < n; i++ {
		if aParts[i] != bParts[i] {
			break
		}
		common = append(common, aParts[i])
	}
	if len(common) == 0 {
		return "/"
	}
	return "/" + strings.Join(common, "/")
}
