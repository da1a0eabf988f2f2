// Package dupes implements the duplicate-detection pipeline. Files are
// partitioned by exact size, whittled down with a cheap prefix fingerprint,
// and confirmed with a full-content fingerprint, so that full reads are
// only paid for files that could still be duplicates.
package dupes

import (
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"dupescan/internal/fingerprint"
	"dupescan/internal/progress"
	"dupescan/internal/walker"
)

// Group is a confirmed set of byte-for-byte identical files. All members
// share the same size and full-content fingerprint.
type Group struct {
	Size        int64
	Fingerprint string
	Paths       []string
}

// Wasted returns the bytes reclaimable by keeping a single copy.
func (g *Group) Wasted() int64 {
	return g.Size * int64(len(g.Paths)-1)
}

// SkippedFile records a file excluded from grouping because it could not
// be fingerprinted. Skipped files neither form nor block a group.
type SkippedFile struct {
	Path string
	Err  error
}

type Result struct {
	Groups  []Group
	Skipped []SkippedFile
}

// TotalWasted sums reclaimable bytes across all groups.
func (r *Result) TotalWasted() int64 {
	var total int64
	for i := range r.Groups {
		total += r.Groups[i].Wasted()
	}
	return total
}

// GroupBySize partitions files by exact byte size and prunes sizes with a
// single member: a file with a unique size cannot have a duplicate.
func GroupBySize(files []walker.FileInfo) map[int64][]string {
	groups := make(map[int64][]string)
	for _, f := range files {
		groups[f.Size] = append(groups[f.Size], f.Path)
	}
	for size, paths := range groups {
		if len(paths) < 2 {
			delete(groups, size)
		}
	}
	return groups
}

type Options struct {
	// Workers bounds how many size groups are refined concurrently.
	// Zero or negative picks a default based on CPU count.
	Workers int
	// Progress, if set, is advanced once per candidate file.
	Progress *progress.Bar
}

// Find runs the whole cascade over the walked files and assembles the
// confirmed duplicate groups.
func Find(files []walker.FileInfo, opts Options) *Result {
	return FindGroups(GroupBySize(files), opts)
}

// FindGroups refines pre-built size groups into confirmed duplicate
// groups. Size groups touch disjoint file sets, so they are fanned out
// across a bounded worker group.
func FindGroups(sizeGroups map[int64][]string, opts Options) *Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	var (
		mu     sync.Mutex
		result Result
	)

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for size, paths := range sizeGroups {
		size, paths := size, paths
		g.Go(func() error {
			groups, skipped := refineGroup(size, paths, opts.Progress)
			mu.Lock()
			result.Groups = append(result.Groups, groups...)
			result.Skipped = append(result.Skipped, skipped...)
			mu.Unlock()
			return nil
		})
	}

	// Workers never fail the group; unreadable files become skips.
	_ = g.Wait()

	sortResult(&result)
	return &result
}

// refineGroup narrows one size group down to its confirmed duplicates.
// The prefix fingerprint splits the group with at most PartialReadSize
// bytes of I/O per file; only members that still share a prefix pay for a
// full read.
func refineGroup(size int64, paths []string, bar *progress.Bar) ([]Group, []SkippedFile) {
	var groups []Group
	var skipped []SkippedFile

	partial := make(map[string][]string)
	for _, path := range paths {
		fp, err := fingerprint.Partial(path)
		if bar != nil {
			bar.Observe(path)
		}
		if err != nil {
			skipped = append(skipped, SkippedFile{Path: path, Err: err})
			continue
		}
		partial[fp] = append(partial[fp], path)
	}

	for _, candidates := range partial {
		// A unique prefix cannot be a full duplicate of any sibling.
		if len(candidates) < 2 {
			continue
		}

		full := make(map[string][]string)
		for _, path := range candidates {
			fp, err := fingerprint.Full(path)
			if err != nil {
				skipped = append(skipped, SkippedFile{Path: path, Err: err})
				continue
			}
			full[fp] = append(full[fp], path)
		}

		for fp, members := range full {
			if len(members) >= 2 {
				groups = append(groups, Group{
					Size:        size,
					Fingerprint: fp,
					Paths:       members,
				})
			}
		}
	}

	return groups, skipped
}

// sortResult orders groups by reclaimable space, largest first, with size
// and leading path as tie-breaks, and sorts members within each group.
// The pipeline itself guarantees no order; sorting keeps output stable.
func sortResult(r *Result) {
	for i := range r.Groups {
		sort.Strings(r.Groups[i].Paths)
	}
	sort.Slice(r.Groups, func(i, j int) bool {
		gi, gj := &r.Groups[i], &r.Groups[j]
		if gi.Wasted() != gj.Wasted() {
			return gi.Wasted() > gj.Wasted()
		}
		if gi.Size != gj.Size {
			return gi.Size > gj.Size
		}
		return gi.Paths[0] < gj.Paths[0]
	})
	sort.Slice(r.Skipped, func(i, j int) bool {
		return r.Skipped[i].Path < r.Skipped[j].Path
	})
}
