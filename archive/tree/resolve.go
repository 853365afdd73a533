package tree

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/resforge/errs"
)

// resolve assigns paths by one descent from the root and returns the index
// of file paths. Every entry may be reached at most once.
func resolve(h Header, entries []Entry) (map[string]int, error) {
	root := entries[0]
	if !root.IsDir || root.ParentOrBin != -1 {
		return nil, errs.Formatf(entryOffset(h, 0), "Entry", "entry 0 is not a root directory")
	}

	visited := roaring.New()
	index := make(map[string]int)

	var walk func(i int, path string) error
	walk = func(i int, path string) error {
		at := entryOffset(h, i)
		if visited.Contains(uint32(i)) {
			return errs.Formatf(at, "Entry", "entry %d is reachable more than once", i)
		}
		visited.Add(uint32(i))

		e := &entries[i]
		e.Path = path
		if !e.IsDir {
			// Duplicate names keep the first entry.
			if _, dup := index[path]; !dup {
				index[path] = i
			}
			return nil
		}

		first, count := e.FirstChild(), e.ChildCount()
		if count == 0 {
			return nil
		}
		if first <= 0 || first+count > len(entries) {
			return errs.Formatf(at, "Entry", "child range [%d, %d) outside table of %d entries", first, first+count, len(entries))
		}
		for c := first; c < first+count; c++ {
			child := entries[c]
			if child.Name == "" || strings.ContainsAny(child.Name, `/\`) {
				return errs.Formatf(entryOffset(h, c), "Entry", "invalid entry name %q", child.Name)
			}
			if child.IsDir && child.Parent() != i {
				return errs.Formatf(entryOffset(h, c), "Entry", "directory parent %d, reached from %d", child.Parent(), i)
			}
			childPath := child.Name
			if path != "" {
				childPath = path + "/" + child.Name
			}
			if err := walk(c, childPath); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, ""); err != nil {
		return nil, err
	}
	return index, nil
}
