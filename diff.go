package fileset

// The diff family compares two filesets purely by path membership and
// content hash; ModTime and Meta never influence the result. Every function
// returns a fileset sharing after's workspace handles (before's for
// Removed), so results compose with Filter and Commit.

// Added returns the paths present in after but not in before, with after's
// entries.
func Added(before, after *FileSet) *FileSet {
	tree := make(map[string]*Entry)
	for p, e := range after.tree {
		if _, ok := before.tree[p]; !ok {
			tree[p] = e
		}
	}
	return after.derive(tree)
}

// Removed returns the paths present in before but not in after, with
// before's entries.
func Removed(before, after *FileSet) *FileSet {
	tree := make(map[string]*Entry)
	for p, e := range before.tree {
		if _, ok := after.tree[p]; !ok {
			tree[p] = e
		}
	}
	return before.derive(tree)
}

// Changed returns the paths present in both whose content hash differs, with
// after's entries.
func Changed(before, after *FileSet) *FileSet {
	tree := make(map[string]*Entry)
	for p, e := range after.tree {
		if prev, ok := before.tree[p]; ok && prev.Hash != e.Hash {
			tree[p] = e
		}
	}
	return after.derive(tree)
}

// Diff returns every path that after introduces or supersedes: the union of
// Added and Changed, with after's entries. Removed paths are excluded by
// definition.
func Diff(before, after *FileSet) *FileSet {
	tree := make(map[string]*Entry)
	for p, e := range after.tree {
		prev, ok := before.tree[p]
		if !ok || prev.Hash != e.Hash {
			tree[p] = e
		}
	}
	return after.derive(tree)
}
