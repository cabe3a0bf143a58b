package fileset

import "maps"

// Merge folds filesets into one. For a path present in more than one input
// the entry with the greater ModTime wins; ties keep the entry from the
// earlier argument. When the discarded entry differs in hash or metadata a
// non-fatal warning is logged and the merge still succeeds.
//
// The winner's metadata is combined with the loser's, the loser's keys
// taking precedence on collisions.
//
// The resulting path set does not depend on argument order; the chosen entry
// per conflicting path depends only on relative ModTime, except for true
// ties. Merge of zero filesets returns nil.
func Merge(sets ...*FileSet) *FileSet {
	if len(sets) == 0 {
		return nil
	}

	first := sets[0]
	tree := first.cloneTree()
	for _, set := range sets[1:] {
		for p, e := range set.tree {
			prev, ok := tree[p]
			if !ok {
				tree[p] = e
				continue
			}
			tree[p] = pickWinner(first.ws, p, prev, e)
		}
	}
	return first.derive(tree)
}

// pickWinner resolves a path collision between the accumulated entry and an
// entry from a later argument.
func pickWinner(ws *Workspace, path string, prev, next *Entry) *Entry {
	winner, loser := prev, next
	if next.ModTime > prev.ModTime {
		winner, loser = next, prev
	}

	if winner.Hash != loser.Hash || !maps.Equal(winner.Meta, loser.Meta) {
		ws.logger.Warnw("fileset merge conflict",
			"path", path,
			"keptModTime", winner.ModTime,
			"droppedModTime", loser.ModTime,
		)
	}

	return winner.withMeta(overlayMeta(winner.Meta, loser.Meta))
}
