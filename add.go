package fileset

import (
	"fmt"
	iofs "io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/stagekit/fileset/internal/store"
)

// candidate is one regular file selected by the walk, in lexical walk order.
type candidate struct {
	rel    string // normalized tree key
	abs    string
	size   int64
	mtime  int64
	digest store.Digest // filled by the hashing pool
}

// Add walks sourceDir, registers every selected regular file's content in the
// blob store, and folds the results into a new fileset. The receiver is
// never modified; on any error the receiver's tree is unaffected and no
// partial result is returned.
//
// Exclude patterns take precedence over includes; a non-empty include list
// admits only matching paths. When an added path already exists in the tree,
// mergers are consulted in order and the first matching pattern's merge
// function resolves the collision; with no match the new entry replaces the
// old one outright.
func (fs *FileSet) Add(sourceDir string, opts ...AddOption) (*FileSet, error) {
	o := newAddOptions(opts)

	st, err := fs.ws.store()
	if err != nil {
		return nil, err
	}

	cands, err := fs.selectFiles(sourceDir, o)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", sourceDir, err)
	}

	// Hash in parallel; apply sequentially in walk order below so merger
	// invocation stays deterministic.
	p := pool.New().WithErrors().WithMaxGoroutines(fs.ws.opts.Concurrency)
	for _, c := range cands {
		p.Go(func() error {
			digest, err := st.Put(c.abs)
			if err != nil {
				return err
			}
			c.digest = digest
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("add %s: %w", sourceDir, err)
	}

	tree := fs.cloneTree()
	for _, c := range cands {
		entry := &Entry{
			Path:      c.rel,
			ContentID: c.digest,
			Hash:      string(c.digest),
			Size:      c.size,
			ModTime:   c.mtime,
			Meta:      maps.Clone(o.meta),
		}

		prev, exists := tree[c.rel]
		if !exists {
			tree[c.rel] = entry
			continue
		}

		merger, ok := findMerger(o.mergers, c.rel)
		if !ok {
			// Intentional overwrite: the caller re-added the path.
			tree[c.rel] = entry
			continue
		}
		merged, err := fs.mergeContent(st, prev, entry, merger.Merge, o.meta)
		if err != nil {
			return nil, fmt.Errorf("add %s: merge %s: %w", sourceDir, c.rel, err)
		}
		tree[c.rel] = merged
	}

	return fs.derive(tree), nil
}

// selectFiles walks sourceDir and returns the files passing the
// include/exclude filters, in lexical walk order.
func (fs *FileSet) selectFiles(sourceDir string, o *AddOptions) ([]*candidate, error) {
	var cands []*candidate
	err := filepath.WalkDir(sourceDir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, p)
		if err != nil {
			return err
		}
		key := normalizePath(rel)
		if matchAny(o.exclude, key) {
			return nil
		}
		if len(o.include) > 0 && !matchAny(o.include, key) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		cands = append(cands, &candidate{
			rel:   key,
			abs:   p,
			size:  info.Size(),
			mtime: info.ModTime().UnixMilli(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cands, nil
}

func matchAny(matchers []Matcher, path string) bool {
	for _, m := range matchers {
		if m.Match(path) {
			return true
		}
	}
	return false
}

func findMerger(mergers []Merger, path string) (Merger, bool) {
	for _, m := range mergers {
		if m.Pattern.Match(path) {
			return m, true
		}
	}
	return Merger{}, false
}

// mergeContent runs a merge function over the previous and new content,
// registers the merged output, and builds the replacement entry. The merged
// entry's ModTime is the merge-time clock and its meta is the caller's meta
// laid over the previous entry's meta.
func (fs *FileSet) mergeContent(st *store.Store, prev, next *Entry, merge MergeFunc, meta map[string]string) (*Entry, error) {
	prevRC, err := st.Open(prev.ContentID)
	if err != nil {
		return nil, err
	}
	defer prevRC.Close()

	nextRC, err := st.Open(next.ContentID)
	if err != nil {
		return nil, err
	}
	defer nextRC.Close()

	out, err := fs.ws.scratch.CreateFile()
	if err != nil {
		return nil, err
	}
	outName := out.Name()
	defer os.Remove(outName)

	err = merge(prevRC, nextRC, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	digest, err := st.Put(outName)
	if err != nil {
		return nil, err
	}
	size, err := st.Size(digest)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Path:      next.Path,
		ContentID: digest,
		Hash:      string(digest),
		Size:      size,
		ModTime:   time.Now().UnixMilli(),
		Meta:      overlayMeta(prev.Meta, meta),
	}, nil
}

// overlayMeta lays over's keys on top of base without mutating either.
func overlayMeta(base, over map[string]string) map[string]string {
	if len(base) == 0 {
		return maps.Clone(over)
	}
	combined := maps.Clone(base)
	maps.Copy(combined, over)
	return combined
}
