// Package fileset provides immutable, content-addressed file collections for
// build pipelines.
//
// A FileSet is a value: a mapping from normalized relative path to a file
// entry, backed by a shared content-addressed blob store. Every operation
// (Add, Remove, Filter, Merge, the diff family) returns a new FileSet and
// leaves its inputs untouched, so filesets can be passed between pipeline
// stages without copying bytes and without defensive cloning.
//
// Basic usage:
//
//	ws, _ := fileset.New()
//	defer ws.Close()
//
//	fs, _ := ws.Fileset().Add("assets")
//
//	// Filter, inspect
//	docs := fs.Filter(func(e *fileset.Entry) bool {
//	    return strings.HasSuffix(e.Path, ".md")
//	})
//	for _, p := range docs.Ls() {
//	    h, _ := docs.Hash(p)
//	    fmt.Println(p, h)
//	}
//
//	// Materialize: hard links into the blob store, no byte copies
//	fs.Commit("out")
//
// Caching an expensive producer:
//
//	ws, _ := fileset.New(fileset.WithCacheDir("/var/cache/pipeline"))
//	fs, _ = fs.AddCached("codegen-v3", func(dir string) error {
//	    return runCodegen(dir)
//	})
//
// The producer runs at most once per key per cache directory; later calls
// only rewalk and rehash the cached output.
//
// Comparing two pipeline states:
//
//	changed := fileset.Changed(before, after)
//	changed.Commit("incremental-out")
package fileset
