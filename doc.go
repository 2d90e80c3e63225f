// Package strata indexes the immutable storage segments ("layers") of a
// log-position-versioned page store.
//
// A LayerMap answers, per timeline, two questions:
//
//   - point queries: which layer holds the version of a key as of an LSN,
//     walking backward through delta layers until an image layer
//     terminates the reconstruction
//   - aggregate queries: how many delta layers a reconstruction of each
//     key partition would have to traverse ("read amplification"), the
//     cost metric compaction scheduling consumes
//
// # Two-phase mutation
//
// Writers insert and remove layer descriptors cheaply; changes become
// visible to the compiled index only at the next RebuildIndex. Queries
// issued in between stay correct: they consult the compiled snapshot and
// scan the small pending batch linearly.
//
//	m := strata.New()
//	_ = m.InsertHistoric(layer.NewImage(keys, lsn, "000000...-00000020"))
//	_ = m.InsertHistoric(layer.NewDelta(keys, lsns, "000000...-00000020-00000080"))
//	if err := m.RebuildIndex(); err != nil {
//	    log.Fatal(err)
//	}
//	if res, ok := m.Search(key, lsn); ok {
//	    // res.Layer covers (key, lsn); for delta layers res.ResumeLsn
//	    // says where to continue the backward walk.
//	}
//
// # Concurrency
//
// One LayerMap serves many concurrent readers and at most one writer per
// timeline. The compiled snapshot is an immutable value swapped atomically
// on rebuild, so readers never block behind a rebuild in progress.
//
// The index holds descriptors only: no I/O, no persistence, no file-format
// knowledge. It is rebuilt from the layer inventory at process start by
// the surrounding timeline code.
package strata
