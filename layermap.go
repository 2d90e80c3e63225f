package strata

import (
	"fmt"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/btree"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/strata/internal/coverage"
	"github.com/hupe1980/strata/layer"
	"github.com/hupe1980/strata/model"
)

const btreeDegree = 32

// SearchResult is a point query hit.
type SearchResult struct {
	// Layer is the most recent layer covering the queried key at or
	// before the queried LSN.
	Layer layer.Layer

	// ResumeLsn is set for delta layers: the delta's LsnRange.Start,
	// where the caller resumes the backward walk through the version
	// history after consuming the delta's changes. Image layers
	// terminate the walk and carry no resume position.
	ResumeLsn model.Lsn
	HasResume bool
}

// LayerMap is the layer inventory of one timeline: the historic coverage
// index plus the open/frozen overlay.
//
// Many reader goroutines may query a LayerMap concurrently with at most
// one writer issuing InsertHistoric/RemoveHistoric/RebuildIndex. The
// compiled index is an immutable snapshot swapped atomically on rebuild,
// so readers never block behind writer work.
type LayerMap struct {
	mu             sync.Mutex
	inventory      *btree.BTreeG[layer.Layer]
	pendingInserts []layer.Layer
	pendingRemoves map[layerIdentity]layer.Layer
	overlay        overlay

	compiled atomic.Pointer[coverage.Index]
	rebuilds atomic.Int64

	logger               *Logger
	metrics              MetricsCollector
	autoRebuildThreshold int
}

// New creates an empty LayerMap.
func New(opts ...Option) *LayerMap {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range opts {
		fn(&o)
	}

	return &LayerMap{
		inventory: btree.NewG(btreeDegree, func(a, b layer.Layer) bool {
			return layer.Compare(a, b) < 0
		}),
		pendingRemoves:       map[layerIdentity]layer.Layer{},
		logger:               o.logger,
		metrics:              o.metrics,
		autoRebuildThreshold: o.autoRebuildThreshold,
	}
}

// InsertHistoric adds a layer to the inventory. The insert is amortized
// O(1): it lands in the pending batch and affects compiled query results
// only after the next RebuildIndex, though point queries consult the
// batch and see it immediately.
//
// A malformed descriptor fails with *ErrConstruction. An image layer
// colliding with a distinct image over the same key range and LSN fails
// with *ErrInvariantViolation. Re-inserting the same identity is a no-op.
func (m *LayerMap) InsertHistoric(l layer.Layer) (err error) {
	defer func() {
		m.metrics.RecordInsert(err)
		m.logger.LogInsert(l.ShortID(), err)
	}()

	if verr := layer.Validate(l); verr != nil {
		return constructionError(verr)
	}

	m.mu.Lock()
	if !l.IsIncremental() {
		if dup := m.duplicateImageLocked(l); dup != nil {
			m.mu.Unlock()
			return &ErrInvariantViolation{
				Reason: fmt.Sprintf("image layer %s duplicates %s over %s at %s",
					l.ShortID(), dup.ShortID(), l.KeyRange(), l.LsnRange().Start),
			}
		}
	}

	id := identityOf(l)
	if _, ok := m.pendingRemoves[id]; ok {
		// Re-insert cancels a pending removal. Copy-on-write so readers
		// holding the old map stay consistent.
		next := make(map[layerIdentity]layer.Layer, len(m.pendingRemoves))
		for k, v := range m.pendingRemoves {
			if k != id {
				next[k] = v
			}
		}
		m.pendingRemoves = next
	}
	if _, existed := m.inventory.ReplaceOrInsert(l); !existed {
		// Appending is safe for concurrent readers holding the old
		// slice header; they never look past their own length.
		m.pendingInserts = append(m.pendingInserts, l)
	}
	pending := len(m.pendingInserts) + len(m.pendingRemoves)
	m.mu.Unlock()

	return m.maybeAutoRebuild(pending)
}

// RemoveHistoric drops a layer from the inventory, recording a tombstone
// in the pending batch; the compiled index stops returning it immediately
// (queries check tombstones) and forgets it at the next RebuildIndex.
// Removing a layer that is not in the inventory logs a warning and is a
// no-op.
func (m *LayerMap) RemoveHistoric(l layer.Layer) error {
	if verr := layer.Validate(l); verr != nil {
		return constructionError(verr)
	}

	m.mu.Lock()
	_, found := m.inventory.Delete(l)
	if found {
		next := make(map[layerIdentity]layer.Layer, len(m.pendingRemoves)+1)
		for k, v := range m.pendingRemoves {
			next[k] = v
		}
		next[identityOf(l)] = l
		m.pendingRemoves = next
	}
	pending := len(m.pendingInserts) + len(m.pendingRemoves)
	m.mu.Unlock()

	m.metrics.RecordRemove(found)
	m.logger.LogRemove(l.ShortID(), found)

	if !found {
		return nil
	}
	return m.maybeAutoRebuild(pending)
}

// RebuildIndex drains the pending batch into a fresh compiled index and
// installs it. It is a no-op when the batch is empty and safe to call
// redundantly. The O((n+k) log(n+k)) build runs outside the mutator
// critical section; the lock is held only to snapshot the inventory and
// to install the result.
//
// RebuildIndex must be issued from the timeline's single writer, like all
// mutations.
func (m *LayerMap) RebuildIndex() error {
	m.mu.Lock()
	dirty := len(m.pendingInserts) > 0 || len(m.pendingRemoves) > 0
	if !dirty && m.compiled.Load() != nil {
		m.mu.Unlock()
		return nil
	}
	snap := m.inventory.Clone()
	pending := len(m.pendingInserts) + len(m.pendingRemoves)
	m.mu.Unlock()

	start := time.Now()
	layers := make([]layer.Layer, 0, snap.Len())
	snap.Ascend(func(l layer.Layer) bool {
		layers = append(layers, l)
		return true
	})

	ix, err := coverage.Build(layers)
	duration := time.Since(start)
	if err != nil {
		err = &ErrInvariantViolation{Reason: "historic index rebuild failed", cause: err}
		m.metrics.RecordRebuild(len(layers), duration, err)
		m.logger.LogRebuild(len(layers), pending, duration, err)
		return err
	}

	m.mu.Lock()
	m.compiled.Store(ix)
	m.pendingInserts = nil
	m.pendingRemoves = map[layerIdentity]layer.Layer{}
	m.mu.Unlock()

	m.rebuilds.Add(1)
	m.metrics.RecordRebuild(len(layers), duration, nil)
	m.logger.LogRebuild(len(layers), pending, duration, nil)
	return nil
}

// Search locates the most recent layer covering key at or before lsn: the
// overlay first (overlay layers are strictly newer than historic ones),
// then the historic index. On a delta hit the result carries the LSN at
// which to resume the backward walk; an image hit terminates it.
//
// Absence of a covering layer is a normal false return, not an error; the
// caller then consults the timeline's ancestor branch or concludes the
// data is missing.
func (m *LayerMap) Search(key model.Key, lsn model.Lsn) (SearchResult, bool) {
	start := time.Now()

	m.mu.Lock()
	ov := m.overlay.layers
	pending := m.pendingInserts
	tomb := m.pendingRemoves
	m.mu.Unlock()

	if l, ok := searchOverlay(ov, key, lsn); ok {
		m.metrics.RecordSearch(time.Since(start), true)
		return resultFor(l), true
	}

	var img, del layer.Layer
	if ix := m.compiled.Load(); ix != nil {
		img, del = ix.Query(key, lsn)
		if isTombstoned(tomb, img) || isTombstoned(tomb, del) {
			// Rare: the best compiled candidate was just removed. Fall
			// back to a linear scan of the live inventory, which already
			// reflects the whole pending batch.
			img, del = m.scanInventory(key, lsn)
			pending = nil
		}
	}

	for _, l := range pending {
		if isTombstoned(tomb, l) {
			continue
		}
		img, del = mergeCandidate(img, del, l, key, lsn)
	}

	res, ok := pick(img, del, lsn)
	m.metrics.RecordSearch(time.Since(start), ok)
	return res, ok
}

// IterHistoricLayers returns a lazy, restartable iterator over all
// historic layers, pending ones included and tombstoned ones excluded.
// The order is stable for the snapshot taken at the call.
func (m *LayerMap) IterHistoricLayers() iter.Seq[layer.Layer] {
	m.mu.Lock()
	snap := m.inventory.Clone()
	m.mu.Unlock()

	return func(yield func(layer.Layer) bool) {
		snap.Ascend(func(l layer.Layer) bool {
			return yield(l)
		})
	}
}

// GetDifficultyMap estimates, for each partition of the supplied
// partitioning, how many distinct delta layers a reconstruction at lsn
// may traverse - the read-amplification proxy compaction scheduling
// ranks partitions by. The result is index-aligned with
// partitioning.Parts.
//
// Scores are computed against the compiled snapshot; run RebuildIndex
// first for batch-accurate planning. Partitions are scored in parallel.
func (m *LayerMap) GetDifficultyMap(lsn model.Lsn, partitioning model.KeyPartitioning) ([]int, error) {
	start := time.Now()
	scores := make([]int, len(partitioning.Parts))

	ix := m.compiled.Load()
	if ix == nil || ix.Empty() {
		m.metrics.RecordDifficultyMap(len(scores), time.Since(start))
		return scores, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, part := range partitioning.Parts {
		g.Go(func() error {
			n, err := ix.DistinctDeltas(part.Ranges, lsn)
			if err != nil {
				return err
			}
			scores[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &ErrInvariantViolation{Reason: "difficulty map computation failed", cause: err}
	}

	m.metrics.RecordDifficultyMap(len(scores), time.Since(start))
	return scores, nil
}

// InsertOverlay adds an open or just-frozen layer to the overlay. Overlay
// layers must be strictly newer than every historic layer over the same
// keys; the caller (the timeline's writer) guarantees this.
func (m *LayerMap) InsertOverlay(l layer.Layer) error {
	if verr := layer.Validate(l); verr != nil {
		return constructionError(verr)
	}
	m.mu.Lock()
	m.overlay.insert(l)
	m.mu.Unlock()
	return nil
}

// RemoveOverlay drops a layer from the overlay, typically right after the
// frozen layer was flushed and re-inserted as historic. It reports
// whether the layer was present.
func (m *LayerMap) RemoveOverlay(l layer.Layer) bool {
	m.mu.Lock()
	found := m.overlay.remove(l)
	m.mu.Unlock()
	if !found {
		m.logger.Warn("removal of unknown overlay layer", "layer", l.ShortID())
	}
	return found
}

// OverlayLayers returns a snapshot of the overlay, newest first.
func (m *LayerMap) OverlayLayers() []layer.Layer {
	m.mu.Lock()
	ov := m.overlay.layers
	m.mu.Unlock()

	out := make([]layer.Layer, 0, len(ov))
	for i := len(ov) - 1; i >= 0; i-- {
		out = append(out, ov[i])
	}
	return out
}

// HistoricCount returns the number of live historic layers, pending
// operations included.
func (m *LayerMap) HistoricCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventory.Len()
}

// LayerMapStats is a snapshot of LayerMap state for reporting surfaces.
type LayerMapStats struct {
	HistoricLayers int
	CompiledLayers int
	PendingInserts int
	PendingRemoves int
	OverlayLayers  int
	Rebuilds       int64
}

// Stats returns a point-in-time snapshot of counters.
func (m *LayerMap) Stats() LayerMapStats {
	m.mu.Lock()
	s := LayerMapStats{
		HistoricLayers: m.inventory.Len(),
		PendingInserts: len(m.pendingInserts),
		PendingRemoves: len(m.pendingRemoves),
		OverlayLayers:  len(m.overlay.layers),
	}
	m.mu.Unlock()

	if ix := m.compiled.Load(); ix != nil {
		s.CompiledLayers = ix.Len()
	}
	s.Rebuilds = m.rebuilds.Load()
	return s
}

func (m *LayerMap) maybeAutoRebuild(pending int) error {
	if m.autoRebuildThreshold <= 0 || pending < m.autoRebuildThreshold {
		return nil
	}
	return m.RebuildIndex()
}

// duplicateImageLocked finds a distinct image layer occupying the same
// key range and LSN as l, if any. Identical-range images are adjacent in
// the inventory order, so the probe scan is cheap.
func (m *LayerMap) duplicateImageLocked(l layer.Layer) layer.Layer {
	probe := layer.NewImage(l.KeyRange(), l.LsnRange().Start, "")
	var dup layer.Layer
	m.inventory.AscendGreaterOrEqual(probe, func(e layer.Layer) bool {
		if e.IsIncremental() || e.KeyRange() != l.KeyRange() || e.LsnRange() != l.LsnRange() {
			return false
		}
		if e.ShortID() != l.ShortID() {
			dup = e
			return false
		}
		return true
	})
	return dup
}

// scanInventory linearly scans a snapshot of the live inventory for the
// best image and delta candidates. Fallback path for queries racing a
// removal that tombstoned the compiled winner.
func (m *LayerMap) scanInventory(key model.Key, lsn model.Lsn) (img, del layer.Layer) {
	m.mu.Lock()
	snap := m.inventory.Clone()
	m.mu.Unlock()

	snap.Ascend(func(l layer.Layer) bool {
		img, del = mergeCandidate(img, del, l, key, lsn)
		return true
	})
	return img, del
}

// layerIdentity is the comparable identity of a layer descriptor.
type layerIdentity struct {
	keyStart    model.Key
	keyEnd      model.Key
	lsnStart    model.Lsn
	lsnEnd      model.Lsn
	incremental bool
	shortID     string
}

func identityOf(l layer.Layer) layerIdentity {
	kr, lr := l.KeyRange(), l.LsnRange()
	return layerIdentity{
		keyStart:    kr.Start,
		keyEnd:      kr.End,
		lsnStart:    lr.Start,
		lsnEnd:      lr.End,
		incremental: l.IsIncremental(),
		shortID:     l.ShortID(),
	}
}

func isTombstoned(tomb map[layerIdentity]layer.Layer, l layer.Layer) bool {
	if l == nil || len(tomb) == 0 {
		return false
	}
	_, ok := tomb[identityOf(l)]
	return ok
}

// mergeCandidate folds l into the best image/delta candidates for a point
// query, mirroring the preference the compiled index applies: greatest
// LsnRange.Start, then the latest in the deterministic layer order.
func mergeCandidate(img, del layer.Layer, l layer.Layer, key model.Key, lsn model.Lsn) (layer.Layer, layer.Layer) {
	if !l.KeyRange().Contains(key) || l.LsnRange().Start > lsn {
		return img, del
	}
	if l.IsIncremental() {
		return img, better(del, l)
	}
	return better(img, l), del
}

func better(a, b layer.Layer) layer.Layer {
	if a == nil {
		return b
	}
	if b.LsnRange().Start != a.LsnRange().Start {
		if b.LsnRange().Start > a.LsnRange().Start {
			return b
		}
		return a
	}
	if layer.Compare(b, a) > 0 {
		return b
	}
	return a
}

// pick resolves the image/delta candidates of a point query. The image
// wins on a start tie when the query sits exactly at the image's LSN or
// when the delta does not extend past the image; otherwise the delta has
// newer changes and must be applied first.
func pick(img, del layer.Layer, lsn model.Lsn) (SearchResult, bool) {
	switch {
	case img == nil && del == nil:
		return SearchResult{}, false
	case del == nil:
		return SearchResult{Layer: img}, true
	case img == nil:
		return resultFor(del), true
	}

	imgLsn := img.LsnRange().Start
	delStart := del.LsnRange().Start
	switch {
	case delStart > imgLsn:
		return resultFor(del), true
	case imgLsn > delStart:
		return SearchResult{Layer: img}, true
	case lsn == imgLsn:
		// Exact snapshot: the image already includes every change up to
		// this position.
		return SearchResult{Layer: img}, true
	case del.LsnRange().End <= imgLsn+1:
		return SearchResult{Layer: img}, true
	default:
		return resultFor(del), true
	}
}

func resultFor(l layer.Layer) SearchResult {
	if l.IsIncremental() {
		return SearchResult{Layer: l, ResumeLsn: l.LsnRange().Start, HasResume: true}
	}
	return SearchResult{Layer: l}
}
