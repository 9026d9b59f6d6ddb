// Package pipeline composes binning, masking and cross-section
// extraction into per-track and whole-dataset products.
//
// Each track is processed by a pure function over shared immutable
// inputs (samples and grid); RunAll fans tracks out across workers with
// disjoint result slots, so no locking is needed.
package pipeline

import (
	"fmt"
	"sync"

	"github.com/ctessum/sparse"

	"github.com/pelagic-data/section.report/internal/binning"
	"github.com/pelagic-data/section.report/internal/catalog"
	"github.com/pelagic-data/section.report/internal/grid"
	"github.com/pelagic-data/section.report/internal/log"
	"github.com/pelagic-data/section.report/internal/section"
)

// Result is the immutable per-track output bundle.
type Result struct {
	Name        string
	SampleCount int
	Stats       *binning.Result
	Mask        *sparse.DenseArray
	Section     *section.Section
	// Track holds the ordered station coordinates, in the coordinate
	// convention of the grid view the track was processed on.
	Track section.Track
	// Segments holds the track split around the antimeridian when the
	// spec requested it; otherwise nil.
	Segments []section.Track
}

// Global is the whole-dataset product: the gridded field plus its
// dateline-reindexed view.
type Global struct {
	Stats          *binning.Result
	ReindexedMean  *sparse.DenseArray
	ReindexedGrid  *grid.Grid
	ReindexedCount *sparse.DenseArray
}

// Runner drives the per-track pipeline over one dataset and grid.
type Runner struct {
	Grid     *grid.Grid
	Sentinel float64
	// Workers caps concurrent track processing; <=0 means one worker
	// per track.
	Workers int
}

// NewRunner creates a Runner with the default sentinel.
func NewRunner(g *grid.Grid) *Runner {
	return &Runner{Grid: g, Sentinel: binning.DefaultSentinel}
}

// RunTrack processes a single track: select its samples, bin them, build
// the swath mask, and extract the masked cross-section. A track with
// zero matching samples yields sentinel statistics, an all-excluded mask
// and an empty cross-section rather than an error, so aggregation over
// many tracks degrades gracefully.
func (r *Runner) RunTrack(spec catalog.TrackSpec, samples []binning.Sample) (*Result, error) {
	selected := make([]binning.Sample, 0)
	for _, smp := range samples {
		if !spec.Matches(smp) {
			continue
		}
		if spec.LonClip != nil && (smp.Lon < spec.LonClip[0] || smp.Lon > spec.LonClip[1]) {
			continue
		}
		selected = append(selected, smp)
	}

	g := r.Grid
	if spec.Dateline == catalog.DatelineShift180 {
		view, err := g.Reindex(grid.AntimeridianPartition(g.Lons))
		if err != nil {
			return nil, fmt.Errorf("pipeline: track %q: %w", spec.Name, err)
		}
		g = view
		wrapped := make([]binning.Sample, len(selected))
		for i, smp := range selected {
			smp.Lon = grid.WrapLongitude(smp.Lon)
			wrapped[i] = smp
		}
		selected = wrapped
	}

	ix := binning.NewIndexer(g)
	ix.Sentinel = r.Sentinel
	stats, err := ix.Bin(selected)
	if err != nil {
		return nil, fmt.Errorf("pipeline: track %q: %w", spec.Name, err)
	}

	track := stationTrack(selected).Sort(spec.Orientation)
	mask, err := section.BuildMask(track, g, spec.Orientation, spec.HalfWidth)
	if err != nil {
		return nil, fmt.Errorf("pipeline: track %q: %w", spec.Name, err)
	}
	masked, err := section.ApplyMask(stats.Mean, mask)
	if err != nil {
		return nil, fmt.Errorf("pipeline: track %q: %w", spec.Name, err)
	}
	sec, err := section.Extract(masked, g, spec.Orientation)
	if err != nil {
		return nil, fmt.Errorf("pipeline: track %q: %w", spec.Name, err)
	}

	res := &Result{
		Name:        spec.Name,
		SampleCount: len(selected),
		Stats:       stats,
		Mask:        mask,
		Section:     sec,
		Track:       track,
	}
	if spec.SplitAntimeridian {
		res.Segments = splitAtAntimeridian(track)
	}
	log.Debugf("pipeline: track %s: %d samples, %d cells hit",
		spec.Name, len(selected), stats.Operator.Assigned())
	return res, nil
}

// RunAll processes every catalog track concurrently and collects the
// results by track name. The first track error aborts the run.
func (r *Runner) RunAll(specs []catalog.TrackSpec, samples []binning.Sample) (map[string]*Result, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = len(specs)
	}
	if workers == 0 {
		return map[string]*Result{}, nil
	}

	results := make([]*Result, len(specs))
	errs := make([]error, len(specs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range specs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i], errs[i] = r.RunTrack(specs[i], samples)
		}(i)
	}
	wg.Wait()

	out := make(map[string]*Result, len(specs))
	for i, res := range results {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out[res.Name] = res
	}
	return out, nil
}

// RunGlobal bins the whole dataset and derives the dateline-reindexed
// view of the gridded field.
func (r *Runner) RunGlobal(samples []binning.Sample) (*Global, error) {
	ix := binning.NewIndexer(r.Grid)
	ix.Sentinel = r.Sentinel
	stats, err := ix.Bin(samples)
	if err != nil {
		return nil, fmt.Errorf("pipeline: global: %w", err)
	}

	p := grid.AntimeridianPartition(r.Grid.Lons)
	rg, err := r.Grid.Reindex(p)
	if err != nil {
		return nil, fmt.Errorf("pipeline: global reindex: %w", err)
	}
	mean, err := p.ReorderLonBlocks(stats.Mean, 1)
	if err != nil {
		return nil, fmt.Errorf("pipeline: global reindex: %w", err)
	}
	count, err := p.ReorderLonBlocks(stats.Count, 1)
	if err != nil {
		return nil, fmt.Errorf("pipeline: global reindex: %w", err)
	}
	return &Global{
		Stats:          stats,
		ReindexedMean:  mean,
		ReindexedCount: count,
		ReindexedGrid:  rg,
	}, nil
}

// stationTrack reduces samples to one coordinate pair per station (the
// first sample seen), preserving encounter order.
func stationTrack(samples []binning.Sample) section.Track {
	var t section.Track
	seen := make(map[string]bool)
	for _, smp := range samples {
		key := smp.Expedition + "\x00" + smp.Station
		if seen[key] {
			continue
		}
		seen[key] = true
		t.Lons = append(t.Lons, smp.Lon)
		t.Lats = append(t.Lats, smp.Lat)
	}
	return t
}

// splitAtAntimeridian cuts an ordered track into its western and eastern
// segments in wrapped [-180,180] coordinates. Tracks entirely on one
// side come back as a single segment.
func splitAtAntimeridian(t Track) []Track {
	var west, east Track
	for i := range t.Lons {
		if grid.WrapLongitude(t.Lons[i]) < 0 {
			west.Lons = append(west.Lons, t.Lons[i])
			west.Lats = append(west.Lats, t.Lats[i])
		} else {
			east.Lons = append(east.Lons, t.Lons[i])
			east.Lats = append(east.Lats, t.Lats[i])
		}
	}
	var out []Track
	for _, seg := range []Track{west, east} {
		if seg.Len() > 0 {
			out = append(out, seg)
		}
	}
	return out
}

// Track aliases the section track type for callers that only import the
// pipeline.
type Track = section.Track
