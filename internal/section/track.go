package section

import "sort"

// Track is a sequence of (lon, lat) pairs along a cruise path. Ordering
// is established with Sort; most operations accept arbitrary order.
type Track struct {
	Lons []float64
	Lats []float64
}

// Len returns the number of track points.
func (t Track) Len() int { return len(t.Lons) }

// Sort returns a copy of the track ordered on the independent coordinate
// chosen by the orientation.
func (t Track) Sort(o Orientation) Track {
	n := t.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	key := t.Lons
	if o == AlongLatitude {
		key = t.Lats
	}
	sort.SliceStable(idx, func(a, b int) bool { return key[idx[a]] < key[idx[b]] })

	out := Track{Lons: make([]float64, n), Lats: make([]float64, n)}
	for i, s := range idx {
		out.Lons[i] = t.Lons[s]
		out.Lats[i] = t.Lats[s]
	}
	return out
}

// independent returns the (independent, dependent) coordinate slices for
// the orientation.
func (t Track) independent(o Orientation) (ind, dep []float64) {
	if o == AlongLatitude {
		return t.Lats, t.Lons
	}
	return t.Lons, t.Lats
}

// dedupe collapses points sharing an independent coordinate to a single
// representative (the first seen after sorting), since 1-D interpolation
// requires strictly one output per input. Returned slices are sorted and
// strictly increasing in ind.
func dedupe(ind, dep []float64) (di, dd []float64) {
	n := len(ind)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ind[idx[a]] < ind[idx[b]] })

	for _, s := range idx {
		if len(di) > 0 && ind[s] == di[len(di)-1] {
			continue
		}
		di = append(di, ind[s])
		dd = append(dd, dep[s])
	}
	return di, dd
}
