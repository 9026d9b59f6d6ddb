// Package catalog defines which stations belong to which track and how
// each track is processed. Catalogs load from JSON files; unknown
// orientation or dateline tags fail at load time.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelagic-data/section.report/internal/binning"
	"github.com/pelagic-data/section.report/internal/section"
)

// DatelineMode says how a track's longitudes relate to the grid seam.
type DatelineMode int

const (
	// DatelineNone processes the track on the grid's native [0,360) view.
	DatelineNone DatelineMode = iota
	// DatelineShift180 rotates the grid view to be centred on the
	// antimeridian and wraps coordinates into [-180,180].
	DatelineShift180
)

// ParseDatelineMode converts a catalog tag into a DatelineMode. Unknown
// tags are a configuration error.
func ParseDatelineMode(s string) (DatelineMode, error) {
	switch s {
	case "", "none":
		return DatelineNone, nil
	case "shift-180":
		return DatelineShift180, nil
	default:
		return 0, fmt.Errorf("catalog: unknown dateline mode %q", s)
	}
}

func (m DatelineMode) String() string {
	switch m {
	case DatelineNone:
		return "none"
	case DatelineShift180:
		return "shift-180"
	default:
		return fmt.Sprintf("DatelineMode(%d)", int(m))
	}
}

// TrackSpec selects the samples of one track and carries its processing
// options.
type TrackSpec struct {
	Name        string
	Expeditions []string
	// Stations optionally restricts to specific stations of the selected
	// expeditions; empty means all stations.
	Stations    []string
	Orientation section.Orientation
	Dateline    DatelineMode
	HalfWidth   int
	// LonClip, when set, keeps only samples with LonClip[0] <= lon <=
	// LonClip[1] (in the dataset's native longitude convention).
	LonClip *[2]float64
	// SplitAntimeridian requests the ordered track coordinates split
	// into two segments around the antimeridian in the outputs.
	SplitAntimeridian bool
}

// Matches reports whether a sample belongs to this track.
func (s *TrackSpec) Matches(smp binning.Sample) bool {
	found := false
	for _, exp := range s.Expeditions {
		if smp.Expedition == exp {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(s.Stations) == 0 {
		return true
	}
	for _, st := range s.Stations {
		if smp.Station == st {
			return true
		}
	}
	return false
}

// trackFileSpec is the JSON wire form of a TrackSpec.
type trackFileSpec struct {
	Name              string    `json:"name"`
	Expeditions       []string  `json:"expeditions"`
	Stations          []string  `json:"stations,omitempty"`
	Orientation       string    `json:"orientation"`
	Dateline          string    `json:"dateline,omitempty"`
	HalfWidth         *int      `json:"half_width,omitempty"`
	LonClip           []float64 `json:"lon_clip,omitempty"`
	SplitAntimeridian bool      `json:"split_antimeridian,omitempty"`
}

type catalogFile struct {
	Tracks []trackFileSpec `json:"tracks"`
}

// DefaultHalfWidth applies when a track omits half_width.
const DefaultHalfWidth = 1

// Load reads a track catalog from a JSON file and validates every entry.
func Load(path string) ([]TrackSpec, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("catalog: file must have .json extension, got %q", ext)
	}
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", cleanPath, err)
	}
	var cf catalogFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", cleanPath, err)
	}

	specs := make([]TrackSpec, 0, len(cf.Tracks))
	seen := make(map[string]bool)
	for i, t := range cf.Tracks {
		spec, err := t.toSpec()
		if err != nil {
			return nil, fmt.Errorf("catalog: track %d: %w", i, err)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("catalog: duplicate track name %q", spec.Name)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

func (t trackFileSpec) toSpec() (TrackSpec, error) {
	var spec TrackSpec
	if t.Name == "" {
		return spec, fmt.Errorf("missing name")
	}
	if len(t.Expeditions) == 0 {
		return spec, fmt.Errorf("track %q selects no expeditions", t.Name)
	}
	orient, err := section.ParseOrientation(t.Orientation)
	if err != nil {
		return spec, fmt.Errorf("track %q: %w", t.Name, err)
	}
	mode, err := ParseDatelineMode(t.Dateline)
	if err != nil {
		return spec, fmt.Errorf("track %q: %w", t.Name, err)
	}
	hw := DefaultHalfWidth
	if t.HalfWidth != nil {
		hw = *t.HalfWidth
		if hw < 0 {
			return spec, fmt.Errorf("track %q: negative half_width %d", t.Name, hw)
		}
	}
	spec = TrackSpec{
		Name:              t.Name,
		Expeditions:       t.Expeditions,
		Stations:          t.Stations,
		Orientation:       orient,
		Dateline:          mode,
		HalfWidth:         hw,
		SplitAntimeridian: t.SplitAntimeridian,
	}
	switch len(t.LonClip) {
	case 0:
	case 2:
		if t.LonClip[0] > t.LonClip[1] {
			return spec, fmt.Errorf("track %q: lon_clip window %v inverted", t.Name, t.LonClip)
		}
		spec.LonClip = &[2]float64{t.LonClip[0], t.LonClip[1]}
	default:
		return spec, fmt.Errorf("track %q: lon_clip needs exactly [min,max], got %v", t.Name, t.LonClip)
	}
	return spec, nil
}
