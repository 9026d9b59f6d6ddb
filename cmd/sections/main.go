// Command sections runs the batch gridding pipeline: read a point
// dataset, bin it onto the target grid per track, persist the products
// to SQLite, and render cross-section figures.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelagic-data/section.report/internal/catalog"
	"github.com/pelagic-data/section.report/internal/grid"
	"github.com/pelagic-data/section.report/internal/ingest"
	"github.com/pelagic-data/section.report/internal/log"
	"github.com/pelagic-data/section.report/internal/pipeline"
	"github.com/pelagic-data/section.report/internal/render"
	"github.com/pelagic-data/section.report/internal/store"
)

// gridConfig is the JSON description of the target grid.
type gridConfig struct {
	Lon0     float64   `json:"lon0"`
	DLon     float64   `json:"dlon"`
	Nx       int       `json:"nx"`
	Lat0     float64   `json:"lat0"`
	DLat     float64   `json:"dlat"`
	Ny       int       `json:"ny"`
	Depths   []float64 `json:"depths"`
	OceanCSV string    `json:"ocean_csv,omitempty"`
}

func loadGrid(path string) (*grid.Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid config: %w", err)
	}
	var gc gridConfig
	if err := json.Unmarshal(raw, &gc); err != nil {
		return nil, fmt.Errorf("parse grid config: %w", err)
	}
	g, err := grid.Regular(gc.Lon0, gc.DLon, gc.Nx, gc.Lat0, gc.DLat, gc.Ny, gc.Depths)
	if err != nil {
		return nil, err
	}
	if gc.OceanCSV != "" {
		ocean, err := ingest.ReadOceanCSV(gc.OceanCSV, g.Ny(), g.Nx())
		if err != nil {
			return nil, err
		}
		if _, err := g.WithOcean(ocean); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func main() {
	var (
		dataPath    = flag.String("data", "", "CSV dataset (expedition,station,lon,lat,depth,value,error)")
		catalogPath = flag.String("catalog", "", "track catalog JSON")
		gridPath    = flag.String("grid", "", "grid config JSON")
		dbPath      = flag.String("db", "sections.db", "SQLite output database")
		outDir      = flag.String("out", "plots", "directory for rendered figures")
		sentinel    = flag.Float64("sentinel", -9, "no-data sentinel for empty cells")
		workers     = flag.Int("workers", 0, "concurrent tracks (0 = all at once)")
		debug       = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *dataPath == "" || *catalogPath == "" || *gridPath == "" {
		log.Fatalf("sections: -data, -catalog and -grid are required")
	}

	g, err := loadGrid(*gridPath)
	if err != nil {
		log.Fatalf("sections: %v", err)
	}
	specs, err := catalog.Load(*catalogPath)
	if err != nil {
		log.Fatalf("sections: %v", err)
	}
	reader := &ingest.CSVReader{Path: *dataPath}
	samples, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("sections: %v", err)
	}
	log.Infof("sections: %d samples, %d tracks, grid %dx%dx%d",
		len(samples), len(specs), g.Ny(), g.Nx(), g.Nz())

	runner := pipeline.NewRunner(g)
	runner.Sentinel = *sentinel
	runner.Workers = *workers

	results, err := runner.RunAll(specs, samples)
	if err != nil {
		log.Fatalf("sections: %v", err)
	}
	global, err := runner.RunGlobal(samples)
	if err != nil {
		log.Fatalf("sections: %v", err)
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("sections: open %s: %v", *dbPath, err)
	}
	defer db.Close()

	st := store.NewSectionStore(db)
	runParams, _ := json.Marshal(map[string]interface{}{
		"sentinel": *sentinel,
		"grid":     *gridPath,
		"catalog":  *catalogPath,
	})
	run := &store.Run{Dataset: *dataPath, ParamsJSON: runParams}
	if err := st.InsertRun(run); err != nil {
		log.Fatalf("sections: insert run: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("sections: %v", err)
	}
	for _, spec := range specs {
		res := results[spec.Name]
		params, _ := json.Marshal(map[string]interface{}{
			"orientation": spec.Orientation.String(),
			"dateline":    spec.Dateline.String(),
			"half_width":  spec.HalfWidth,
		})
		rec := &store.TrackRecord{
			RunID:       run.RunID,
			Name:        res.Name,
			SampleCount: res.SampleCount,
			ParamsJSON:  params,
			Mean:        res.Stats.Mean,
			Variance:    res.Stats.Variance,
			Count:       res.Stats.Count,
			Mask:        res.Mask,
			Section:     res.Section.Values,
		}
		if err := st.InsertTrack(rec); err != nil {
			log.Fatalf("sections: persist track %s: %v", res.Name, err)
		}

		if res.SampleCount == 0 {
			log.Warnf("sections: track %s matched no samples", res.Name)
			continue
		}
		png := filepath.Join(*outDir, res.Name+".png")
		if err := render.SectionPNG(res.Section, res.Name, png); err != nil {
			log.Errorf("sections: %v", err)
		}
		html := filepath.Join(*outDir, res.Name+".html")
		if err := render.SectionHTML(res.Section, res.Name, html); err != nil {
			log.Errorf("sections: %v", err)
		}
	}

	assigned := global.Stats.Operator.Assigned()
	log.Infof("sections: run %s complete: %d tracks persisted, global field has %d assigned samples",
		run.RunID, len(results), assigned)
}
