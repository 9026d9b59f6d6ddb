// Package ingest reads point-measurement datasets into samples for
// binning. The core never reads files itself; it consumes the flat
// sample collection produced here.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/ctessum/sparse"

	"github.com/pelagic-data/section.report/internal/binning"
	"github.com/pelagic-data/section.report/internal/log"
)

// Reader produces the flat sample collection for a run.
type Reader interface {
	ReadAll() ([]binning.Sample, error)
}

// CSVReader reads samples from a CSV file with the columns
// expedition,station,lon,lat,depth,value,error (header optional).
// Rows with unparsable or NaN numerics are dropped before binning; the
// indexer does not special-case NaN.
type CSVReader struct {
	Path string
}

// ReadAll implements Reader.
func (r *CSVReader) ReadAll() ([]binning.Sample, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", r.Path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 7
	cr.TrimLeadingSpace = true

	var samples []binning.Sample
	skipped := 0
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: %s line %d: %w", r.Path, line+1, err)
		}
		line++

		smp, ok := parseRow(rec)
		if !ok {
			// Header rows fall out here too.
			skipped++
			continue
		}
		samples = append(samples, smp)
	}
	if skipped > 0 {
		log.Debugf("ingest: %s: kept %d samples, dropped %d rows", r.Path, len(samples), skipped)
	}
	return samples, nil
}

func parseRow(rec []string) (binning.Sample, bool) {
	var smp binning.Sample
	smp.Expedition = rec[0]
	smp.Station = rec[1]
	vals := make([]float64, 5)
	for i, field := range rec[2:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) {
			return smp, false
		}
		vals[i] = v
	}
	smp.Lon, smp.Lat, smp.Depth = vals[0], vals[1], vals[2]
	smp.Value, smp.Err = vals[3], vals[4]
	return smp, true
}

// ReadOceanCSV reads a ny×nx surface validity template from a CSV of 0/1
// flags (row per latitude). Zero cells become NaN so the template
// composes with fields by multiplication.
func ReadOceanCSV(path string, ny, nx int) (*sparse.DenseArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = nx
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}
	if len(rows) != ny {
		return nil, fmt.Errorf("ingest: %s: got %d rows, grid has %d", path, len(rows), ny)
	}

	ocean := sparse.ZerosDense(ny, nx)
	for j, row := range rows {
		for i, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("ingest: %s row %d col %d: %w", path, j+1, i+1, err)
			}
			if v == 0 {
				v = math.NaN()
			} else {
				v = 1
			}
			ocean.Set(v, j, i)
		}
	}
	return ocean, nil
}
