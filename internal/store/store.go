// Package store persists per-run, per-track gridding products to
// SQLite. Gridded arrays are stored as gzip-compressed gob blobs; run
// parameters travel as JSON text alongside.
package store

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ctessum/sparse"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle with the section schema applied.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the section database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS section_runs (
			run_id             TEXT PRIMARY KEY,
			dataset            TEXT NOT NULL,
			params_json        TEXT,
			created_unix_nanos INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS section_tracks (
			track_id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL,
			name               TEXT NOT NULL,
			sample_count       INTEGER NOT NULL,
			params_json        TEXT,
			mean_blob          BLOB NOT NULL,
			variance_blob      BLOB NOT NULL,
			count_blob         BLOB NOT NULL,
			mask_blob          BLOB,
			section_blob       BLOB,
			created_unix_nanos INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES section_runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_section_tracks_run
			ON section_tracks(run_id, name);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{db}, nil
}

// Run identifies one batch processing run over a dataset.
type Run struct {
	RunID      string
	Dataset    string
	ParamsJSON json.RawMessage
	CreatedAt  int64
}

// TrackRecord is the persisted form of one track's products.
type TrackRecord struct {
	TrackID     int64
	RunID       string
	Name        string
	SampleCount int
	ParamsJSON  json.RawMessage
	Mean        *sparse.DenseArray
	Variance    *sparse.DenseArray
	Count       *sparse.DenseArray
	Mask        *sparse.DenseArray
	Section     *sparse.DenseArray
	CreatedAt   int64
}

// SectionStore provides persistence for runs and track products.
type SectionStore struct {
	db *DB
}

// NewSectionStore creates a SectionStore backed by the given database.
func NewSectionStore(db *DB) *SectionStore {
	return &SectionStore{db: db}
}

// InsertRun persists a run header. An empty RunID gets a generated UUID.
func (s *SectionStore) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}
	_, err := s.db.Exec(`
		INSERT INTO section_runs (run_id, dataset, params_json, created_unix_nanos)
		VALUES (?, ?, ?, ?)`,
		run.RunID, run.Dataset, paramsStr, run.CreatedAt)
	return err
}

// InsertTrack persists one track's products under its run.
func (s *SectionStore) InsertTrack(rec *TrackRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("store: track %q has no run_id", rec.Name)
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixNano()
	}

	meanBlob, err := encodeField(rec.Mean)
	if err != nil {
		return fmt.Errorf("store: encode mean for %q: %w", rec.Name, err)
	}
	varBlob, err := encodeField(rec.Variance)
	if err != nil {
		return fmt.Errorf("store: encode variance for %q: %w", rec.Name, err)
	}
	countBlob, err := encodeField(rec.Count)
	if err != nil {
		return fmt.Errorf("store: encode count for %q: %w", rec.Name, err)
	}
	maskBlob, err := encodeOptionalField(rec.Mask)
	if err != nil {
		return fmt.Errorf("store: encode mask for %q: %w", rec.Name, err)
	}
	secBlob, err := encodeOptionalField(rec.Section)
	if err != nil {
		return fmt.Errorf("store: encode section for %q: %w", rec.Name, err)
	}

	var paramsStr interface{}
	if len(rec.ParamsJSON) > 0 {
		paramsStr = string(rec.ParamsJSON)
	}
	res, err := s.db.Exec(`
		INSERT INTO section_tracks (
			run_id, name, sample_count, params_json,
			mean_blob, variance_blob, count_blob, mask_blob, section_blob,
			created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Name, rec.SampleCount, paramsStr,
		meanBlob, varBlob, countBlob, maskBlob, secBlob,
		rec.CreatedAt)
	if err != nil {
		return err
	}
	rec.TrackID, _ = res.LastInsertId()
	return nil
}

// GetTrack loads one track's products by run and name.
func (s *SectionStore) GetTrack(runID, name string) (*TrackRecord, error) {
	row := s.db.QueryRow(`
		SELECT track_id, run_id, name, sample_count, params_json,
		       mean_blob, variance_blob, count_blob, mask_blob, section_blob,
		       created_unix_nanos
		FROM section_tracks
		WHERE run_id = ? AND name = ?
		ORDER BY created_unix_nanos DESC
		LIMIT 1`, runID, name)

	rec := &TrackRecord{}
	var params sql.NullString
	var meanBlob, varBlob, countBlob, maskBlob, secBlob []byte
	err := row.Scan(&rec.TrackID, &rec.RunID, &rec.Name, &rec.SampleCount, &params,
		&meanBlob, &varBlob, &countBlob, &maskBlob, &secBlob, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: load track %q: %w", name, err)
	}
	if params.Valid {
		rec.ParamsJSON = json.RawMessage(params.String)
	}
	if rec.Mean, err = decodeField(meanBlob); err != nil {
		return nil, fmt.Errorf("store: decode mean for %q: %w", name, err)
	}
	if rec.Variance, err = decodeField(varBlob); err != nil {
		return nil, fmt.Errorf("store: decode variance for %q: %w", name, err)
	}
	if rec.Count, err = decodeField(countBlob); err != nil {
		return nil, fmt.Errorf("store: decode count for %q: %w", name, err)
	}
	if rec.Mask, err = decodeOptionalField(maskBlob); err != nil {
		return nil, fmt.Errorf("store: decode mask for %q: %w", name, err)
	}
	if rec.Section, err = decodeOptionalField(secBlob); err != nil {
		return nil, fmt.Errorf("store: decode section for %q: %w", name, err)
	}
	return rec, nil
}

// ListTrackNames returns the track names persisted for a run.
func (s *SectionStore) ListTrackNames(runID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT name FROM section_tracks
		WHERE run_id = ?
		ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list tracks: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// gridBlob is the gob wire form of a gridded array.
type gridBlob struct {
	Shape    []int
	Elements []float64
}

func encodeField(a *sparse.DenseArray) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("nil field")
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(gridBlob{Shape: a.Shape, Elements: a.Elements}); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeOptionalField(a *sparse.DenseArray) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return encodeField(a)
}

func decodeField(blob []byte) (*sparse.DenseArray, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var gb gridBlob
	if err := gob.NewDecoder(zr).Decode(&gb); err != nil && err != io.EOF {
		return nil, err
	}
	out := sparse.ZerosDense(gb.Shape...)
	copy(out.Elements, gb.Elements)
	return out, nil
}

func decodeOptionalField(blob []byte) (*sparse.DenseArray, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	return decodeField(blob)
}
