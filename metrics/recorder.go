package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Snapshot is one row of the run's final metrics, shaped for storage.
// Its field names become the recorder's column names.
type Snapshot struct {
	RunID               string
	TotalHeapSize       uint64
	AllocatedBytes      uint64
	FreeBytes           uint64
	LargestFreeBlock    uint64
	InternalFragBytes   uint64
	ExternalFragPercent float64
	CacheHits           uint64
	CacheMisses         uint64
	CacheHitRatePercent float64
	PageFaults          uint64
	LatencyP50          uint64
	LatencyP90          uint64
	LatencyP99          uint64
}

// Snapshot captures the current state of m as a storable row, tagged
// with runID.
func (m *Metrics) Snapshot(runID string) Snapshot {
	return Snapshot{
		RunID:               runID,
		TotalHeapSize:       m.totalHeapSize,
		AllocatedBytes:      m.allocatedBytes,
		FreeBytes:           m.freeBytes,
		LargestFreeBlock:    m.largestFreeBlock,
		InternalFragBytes:   m.internalFragBytes,
		ExternalFragPercent: m.ExternalFragmentation() * 100,
		CacheHits:           m.cacheHits,
		CacheMisses:         m.cacheMisses,
		CacheHitRatePercent: m.CacheHitRate() * 100,
		PageFaults:          m.pageFaults,
		LatencyP50:          m.LatencyP50(),
		LatencyP90:          m.LatencyP90(),
		LatencyP99:          m.LatencyP99(),
	}
}

const metricsTable = "run_metrics"

// Recorder persists Snapshot rows to a SQLite database, one row per
// run. It registers an atexit handler that closes the database when the
// program exits through atexit.Exit or atexit.Fatal; a plain os.Exit or
// log.Fatal does not run that handler.
type Recorder struct {
	db      *sql.DB
	dbPath  string
	created bool
}

// NewRecorder opens (creating if absent) a SQLite database at path and
// registers an atexit flush/close handler. An empty path derives one
// from a fresh xid so repeated runs never collide.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		path = "memsim_metrics_" + xid.New().String() + ".sqlite3"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("metrics: open %s: %w", path, err)
	}

	r := &Recorder{db: db, dbPath: path}
	atexit.Register(func() { _ = r.Close() })
	return r, nil
}

// Record inserts s as a new row, creating the table on first use.
func (r *Recorder) Record(s Snapshot) error {
	if !r.created {
		if err := r.createTable(s); err != nil {
			return err
		}
	}

	cols := structs.Names(s)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "?"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		metricsTable, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	values := structs.Values(s)
	if _, err := r.db.Exec(query, values...); err != nil {
		return fmt.Errorf("metrics: insert: %w", err)
	}
	return nil
}

func (r *Recorder) createTable(sample Snapshot) error {
	cols := structs.Names(sample)
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);",
		metricsTable, strings.Join(cols, ",\n\t"))

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("metrics: create table: %w", err)
	}
	r.created = true
	return nil
}

// Path returns the database file this recorder writes to.
func (r *Recorder) Path() string { return r.dbPath }

// Close closes the underlying database connection.
func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// removeIfExists is a test helper for cleaning up a sqlite file created
// by NewRecorder("") runs.
func removeIfExists(path string) {
	_ = os.Remove(path)
}
