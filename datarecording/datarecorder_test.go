package datarecording

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

type freqSample struct {
	TimeMs    int64
	DeltaFreq float64
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", t.TempDir()+"/test.sqlite3")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestCreateTableListsTable(t *testing.T) {
	w := NewWithDB(openTestDB(t))

	w.CreateTable("frequency", freqSample{})
	w.CreateTable("voltage", freqSample{})

	require.Equal(t, []string{"frequency", "voltage"}, w.ListTables())
}

func TestInsertAndFlushWritesRows(t *testing.T) {
	db := openTestDB(t)
	w := NewWithDB(db)

	w.CreateTable("frequency", freqSample{})
	w.InsertData("frequency", freqSample{TimeMs: 20, DeltaFreq: -0.01})
	w.InsertData("frequency", freqSample{TimeMs: 40, DeltaFreq: -0.02})
	w.Flush()

	rows, err := db.Query("SELECT TimeMs, DeltaFreq FROM frequency ORDER BY TimeMs")
	require.NoError(t, err)
	defer rows.Close()

	var samples []freqSample
	for rows.Next() {
		var s freqSample
		require.NoError(t, rows.Scan(&s.TimeMs, &s.DeltaFreq))
		samples = append(samples, s)
	}
	require.NoError(t, rows.Err())

	require.Equal(t, []freqSample{
		{TimeMs: 20, DeltaFreq: -0.01},
		{TimeMs: 40, DeltaFreq: -0.02},
	}, samples)
}

func TestFlushClearsBuffer(t *testing.T) {
	db := openTestDB(t)
	w := NewWithDB(db)

	w.CreateTable("frequency", freqSample{})
	w.InsertData("frequency", freqSample{TimeMs: 20, DeltaFreq: -0.01})
	w.Flush()
	w.Flush()

	row := db.QueryRow("SELECT COUNT(*) FROM frequency")
	var count int
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}

func TestInsertIntoUnknownTablePanics(t *testing.T) {
	w := NewWithDB(openTestDB(t))

	require.Panics(t, func() {
		w.InsertData("missing", freqSample{})
	})
}

func TestInsertWrongTypePanics(t *testing.T) {
	w := NewWithDB(openTestDB(t))
	w.CreateTable("frequency", freqSample{})

	require.Panics(t, func() {
		w.InsertData("frequency", struct{ X int }{1})
	})
}

func TestNonScalarSamplePanics(t *testing.T) {
	w := NewWithDB(openTestDB(t))

	require.Panics(t, func() {
		w.CreateTable("bad", struct{ Values []float64 }{})
	})
}
