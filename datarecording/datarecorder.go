// Package datarecording persists per-step simulation samples into a SQLite
// database. Tables are derived from flat sample structs; inserts are batched
// and flushed in one transaction.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder records rows of simulation data.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry. sampleEntry must be a flat struct of scalar fields.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one row for a table created earlier. The entry must
	// have the same type as the table's sample.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered rows to the database.
	Flush()
}

// New creates a DataRecorder backed by the SQLite file path+".sqlite3". An
// empty path picks a unique name. The file must not already exist. Buffered
// rows are flushed at process exit.
func New(path string) DataRecorder {
	if path == "" {
		path = "hecs_sim_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("datarecording: file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Recording simulation data to %s\n", filename)

	return NewWithDB(db)
}

// NewWithDB creates a DataRecorder writing to an existing database handle.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	sampleType reflect.Type
	rows       []any
}

type sqliteWriter struct {
	db *sql.DB

	tables     map[string]*table
	tableOrder []string
	batchSize  int
	buffered   int
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	mustBeFlatStruct(sampleEntry)

	columns := strings.Join(structs.Names(sampleEntry), ", \n\t")
	w.mustExecute(
		"CREATE TABLE " + tableName + " (\n\t" + columns + "\n);")

	w.tables[tableName] = &table{sampleType: reflect.TypeOf(sampleEntry)}
	w.tableOrder = append(w.tableOrder, tableName)
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, ok := w.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("datarecording: table %s does not exist", tableName))
	}
	if reflect.TypeOf(entry) != t.sampleType {
		panic(fmt.Sprintf("datarecording: table %s stores %s, got %T",
			tableName, t.sampleType, entry))
	}

	t.rows = append(t.rows, entry)

	w.buffered++
	if w.buffered >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	names := make([]string, len(w.tableOrder))
	copy(names, w.tableOrder)
	return names
}

func (w *sqliteWriter) Flush() {
	if w.buffered == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range w.tableOrder {
		t := w.tables[tableName]
		if len(t.rows) == 0 {
			continue
		}

		stmt := w.prepareInsert(tableName, t)
		for _, row := range t.rows {
			v := reflect.ValueOf(row)
			args := make([]any, 0, v.NumField())
			for i := 0; i < v.NumField(); i++ {
				args = append(args, v.Field(i).Interface())
			}

			if _, err := stmt.Exec(args...); err != nil {
				panic(err)
			}
		}
		stmt.Close()

		t.rows = nil
	}

	w.buffered = 0
}

func (w *sqliteWriter) prepareInsert(tableName string, t *table) *sql.Stmt {
	placeholders := make([]string, t.sampleType.NumField())
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := w.db.Prepare(
		"INSERT INTO " + tableName +
			" VALUES (" + strings.Join(placeholders, ", ") + ")")
	if err != nil {
		panic(err)
	}

	return stmt
}

func (w *sqliteWriter) mustExecute(query string) {
	if _, err := w.db.Exec(query); err != nil {
		panic(fmt.Errorf("datarecording: %q failed: %w", query, err))
	}
}

func mustBeFlatStruct(sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("datarecording: sample must be a struct, got %T",
			sampleEntry))
	}

	for i := 0; i < t.NumField(); i++ {
		switch t.Field(i).Type.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16,
			reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16,
			reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64,
			reflect.String:
		default:
			panic(fmt.Sprintf(
				"datarecording: field %s of %T is not a scalar",
				t.Field(i).Name, sampleEntry))
		}
	}
}
