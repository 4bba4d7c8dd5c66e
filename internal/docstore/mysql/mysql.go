// Package mysql keeps documents in MySQL tables. Every collection is a table with an auto
// increment id column and one column per document field.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

// Table maps a collection to a table. Columns maps document field names to column names; fields
// that are not listed can neither be stored nor sorted by.
type Table struct {
	Name    string
	Columns map[string]string
}

// ContactsTable is the table of the contacts collection, see scripts/database.sql.
var ContactsTable = Table{
	Name: "contacts",
	Columns: map[string]string{
		model.FieldName:            "name",
		model.FieldImage:           "image",
		model.FieldLastContactDate: "last_contact_date",
	},
}

// Store is a document store on top of MySQL.
type Store struct {
	db     *sqlx.DB
	tables map[string]Table

	// selectWhereId holds one prepared statement per table for selecting a row by id.
	selectWhereId map[string]*sqlx.Stmt
}

// CreateDatabase opens a database handle with the connection parameters from the configuration.
// The handle does not connect before it is used.
func CreateDatabase(cfg config.MySQLConfig) (*sql.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = cfg.Host
	dsn.DBName = cfg.Database
	dsn.ParseTime = true
	// Without this an UPDATE that does not change any value reports zero affected rows, which
	// would be indistinguishable from a missing id.
	dsn.ClientFoundRows = true
	return sql.Open("mysql", dsn.FormatDSN())
}

// New wraps the specified sql database and prepares all statements. The database argument can be
// a real database for production use or a mock database within unit tests.
func New(sqlDB *sql.DB, tables ...Table) (*Store, error) {
	s := &Store{
		db:            sqlx.NewDb(sqlDB, "mysql"),
		tables:        make(map[string]Table, len(tables)),
		selectWhereId: make(map[string]*sqlx.Stmt, len(tables)),
	}
	for _, table := range tables {
		stmt, err := s.db.Preparex(fmt.Sprintf(`SELECT * FROM %s WHERE id = ?`, table.Name))
		if err != nil {
			return nil, fmt.Errorf("prepare select on %s: %w", table.Name, err)
		}
		s.tables[table.Name] = table
		s.selectWhereId[table.Name] = stmt
	}
	return s, nil
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	for _, stmt := range s.selectWhereId {
		stmt.Close()
	}
	return s.db.Close()
}

// Insert inserts a row and returns the auto increment id as a string.
func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	table, err := s.table(collection)
	if err != nil {
		return "", err
	}
	columns, args, err := table.columns(fields)
	if err != nil {
		return "", err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Name, strings.Join(columns, ", "), placeholders)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// MergeUpdate updates the columns of the supplied fields, and only those.
func (s *Store) MergeUpdate(ctx context.Context, collection string, id string, fields docstore.Fields) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	if _, errConv := strconv.ParseInt(id, 10, 64); errConv != nil {
		return docstore.ErrNotFound
	}
	columns, args, err := table.columns(fields)
	if err != nil {
		return err
	}

	// It only makes sense to continue if we have at least one value to update.
	if len(columns) == 0 {
		return errors.New("mysql: no values to be updated")
	}

	query := "UPDATE " + table.Name + " SET "
	for _, column := range columns {
		query += column + "=?, "
	}
	query = query[:len(query)-2]
	query += " WHERE id=?"
	args = append(args, id)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// FetchAllOrdered selects all rows of the table. Rows with equal sort keys are ordered by id.
func (s *Store) FetchAllOrdered(ctx context.Context, collection string, sortField string, ascending bool) ([]docstore.Document, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	orderby, ok := table.Columns[sortField]
	if !ok {
		return nil, fmt.Errorf("%w: cannot sort %s by %q", docstore.ErrUnknownField, table.Name, sortField)
	}
	direction := "ASC"
	if !ascending {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s %s, id ASC`, table.Name, orderby, direction)
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		docs = append(docs, table.document(row))
	}
	return docs, rows.Err()
}

// Get selects a single row by id.
func (s *Store) Get(ctx context.Context, collection string, id string) (docstore.Document, error) {
	table, err := s.table(collection)
	if err != nil {
		return docstore.Document{}, err
	}
	if _, errConv := strconv.ParseInt(id, 10, 64); errConv != nil {
		return docstore.Document{}, docstore.ErrNotFound
	}
	row := make(map[string]any)
	err = s.selectWhereId[table.Name].QueryRowxContext(ctx, id).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return table.document(row), nil
}

func (s *Store) table(collection string) (Table, error) {
	table, ok := s.tables[collection]
	if !ok {
		return Table{}, fmt.Errorf("mysql: no table for collection %q", collection)
	}
	return table, nil
}

// columns returns the column names and values for fields, ordered by field name so that the
// generated statements are stable.
func (t Table) columns(fields docstore.Fields) ([]string, []any, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	columns := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		column, ok := t.Columns[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s has no column for %q", docstore.ErrUnknownField, t.Name, name)
		}
		columns = append(columns, column)
		args = append(args, fields[name])
	}
	return columns, args, nil
}

// document converts a scanned row back into a document.
func (t Table) document(row map[string]any) docstore.Document {
	doc := docstore.Document{Id: fmt.Sprint(normalize(row["id"])), Fields: docstore.Fields{}}
	for field, column := range t.Columns {
		if value, ok := row[column]; ok && value != nil {
			doc.Fields[field] = normalize(value)
		}
	}
	return doc
}

// normalize turns driver values into plain strings where the driver hands out bytes or times.
func normalize(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		if v.Equal(v.Truncate(24 * time.Hour)) {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.RFC3339)
	default:
		return v
	}
}
