package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/contacts-app/internal/docstore"
)

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// createStore sets up the store on the mock database. The prepared statement is expected first.
func createStore(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *Store {
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id = \\?")
	store, err := New(db, ContactsTable)
	require.NoError(t, err)
	return store
}

// TestInsert expects that the fields are inserted in the order of their names and that the auto
// increment id is returned.
func TestInsert(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectExec("INSERT INTO contacts \\(image, last_contact_date, name\\) VALUES \\(\\?, \\?, \\?\\)").
		WithArgs("https://example.com/images/a.png", "2024-01-01", "Erika Mustermann").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := store.Insert(context.Background(), "contacts", docstore.Fields{
		"name":            "Erika Mustermann",
		"image":           "https://example.com/images/a.png",
		"lastContactDate": "2024-01-01",
	})

	// Compare results
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestInsertUnknownField expects that a field without a column is rejected before the database is
// reached.
func TestInsertUnknownField(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	_, err := store.Insert(context.Background(), "contacts", docstore.Fields{"phone": "+49 0815 4711"})

	assert.ErrorIs(t, err, docstore.ErrUnknownField)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestMergeUpdate expects an UPDATE that only touches the supplied columns.
func TestMergeUpdate(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectExec("UPDATE contacts SET last_contact_date=\\?, name=\\? WHERE id=\\?").
		WithArgs("2024-02-02", "Berta", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MergeUpdate(context.Background(), "contacts", "7", docstore.Fields{
		"name":            "Berta",
		"lastContactDate": "2024-02-02",
	})

	// Compare results
	require.NoError(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestMergeUpdateNotFound expects ErrNotFound both for an id that matches no row and for an id
// that cannot be a row id in the first place.
func TestMergeUpdateNotFound(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	// Define expectations on SQL statements
	mock.ExpectExec("UPDATE contacts SET name=\\? WHERE id=\\?").
		WithArgs("Berta", "9999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MergeUpdate(context.Background(), "contacts", "9999", docstore.Fields{"name": "Berta"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	err = store.MergeUpdate(context.Background(), "contacts", "INVALID", docstore.Fields{"name": "Berta"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestFetchAllOrdered expects a select ordered by the column of the sort field, and converts the
// DATE column back into an ISO date string.
func TestFetchAllOrdered(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	// Define expectations on SQL statements
	rows := mock.NewRows([]string{"id", "name", "image", "last_contact_date"}).
		AddRow(int64(3), "Carla", "https://example.com/c.png", time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)).
		AddRow(int64(1), "Aaron", "https://example.com/a.png", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)).
		AddRow(int64(2), "Berta", []byte("https://example.com/b.png"), time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT \\* FROM contacts ORDER BY last_contact_date ASC, id ASC").
		WillReturnRows(rows)

	docs, err := store.FetchAllOrdered(context.Background(), "contacts", "lastContactDate", true)

	// Compare results
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "3", docs[0].Id)
	assert.Equal(t, "Carla", docs[0].Fields["name"])
	assert.Equal(t, "2023-01-01", docs[0].Fields["lastContactDate"])
	assert.Equal(t, "1", docs[1].Id)
	assert.Equal(t, "2", docs[2].Id)
	assert.Equal(t, "https://example.com/b.png", docs[2].Fields["image"])
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestFetchAllOrderedInvalidSortField expects that only mapped fields can be used for sorting.
func TestFetchAllOrderedInvalidSortField(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	_, err := store.FetchAllOrdered(context.Background(), "contacts", "id; DROP TABLE contacts", true)

	assert.ErrorIs(t, err, docstore.ErrUnknownField)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestFetchAllOrderedError expects that database errors are passed on.
func TestFetchAllOrderedError(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	mock.ExpectQuery("SELECT \\* FROM contacts ORDER BY last_contact_date DESC, id ASC").
		WillReturnError(errors.New("connection refused"))

	_, err := store.FetchAllOrdered(context.Background(), "contacts", "lastContactDate", false)

	assert.EqualError(t, err, "connection refused")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestGet expects the prepared select to be used.
func TestGet(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()
	store := createStore(t, db, mock)

	// Define expectations on SQL statements
	rows := mock.NewRows([]string{"id", "name", "image", "last_contact_date"}).
		AddRow(int64(29), "Erika Mustermann", "https://example.com/e.png", "2024-03-02")
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\?").
		WithArgs("29").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id = \\?").
		WithArgs("9999").
		WillReturnRows(mock.NewRows([]string{"id", "name", "image", "last_contact_date"}))

	doc, err := store.Get(context.Background(), "contacts", "29")
	require.NoError(t, err)
	assert.Equal(t, docstore.Document{
		Id: "29",
		Fields: docstore.Fields{
			"name":            "Erika Mustermann",
			"image":           "https://example.com/e.png",
			"lastContactDate": "2024-03-02",
		},
	}, doc)

	_, err = store.Get(context.Background(), "contacts", "9999")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
