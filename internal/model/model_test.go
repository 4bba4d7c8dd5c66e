package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFieldsOmitsEmptyImage checks that a contact without an image does not overwrite the stored
// image on a merge update.
func TestFieldsOmitsEmptyImage(t *testing.T) {
	fields := Contact{Name: "Erika Mustermann", LastContactDate: "2024-01-01"}.Fields()

	assert.Equal(t, map[string]any{"name": "Erika Mustermann", "lastContactDate": "2024-01-01"}, fields)
}

// TestFromFields checks the conversion from the loosely typed values the backends return.
func TestFromFields(t *testing.T) {
	contact := FromFields("42", map[string]any{
		"name":            []byte("Erika Mustermann"),
		"image":           "https://example.com/images/a.png",
		"lastContactDate": "2024-01-01",
		"unknown":         17,
	})

	assert.Equal(t, Contact{
		Id:              "42",
		Name:            "Erika Mustermann",
		Image:           "https://example.com/images/a.png",
		LastContactDate: "2024-01-01",
	}, contact)
}
