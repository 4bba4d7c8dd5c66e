package model

import "fmt"

// Field names of a contact document in the document store.
const (
	FieldName            = "name"
	FieldImage           = "image"
	FieldLastContactDate = "lastContactDate"
)

// DateLayout is the ISO-8601 calendar date format of LastContactDate.
const DateLayout = "2006-01-02"

// Contact is the data structure for a person that we know.
// Id is empty until the contact has been persisted for the first time.
type Contact struct {
	Id              string `json:"id"`
	Name            string `json:"name"`
	Image           string `json:"image,omitempty"`
	LastContactDate string `json:"lastContactDate"`
}

// Fields returns the document fields of the contact. The image is left out when it is empty, so
// that a merge update keeps the stored URL.
func (c Contact) Fields() map[string]any {
	fields := map[string]any{
		FieldName:            c.Name,
		FieldLastContactDate: c.LastContactDate,
	}
	if c.Image != "" {
		fields[FieldImage] = c.Image
	}
	return fields
}

// FromFields builds a contact from a stored document. Missing fields stay empty.
func FromFields(id string, fields map[string]any) Contact {
	return Contact{
		Id:              id,
		Name:            stringField(fields, FieldName),
		Image:           stringField(fields, FieldImage),
		LastContactDate: stringField(fields, FieldLastContactDate),
	}
}

// stringField returns the named field as a string, whatever scalar type the backend handed us.
func stringField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
