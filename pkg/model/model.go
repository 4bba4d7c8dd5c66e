// Package model holds the types of the public HTTP API, for use by clients of the service.
package model

// Contact is the data structure for a person that we know, as returned by the HTTP API.
type Contact struct {
	Id              string `json:"id"`
	Name            string `json:"name"`
	Image           string `json:"image,omitempty"`
	LastContactDate string `json:"lastContactDate"`
}

// Message is the body of every non-successful response.
type Message struct {
	Message string `json:"message"`
}

// Progress is the payload of a "progress" server-sent event while an image is uploaded.
type Progress struct {
	Percent int `json:"percent"`
}
