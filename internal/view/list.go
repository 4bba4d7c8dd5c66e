// Package view holds the state of the screens of the contacts app, independent of how they are
// drawn. The terminal front-end in internal/tui renders these states and feeds user input and
// I/O results back into them.
package view

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

// Messages shown instead of the rows when there are no contacts.
const (
	MessageFetching   = "Fetching data..."
	MessageNoContacts = "No Contacts"
)

// AddLabel is the label of the button that opens the form for a new contact.
const AddLabel = "Add Contact"

// ListState is the state of the contact list.
type ListState int

const (
	Idle ListState = iota
	Loading
	Loaded
)

func (s ListState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}

// List is the contact list. Whether the contacts must be fetched again is decided by a flag that
// is owned by the caller: it starts out true, a successful save sets it and the caller resets it
// once a fetch has finished.
type List struct {
	state    ListState
	contacts []model.Contact
	logger   *zap.Logger
}

// NewList returns an empty list in state Idle.
func NewList(logger *zap.Logger) *List {
	return &List{logger: logger}
}

// State returns the current state.
func (l *List) State() ListState {
	return l.state
}

// Sync moves the list to Loading if changed is true and no fetch is running. It returns true if
// the caller has to start a fetch.
func (l *List) Sync(changed bool) bool {
	if !changed || l.state == Loading {
		return false
	}
	l.state = Loading
	return true
}

// Finish ends a fetch. On error the contacts fetched before are kept and the error is only logged.
func (l *List) Finish(contacts []model.Contact, err error) {
	l.state = Loaded
	if err != nil {
		l.logger.Error("fetching contacts failed", zap.Error(err))
		return
	}
	sorted := slices.Clone(contacts)
	slices.SortStableFunc(sorted, func(a, b model.Contact) int {
		return strings.Compare(a.LastContactDate, b.LastContactDate)
	})
	l.contacts = sorted
}

// Contacts returns the contacts sorted by last contact date, oldest first.
func (l *List) Contacts() []model.Contact {
	return l.contacts
}

// Rendering is what the list shows: either a message or one row per contact.
type Rendering struct {
	Message string
	Rows    []model.Contact
}

// Render returns what the list shows in its current state.
func (l *List) Render() Rendering {
	if len(l.contacts) == 0 {
		if l.state == Loading {
			return Rendering{Message: MessageFetching}
		}
		return Rendering{Message: MessageNoContacts}
	}
	return Rendering{Rows: l.contacts}
}

// Add returns the form for a new contact.
func (l *List) Add() *Detail {
	return NewDetail(nil)
}

// Open returns the form showing the contact in row i. It returns false if there is no such row.
func (l *List) Open(i int) (*Detail, bool) {
	if i < 0 || i >= len(l.contacts) {
		return nil, false
	}
	c := l.contacts[i]
	return NewDetail(&c), true
}
