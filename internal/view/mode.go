package view

import "gitlab.com/dirk.krummacker/contacts-app/internal/model"

// Mode is the mode of the contact form.
type Mode int

const (
	// Create is the form of a new contact.
	Create Mode = iota
	// View shows an existing contact read-only.
	View
	// Edit lets the user change an existing contact.
	Edit
)

// ModeFor returns the mode the form opens in.
func ModeFor(existing *model.Contact) Mode {
	if existing == nil {
		return Create
	}
	return View
}

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case View:
		return "view"
	case Edit:
		return "edit"
	}
	return "unknown"
}

// Action is a button press in the form.
type Action int

const (
	// Primary is the main button. Its label depends on the mode.
	Primary Action = iota
	// Save is the secondary button, only present in Edit.
	Save
)

// Effect is what the caller has to do after a transition.
type Effect int

const (
	None Effect = iota
	// RunSave means the save must be started.
	RunSave
)

// Transition returns the mode after action and the effect the caller has to run. Actions that
// are not available in a mode leave it unchanged.
func Transition(m Mode, a Action) (Mode, Effect) {
	switch {
	case m == Create && a == Primary:
		return Create, RunSave
	case m == View && a == Primary:
		return Edit, None
	case m == Edit && a == Primary:
		return View, None
	case m == Edit && a == Save:
		return Edit, RunSave
	}
	return m, None
}

// Title is the heading of the form.
func (m Mode) Title() string {
	switch m {
	case View:
		return "View a Contact"
	case Edit:
		return "Update a Contact"
	}
	return "Create a Contact"
}

// PrimaryLabel is the label of the main button.
func (m Mode) PrimaryLabel() string {
	switch m {
	case View:
		return "Update Contact"
	case Edit:
		return "View Contact"
	}
	return "Save Contact"
}

// SaveLabel is the label of the secondary button.
const SaveLabel = "Save"

// Editable reports whether name and date can be changed.
func (m Mode) Editable() bool {
	return m != View
}

// ShowsPicker reports whether an image file can be chosen.
func (m Mode) ShowsPicker() bool {
	return m.Editable()
}

// ShowsPreview reports whether the stored image is shown.
func (m Mode) ShowsPreview() bool {
	return m != Create
}

// ShowsSaveButton reports whether the secondary button is shown.
func (m Mode) ShowsSaveButton() bool {
	return m == Edit
}
