package view

import (
	"bytes"
	"encoding/base64"

	"gitlab.com/dirk.krummacker/contacts-app/internal/contact"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/errorx"
)

// Indeterminate is the progress of a save that does not upload an image.
const Indeterminate = -1

// Detail is the form that creates, shows and updates a single contact.
type Detail struct {
	mode     Mode
	existing *model.Contact

	name            string
	lastContactDate string
	image           *pendingImage
	preview         string

	saving  bool
	percent int
	err     string
}

type pendingImage struct {
	name        string
	contentType string
	data        []byte
}

// NewDetail returns the form for existing, or for a new contact if existing is nil.
func NewDetail(existing *model.Contact) *Detail {
	d := &Detail{mode: ModeFor(existing), percent: Indeterminate}
	if existing != nil {
		c := *existing
		d.existing = &c
		d.name = c.Name
		d.lastContactDate = c.LastContactDate
		d.preview = c.Image
	}
	return d
}

func (d *Detail) Mode() Mode {
	return d.mode
}

// Existing returns the contact the form was opened with, or nil.
func (d *Detail) Existing() *model.Contact {
	return d.existing
}

func (d *Detail) Name() string {
	return d.name
}

func (d *Detail) LastContactDate() string {
	return d.lastContactDate
}

// SetName changes the name. It is ignored unless the mode is editable.
func (d *Detail) SetName(name string) {
	if d.mode.Editable() {
		d.name = name
	}
}

// SetLastContactDate changes the date. It is ignored unless the mode is editable.
func (d *Detail) SetLastContactDate(date string) {
	if d.mode.Editable() {
		d.lastContactDate = date
	}
}

// ChooseImage makes the file the image to upload on the next save and shows it right away as a
// data URL.
func (d *Detail) ChooseImage(name string, contentType string, data []byte) {
	if !d.mode.ShowsPicker() {
		return
	}
	d.image = &pendingImage{name: name, contentType: contentType, data: data}
	d.preview = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// HasImage reports whether an image has been chosen.
func (d *Detail) HasImage() bool {
	return d.image != nil
}

// Preview returns the URL of the image to show: the stored one or a data URL of the chosen file.
func (d *Detail) Preview() string {
	return d.preview
}

// Press applies a button press and returns what the caller has to do.
func (d *Detail) Press(a Action) Effect {
	next, effect := Transition(d.mode, a)
	d.mode = next
	return effect
}

// Request returns the input of a save of the current fields.
func (d *Detail) Request() contact.SaveRequest {
	req := contact.SaveRequest{
		Name:            d.name,
		LastContactDate: d.lastContactDate,
		Existing:        d.existing,
	}
	if d.image != nil {
		req.Image = &contact.ImageFile{
			Name:        d.image.name,
			ContentType: d.image.contentType,
			Size:        int64(len(d.image.data)),
			Reader:      bytes.NewReader(d.image.data),
		}
	}
	return req
}

// BeginSave marks a save as running and clears the previous error.
func (d *Detail) BeginSave() {
	d.saving = true
	d.err = ""
	if d.image != nil {
		d.percent = 0
	} else {
		d.percent = Indeterminate
	}
}

// SetProgress updates the upload progress.
func (d *Detail) SetProgress(percent int) {
	if d.saving && d.image != nil {
		d.percent = percent
	}
}

// EndSave marks the save as finished. A failed save shows the message of err.
func (d *Detail) EndSave(err error) {
	d.saving = false
	d.percent = Indeterminate
	if err != nil {
		d.err = errorx.Message(err)
	}
}

// Saving reports whether a save is running.
func (d *Detail) Saving() bool {
	return d.saving
}

// Percent returns the upload progress, or Indeterminate.
func (d *Detail) Percent() int {
	return d.percent
}

// Error returns the message of the last failed save.
func (d *Detail) Error() string {
	return d.err
}
