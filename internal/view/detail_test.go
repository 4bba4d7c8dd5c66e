package view

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/contacts-app/internal/contact"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

func TestDetailCreate(t *testing.T) {
	d := NewDetail(nil)
	d.SetName("A")
	d.SetLastContactDate("2024-01-01")
	d.ChooseImage("a.png", "image/png", []byte("png"))

	assert.Equal(t, "data:image/png;base64,cG5n", d.Preview())
	assert.Equal(t, RunSave, d.Press(Primary))

	req := d.Request()
	assert.Equal(t, "A", req.Name)
	assert.Equal(t, "2024-01-01", req.LastContactDate)
	assert.Nil(t, req.Existing)
	require.NotNil(t, req.Image)
	assert.Equal(t, int64(3), req.Image.Size)
	data, err := io.ReadAll(req.Image.Reader)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	// Every request reads the image from the start.
	data, err = io.ReadAll(d.Request().Image.Reader)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestDetailViewIsReadOnly(t *testing.T) {
	d := NewDetail(&model.Contact{Id: "1", Name: "A", Image: "https://x/a.png", LastContactDate: "2024-01-01"})

	d.SetName("B")
	d.SetLastContactDate("2025-01-01")
	d.ChooseImage("b.png", "image/png", []byte("b"))

	assert.Equal(t, "A", d.Name())
	assert.Equal(t, "2024-01-01", d.LastContactDate())
	assert.Equal(t, "https://x/a.png", d.Preview())
	assert.False(t, d.HasImage())
}

func TestDetailEditKeepsChangesWhenLeaving(t *testing.T) {
	d := NewDetail(&model.Contact{Id: "1", Name: "A", LastContactDate: "2024-01-01"})

	assert.Equal(t, None, d.Press(Primary))
	assert.Equal(t, Edit, d.Mode())
	d.SetName("B")
	assert.Equal(t, None, d.Press(Primary))

	assert.Equal(t, View, d.Mode())
	assert.Equal(t, "B", d.Name())
}

func TestDetailUpdateRequest(t *testing.T) {
	existing := &model.Contact{Id: "1", Name: "A", Image: "https://x/a.png", LastContactDate: "2024-01-01"}
	d := NewDetail(existing)
	d.Press(Primary)
	d.SetLastContactDate("2024-06-01")

	assert.Equal(t, RunSave, d.Press(Save))
	assert.Equal(t, contact.SaveRequest{Name: "A", LastContactDate: "2024-06-01", Existing: existing}, d.Request())
}

func TestDetailSaveProgress(t *testing.T) {
	d := NewDetail(nil)
	d.BeginSave()
	assert.True(t, d.Saving())
	assert.Equal(t, Indeterminate, d.Percent())
	d.SetProgress(40)
	assert.Equal(t, Indeterminate, d.Percent())
	d.EndSave(contact.ErrFieldsRequired)
	assert.False(t, d.Saving())
	assert.Equal(t, "All fields are required.", d.Error())

	d.ChooseImage("a.png", "image/png", []byte("png"))
	d.BeginSave()
	assert.Empty(t, d.Error())
	assert.Equal(t, 0, d.Percent())
	d.SetProgress(40)
	assert.Equal(t, 40, d.Percent())
	d.EndSave(contact.ErrAddContact)
	assert.Equal(t, "Error adding contact.", d.Error())
}
