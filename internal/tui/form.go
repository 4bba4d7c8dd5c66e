package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"

	"gitlab.com/dirk.krummacker/contacts-app/internal/view"
)

// Inputs of the form, in focus order.
const (
	fieldName = iota
	fieldDate
	fieldImage
	fieldCount
)

// form draws a view.Detail and turns key presses into changes of it.
type form struct {
	detail   *view.Detail
	inputs   []textinput.Model
	focus    int
	fileErr  string
	progress progress.Model
	spinner  spinner.Model
}

func newForm(detail *view.Detail) *form {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.PromptStyle = lipgloss.NewStyle().Foreground(colourBlue)
		ti.TextStyle = valueStyle
		ti.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = ti
	}
	inputs[fieldName].Placeholder = "Contact name"
	inputs[fieldName].CharLimit = 100
	inputs[fieldDate].Placeholder = "YYYY-MM-DD"
	inputs[fieldDate].CharLimit = 10
	inputs[fieldImage].Placeholder = "Path of an image file, enter to choose"
	inputs[fieldImage].CharLimit = 1024

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colourBlue)

	f := &form{
		detail:   detail,
		inputs:   inputs,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  s,
	}
	f.syncInputs()
	return f
}

// syncInputs copies the fields of the detail into the inputs and sets the focus for the mode.
func (f *form) syncInputs() {
	f.inputs[fieldName].SetValue(f.detail.Name())
	f.inputs[fieldDate].SetValue(f.detail.LastContactDate())
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if f.detail.Mode().Editable() {
		f.inputs[f.focus].Focus()
	}
}

func (f *form) moveFocus(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// updateInput hands a key to the focused input and copies the result into the detail.
func (f *form) updateInput(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	switch f.focus {
	case fieldName:
		f.detail.SetName(f.inputs[fieldName].Value())
	case fieldDate:
		f.detail.SetLastContactDate(f.inputs[fieldDate].Value())
	}
	return cmd
}

// chooseImage reads the file named in the image input. The content type is detected from the
// bytes, not from the file name.
func (f *form) chooseImage() {
	path := strings.TrimSpace(f.inputs[fieldImage].Value())
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		f.fileErr = fmt.Sprintf("Cannot read %s.", path)
		return
	}
	f.fileErr = ""
	f.detail.ChooseImage(filepath.Base(path), mimetype.Detect(data).String(), data)
}

func (f *form) view() string {
	d := f.detail
	mode := d.Mode()
	var b strings.Builder

	b.WriteString(titleStyle.Render(mode.Title()) + "\n\n")

	b.WriteString(labelStyle.Render("Contact Name") + "\n")
	b.WriteString(f.field(fieldName, d.Name()) + "\n\n")

	b.WriteString(labelStyle.Render("Image") + "\n")
	if mode.ShowsPreview() {
		b.WriteString(valueStyle.Render(previewText(d.Preview())) + "\n")
	}
	if mode.ShowsPicker() {
		b.WriteString(f.inputs[fieldImage].View() + "\n")
		if d.HasImage() && !mode.ShowsPreview() {
			b.WriteString(helpStyle.Render(previewText(d.Preview())) + "\n")
		}
	}
	if f.fileErr != "" {
		b.WriteString(errorStyle.Render(f.fileErr) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Last Contact Date") + "\n")
	b.WriteString(f.field(fieldDate, d.LastContactDate()) + "\n")

	if d.Error() != "" {
		b.WriteString("\n" + errorStyle.Render(d.Error()) + "\n")
	}

	buttons := buttonStyle.Render(mode.PrimaryLabel())
	if mode.ShowsSaveButton() {
		buttons = lipgloss.JoinHorizontal(lipgloss.Top, buttons, "  ", buttonStyle.Render(view.SaveLabel))
	}
	b.WriteString("\n" + buttons + "\n")

	if d.Saving() {
		b.WriteString("\n")
		if d.Percent() == view.Indeterminate {
			b.WriteString(f.spinner.View() + " Saving...")
		} else {
			b.WriteString(f.progress.ViewAs(float64(d.Percent()) / 100))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + helpStyle.Render(formHelp(mode)))
	return formStyle.Render(b.String())
}

// field renders an input in editable modes and the plain value otherwise.
func (f *form) field(i int, value string) string {
	if f.detail.Mode().Editable() {
		return f.inputs[i].View()
	}
	return valueStyle.Render(value)
}

func formHelp(mode view.Mode) string {
	switch mode {
	case view.Create:
		return "ctrl+s " + mode.PrimaryLabel() + " • tab next field • esc close"
	case view.View:
		return "enter/ctrl+e " + mode.PrimaryLabel() + " • esc close"
	}
	return "ctrl+s " + view.SaveLabel + " • ctrl+e " + mode.PrimaryLabel() + " • tab next field • esc close"
}

// previewText shortens data URLs, which carry the whole file.
func previewText(url string) string {
	if url == "" {
		return "No image"
	}
	if header, data, ok := strings.Cut(url, ","); ok && strings.HasPrefix(header, "data:") {
		return fmt.Sprintf("%s,… (%d bytes encoded)", header, len(data))
	}
	return url
}
