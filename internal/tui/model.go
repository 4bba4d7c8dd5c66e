// Package tui is the interactive terminal front-end: the contact list with an overlay form to
// create, view and update a contact.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contacts-app/internal/contact"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/view"
)

// Screen lines of the list page.
const (
	addButtonLine = 2
	firstRowLine  = 4
)

// Contacts is what the app needs from the contact service.
type Contacts interface {
	List(ctx context.Context) ([]model.Contact, error)
	Save(ctx context.Context, req contact.SaveRequest, onProgress func(percent int)) (model.Contact, error)
}

type contactsFetchedMsg struct {
	contacts []model.Contact
	err      error
}

type saveProgressMsg struct {
	job     *saveJob
	percent int
}

type saveDoneMsg struct {
	job     *saveJob
	contact model.Contact
	err     error
}

// Model is the root model of the app.
type Model struct {
	ctx      context.Context
	contacts Contacts
	logger   *zap.Logger

	// changed is the "contacts changed" flag. It starts out true so that the first Update fetches.
	changed bool
	list    *view.List
	cursor  int

	pointer *view.Pointer
	overlay *view.Overlay
	form    *form

	width  int
	height int
}

// New returns the app. ctx bounds all I/O the app starts.
func New(ctx context.Context, contacts Contacts, logger *zap.Logger) *Model {
	return &Model{
		ctx:      ctx,
		contacts: contacts,
		logger:   logger,
		changed:  true,
		list:     view.NewList(logger),
		pointer:  view.NewPointer(),
	}
}

// Changed returns the "contacts changed" flag.
func (m *Model) Changed() bool {
	return m.changed
}

// List returns the state of the contact list.
func (m *Model) List() *view.List {
	return m.list
}

// Detail returns the open form, or nil.
func (m *Model) Detail() *view.Detail {
	if m.form == nil {
		return nil
	}
	return m.form.detail
}

func (m *Model) Init() tea.Cmd {
	return m.sync()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.form != nil {
			cmds = append(cmds, m.updateForm(msg))
		} else {
			cmds = append(cmds, m.updateList(msg))
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			cmds = append(cmds, m.click(view.Point{X: msg.X, Y: msg.Y}))
		}

	case contactsFetchedMsg:
		m.list.Finish(msg.contacts, msg.err)
		m.changed = false
		m.cursor = min(m.cursor, max(len(m.list.Contacts())-1, 0))

	case saveProgressMsg:
		msg.job.detail.SetProgress(msg.percent)
		cmds = append(cmds, msg.job.wait)

	case saveDoneMsg:
		m.finishSave(msg)

	case spinner.TickMsg:
		if m.form != nil && m.form.detail.Saving() && m.form.detail.Percent() == view.Indeterminate {
			var cmd tea.Cmd
			m.form.spinner, cmd = m.form.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.sync())
	m.layout()
	return m, tea.Batch(cmds...)
}

// sync starts a fetch if the flag asks for one.
func (m *Model) sync() tea.Cmd {
	if !m.list.Sync(m.changed) {
		return nil
	}
	ctx, contacts := m.ctx, m.contacts
	return func() tea.Msg {
		list, err := contacts.List(ctx)
		return contactsFetchedMsg{contacts: list, err: err}
	}
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	rows := len(m.list.Contacts())
	switch {
	case key.Matches(msg, listKeys.Quit):
		return tea.Quit
	case key.Matches(msg, listKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, listKeys.Down):
		if m.cursor < rows-1 {
			m.cursor++
		}
	case key.Matches(msg, listKeys.Open):
		if d, ok := m.list.Open(m.cursor); ok {
			m.openForm(d)
		}
	case key.Matches(msg, listKeys.Add):
		m.openForm(m.list.Add())
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	f := m.form
	mode := f.detail.Mode()
	switch {
	case key.Matches(msg, formKeys.Quit):
		return tea.Quit
	case key.Matches(msg, formKeys.Close):
		m.closeForm()
		return nil
	case key.Matches(msg, formKeys.Save):
		switch mode {
		case view.Create:
			return m.press(view.Primary)
		case view.Edit:
			return m.press(view.Save)
		}
		return nil
	case key.Matches(msg, formKeys.Primary):
		if mode != view.Create {
			return m.press(view.Primary)
		}
		return nil
	}

	if !mode.Editable() {
		if key.Matches(msg, formKeys.Enter) {
			return m.press(view.Primary)
		}
		return nil
	}
	switch {
	case key.Matches(msg, formKeys.Next):
		f.moveFocus(1)
		return nil
	case key.Matches(msg, formKeys.Prev):
		f.moveFocus(-1)
		return nil
	case key.Matches(msg, formKeys.Enter):
		if f.focus == fieldImage {
			f.chooseImage()
		} else {
			f.moveFocus(1)
		}
		return nil
	}
	return f.updateInput(msg)
}

// press applies a button of the form.
func (m *Model) press(a view.Action) tea.Cmd {
	d := m.form.detail
	if d.Press(a) == view.RunSave {
		return m.startSave(d)
	}
	m.form.syncInputs()
	return nil
}

func (m *Model) click(pt view.Point) tea.Cmd {
	if m.overlay != nil {
		m.pointer.Press(pt)
		return nil
	}
	if pt.Y == addButtonLine {
		if pt.X >= 0 && pt.X < lipgloss.Width(buttonStyle.Render(view.AddLabel)) {
			m.openForm(m.list.Add())
		}
		return nil
	}
	if d, ok := m.list.Open(pt.Y - firstRowLine); ok {
		m.cursor = pt.Y - firstRowLine
		m.openForm(d)
	}
	return nil
}

func (m *Model) openForm(d *view.Detail) {
	m.form = newForm(d)
	m.overlay = view.NewOverlay(m.closeForm)
	m.overlay.Mount(m.pointer)
	m.layout()
}

func (m *Model) closeForm() {
	if m.overlay != nil {
		m.overlay.Unmount()
	}
	m.overlay = nil
	m.form = nil
}

// startSave runs the save of d in the background. The save keeps running if the form is closed.
func (m *Model) startSave(d *view.Detail) tea.Cmd {
	req := d.Request()
	d.BeginSave()
	job := &saveJob{
		detail:   d,
		progress: make(chan int, 1),
		done:     make(chan saveDoneMsg, 1),
	}
	go job.run(m.ctx, m.contacts, req)

	cmds := []tea.Cmd{job.wait}
	if d.Percent() == view.Indeterminate {
		cmds = append(cmds, m.form.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) finishSave(msg saveDoneMsg) {
	d := msg.job.detail
	d.EndSave(msg.err)
	if msg.err != nil {
		m.logger.Warn("saving contact failed", zap.Error(msg.err))
		return
	}
	m.changed = true
	if m.form != nil && m.form.detail == d {
		m.closeForm()
	}
}

// layout computes where the form is drawn, so that clicks can be matched against it.
func (m *Model) layout() {
	if m.form == nil {
		return
	}
	w, h := lipgloss.Size(m.form.view())
	m.overlay.SetBounds(view.Rect{
		X:      max(0, (m.width-w)/2),
		Y:      max(0, (m.height-h)/2),
		Width:  w,
		Height: h,
	})
}

func (m *Model) View() string {
	if m.form != nil {
		box := m.form.view()
		if m.width == 0 || m.height == 0 {
			return box
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
			lipgloss.WithWhitespaceChars("░"),
			lipgloss.WithWhitespaceForeground(colourSurface0))
	}
	return m.listView()
}

func (m *Model) listView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Contacts") + "\n\n")
	b.WriteString(buttonStyle.Render(view.AddLabel) + "\n\n")

	r := m.list.Render()
	if r.Message != "" {
		b.WriteString(messageStyle.Render(r.Message) + "\n")
	}
	for i, c := range r.Rows {
		style := rowStyle
		if i == m.cursor {
			style = selectedRowStyle
		}
		b.WriteString(style.Render(fmt.Sprintf(" %-32s %s ", c.Name, c.LastContactDate)) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ select • enter open • a add contact • q quit"))
	return b.String()
}

// saveJob is a save running in the background. Progress is coalesced: the UI always gets the
// latest percentage, not every one.
type saveJob struct {
	detail   *view.Detail
	progress chan int
	done     chan saveDoneMsg
}

func (j *saveJob) run(ctx context.Context, contacts Contacts, req contact.SaveRequest) {
	c, err := contacts.Save(ctx, req, j.report)
	j.done <- saveDoneMsg{job: j, contact: c, err: err}
	close(j.progress)
}

// report is only called by run, so after the buffer has been emptied the send cannot block.
func (j *saveJob) report(percent int) {
	select {
	case j.progress <- percent:
	default:
		select {
		case <-j.progress:
		default:
		}
		j.progress <- percent
	}
}

// wait is the command that delivers the next progress update or, once the save has ended, its
// result.
func (j *saveJob) wait() tea.Msg {
	if p, ok := <-j.progress; ok {
		return saveProgressMsg{job: j, percent: p}
	}
	return <-j.done
}
