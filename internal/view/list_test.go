package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

func TestListCycle(t *testing.T) {
	list := NewList(zap.NewNop())
	assert.Equal(t, Idle, list.State())
	assert.False(t, list.Sync(false))
	assert.Equal(t, Idle, list.State())

	assert.True(t, list.Sync(true))
	assert.Equal(t, Loading, list.State())
	assert.Equal(t, Rendering{Message: MessageFetching}, list.Render())
	// A running fetch is not started again.
	assert.False(t, list.Sync(true))

	list.Finish(nil, nil)
	assert.Equal(t, Loaded, list.State())
	assert.Equal(t, Rendering{Message: MessageNoContacts}, list.Render())

	assert.True(t, list.Sync(true))
	assert.Equal(t, Loading, list.State())
}

func TestListRendersSorted(t *testing.T) {
	fetched := []model.Contact{
		{Id: "3", Name: "C", LastContactDate: "2024-03-01"},
		{Id: "1", Name: "A", LastContactDate: "2023-12-31"},
		{Id: "4", Name: "D", LastContactDate: "2024-03-01"},
		{Id: "2", Name: "B", LastContactDate: "2024-01-15"},
	}
	list := NewList(zap.NewNop())
	list.Sync(true)

	list.Finish(fetched, nil)

	var ids []string
	for _, c := range list.Render().Rows {
		ids = append(ids, c.Id)
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids)
	assert.Empty(t, list.Render().Message)
	// The fetched slice is not reordered.
	assert.Equal(t, "3", fetched[0].Id)
}

func TestListKeepsContactsOnError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	list := NewList(zap.New(core))
	list.Sync(true)
	list.Finish([]model.Contact{{Id: "1", Name: "A", LastContactDate: "2024-01-01"}}, nil)

	list.Sync(true)
	assert.Len(t, list.Render().Rows, 1, "rows stay visible while loading")
	list.Finish(nil, errors.New("unavailable"))

	assert.Equal(t, Loaded, list.State())
	assert.Len(t, list.Render().Rows, 1)
	assert.Equal(t, 1, logs.FilterMessage("fetching contacts failed").Len())
}

func TestListOpen(t *testing.T) {
	list := NewList(zap.NewNop())
	list.Sync(true)
	list.Finish([]model.Contact{{Id: "1", Name: "A", Image: "u", LastContactDate: "2024-01-01"}}, nil)

	detail, ok := list.Open(0)
	assert.True(t, ok)
	assert.Equal(t, View, detail.Mode())
	assert.Equal(t, "A", detail.Name())
	assert.Equal(t, "u", detail.Preview())

	_, ok = list.Open(1)
	assert.False(t, ok)
	_, ok = list.Open(-1)
	assert.False(t, ok)

	add := list.Add()
	assert.Equal(t, Create, add.Mode())
	assert.Nil(t, add.Existing())
}
