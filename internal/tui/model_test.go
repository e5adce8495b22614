package tui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"simple-mercari-web/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	items   []api.Item
	fetches int
	posts   []api.CreateItemInput
	postErr error
}

func (f *fakeClient) FetchItems(ctx context.Context) (*api.ItemListResponse, error) {
	f.fetches++
	return &api.ItemListResponse{Items: append([]api.Item(nil), f.items...)}, nil
}

func (f *fakeClient) PostItem(ctx context.Context, input api.CreateItemInput) (*http.Response, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	data, _ := io.ReadAll(input.Image)
	f.posts = append(f.posts, input)
	f.items = append(f.items, api.Item{ID: len(f.items) + 1, Name: input.Name, Category: input.Category, ImageName: string(data)})
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"message":"item received: ` + input.Name + `"}`)),
	}, nil
}

func (f *fakeClient) ImageURL(name string) string {
	return "http://localhost:9000/image/" + name
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(t *testing.T, m Model, key tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: key})
}

func loaded(t *testing.T) (Model, *fakeClient) {
	t.Helper()
	client := &fakeClient{items: []api.Item{
		{ID: 1, Name: "Red Mug", Category: "Kitchen", ImageName: "mug.png"},
		{ID: 2, Name: "Blue Pen", Category: "Office", ImageName: "pen.png"},
	}}
	m := New(context.Background(), client)

	cmd := m.sync()
	require.NotNil(t, cmd)
	m, next := update(t, m, cmd())
	assert.Nil(t, next, "nothing else pending")
	return m, client
}

func TestModel_InitialLoad(t *testing.T) {
	m, client := loaded(t)

	out := m.View()
	assert.Contains(t, out, "Red Mug")
	assert.Contains(t, out, "Blue Pen")
	assert.Contains(t, out, "http://localhost:9000/image/mug.png")
	assert.Contains(t, out, "2 of 2 items")
	assert.Equal(t, 1, client.fetches)
}

func TestModel_SearchFiltersPerKeystroke(t *testing.T) {
	m, client := loaded(t)

	m = typeText(t, m, "m")
	assert.Equal(t, "m", m.shell.SearchQuery())
	m = typeText(t, m, "ug")
	assert.Equal(t, "mug", m.shell.SearchQuery())

	out := m.View()
	assert.Contains(t, out, "Red Mug")
	assert.NotContains(t, out, "Blue Pen")
	assert.Equal(t, 1, client.fetches, "filtering stays local")
}

func TestModel_SubmitReloads(t *testing.T) {
	m, client := loaded(t)
	img := filepath.Join(t.TempDir(), "cup.jpg")
	require.NoError(t, os.WriteFile(img, []byte("cup.jpg"), 0o644))

	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Green Cup")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Kitchen")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, img)

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m, reload := update(t, m, cmd())

	require.Len(t, client.posts, 1)
	assert.Equal(t, "Green Cup", client.posts[0].Name)
	assert.Equal(t, "cup.jpg", client.posts[0].ImageName)
	assert.Equal(t, "", m.inputs[fieldName].Value(), "form is cleared")

	require.NotNil(t, reload, "submission requests a reload")
	m, _ = update(t, m, reload())
	assert.Equal(t, 2, client.fetches)

	out := m.View()
	assert.Contains(t, out, "Green Cup")
	assert.Contains(t, out, "item received: Green Cup")
}

func TestModel_SubmitFailureKeepsForm(t *testing.T) {
	m, client := loaded(t)
	client.postErr = errors.New("connection refused")
	img := filepath.Join(t.TempDir(), "cup.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))

	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Green Cup")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Kitchen")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, img)

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m, reload := update(t, m, cmd())

	assert.Nil(t, reload)
	assert.Equal(t, "Green Cup", m.inputs[fieldName].Value())
	assert.Contains(t, m.View(), "Listing failed: connection refused")
	assert.Equal(t, 1, client.fetches)
}

func TestModel_MissingImageFile(t *testing.T) {
	m, client := loaded(t)

	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Green Cup")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "Kitchen")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, filepath.Join(t.TempDir(), "missing.jpg"))

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m, reload := update(t, m, cmd())

	assert.Nil(t, reload)
	assert.Empty(t, client.posts)
	assert.Contains(t, m.View(), "open image")
}

func TestModel_ManualReload(t *testing.T) {
	m, client := loaded(t)

	m, cmd := press(t, m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "(loading)")

	m, _ = update(t, m, cmd())
	assert.Equal(t, 2, client.fetches)
	assert.NotContains(t, m.View(), "(loading)")
}

func TestModel_Quit(t *testing.T) {
	m, _ := loaded(t)
	_, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
