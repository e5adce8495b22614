// Package tui is a terminal front end over view.Shell. The bubbletea
// update loop owns the shell; backend calls run as commands and their
// results come back as messages.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"simple-mercari-web/internal/api"
	"simple-mercari-web/internal/view"
)

const (
	fieldSearch = iota
	fieldName
	fieldCategory
	fieldImage
	fieldCount
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	nameStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	itemCardStyle = lipgloss.NewStyle().PaddingLeft(2)
)

type (
	loadedMsg    view.LoadResult
	submittedMsg view.SubmitResult
)

type Model struct {
	ctx    context.Context
	shell  *view.Shell
	inputs []textinput.Model
	focus  int
}

func New(ctx context.Context, client view.Client) Model {
	placeholders := [fieldCount]string{"search by name", "name", "category", "path/to/image.jpg"}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 256
		inputs[i] = ti
	}
	inputs[fieldSearch].Focus()

	return Model{
		ctx:    ctx,
		shell:  view.NewShell(client),
		inputs: inputs,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.sync())
}

// sync starts the shell's pending reload as a command.
func (m Model) sync() tea.Cmd {
	req, ok := m.shell.BeginSync()
	if !ok {
		return nil
	}
	list, ctx := m.shell.ItemList, m.ctx
	return func() tea.Msg {
		return loadedMsg(list.Fetch(ctx, req))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		// the error, if any, is kept on the item list and rendered
		_ = m.shell.ItemList.Apply(view.LoadResult(msg))
		return m, m.sync()

	case submittedMsg:
		if err := m.shell.Listing.Resolve(view.SubmitResult(msg)); err != nil {
			return m, nil
		}
		for _, i := range []int{fieldName, fieldCategory, fieldImage} {
			m.inputs[i].Reset()
		}
		return m, m.sync()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			cmd := m.setFocus((m.focus + 1) % fieldCount)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, cmd
		case "ctrl+r":
			m.shell.RequestReload()
			return m, m.sync()
		case "enter":
			if m.focus != fieldSearch {
				return m, m.submit()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.focus == fieldSearch {
		m.shell.Listing.SetSearchQuery(m.inputs[fieldSearch].Value())
	}
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// submit opens the image and posts the listing in the background.
func (m Model) submit() tea.Cmd {
	input := api.CreateItemInput{
		Name:     strings.TrimSpace(m.inputs[fieldName].Value()),
		Category: strings.TrimSpace(m.inputs[fieldCategory].Value()),
	}
	if path := strings.TrimSpace(m.inputs[fieldImage].Value()); path != "" {
		f, err := os.Open(path)
		if err != nil {
			res := view.SubmitResult{Name: input.Name, Err: fmt.Errorf("open image: %w", err)}
			return func() tea.Msg { return submittedMsg(res) }
		}
		input.Image = f
		input.ImageName = filepath.Base(path)
	}

	listing, ctx := m.shell.Listing, m.ctx
	return func() tea.Msg {
		return submittedMsg(listing.Post(ctx, input))
	}
}

func (m Model) View() string {
	page := m.shell.Page()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Simple Mercari"))
	b.WriteString("\n\n")

	labels := [fieldCount]string{"Search", "Name", "Category", "Image"}
	for i, in := range m.inputs {
		label := fmt.Sprintf("%-9s", labels[i])
		if i == m.focus {
			label = focusedStyle.Render(label)
		}
		b.WriteString(label + " " + in.View() + "\n")
		if i == fieldSearch {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if page.ListingErr != nil {
		b.WriteString(errorStyle.Render("Listing failed: "+page.ListingErr.Error()) + "\n")
	} else if page.ListingMessage != "" {
		b.WriteString(infoStyle.Render(page.ListingMessage) + "\n")
	}
	if page.LoadErr != nil {
		b.WriteString(errorStyle.Render("Could not load items: "+page.LoadErr.Error()) + "\n")
	}

	status := fmt.Sprintf("%d of %d items", len(page.Items), page.Total)
	if page.Loading {
		status += " (loading)"
	}
	b.WriteString(dimStyle.Render(status) + "\n")

	for _, card := range page.Items {
		b.WriteString(itemCardStyle.Render(
			nameStyle.Render(card.Name)+"  "+card.Category+"\n"+dimStyle.Render(card.ImageURL),
		) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("tab: next field • enter: list item • ctrl+r: reload • esc: quit"))
	return b.String()
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, client view.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
