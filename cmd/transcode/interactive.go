package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cargoline/cargoline/cargo"
	"github.com/cargoline/cargoline/document"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// treeRow is one line of the inspector: a named slot in the imported
// document, with its children when the slot holds a composite.
type treeRow struct {
	depth    int
	name     string
	kind     string
	preview  string
	children []*treeRow
	expanded bool
}

type inspectModel struct {
	title     string
	root      *treeRow
	rows      []*treeRow
	cursor    int
	filter    textinput.Model
	filtering bool
	height    int
}

func newInspectModel(c cargo.Cargo, rootName string) inspectModel {
	fi := textinput.New()
	fi.Placeholder = "name filter"
	fi.Prompt = "/ "
	fi.Width = 40

	root := buildRow(rootName, c, 0)
	root.expanded = true
	for _, child := range root.children {
		child.expanded = true
	}

	m := inspectModel{
		title:  "Document Inspector: " + rootName,
		root:   root,
		filter: fi,
	}
	m.reflow()
	return m
}

func (m inspectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "esc":
				m.filtering = false
				m.filter.Blur()
				m.filter.SetValue("")
				m.reflow()
			case "enter":
				m.filtering = false
				m.filter.Blur()
			case "ctrl+c":
				return m, tea.Quit
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.reflow()
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "enter", " ", "right", "l":
			if r := m.current(); r != nil && len(r.children) > 0 {
				r.expanded = !r.expanded
				m.reflow()
			}
		case "left", "h":
			if r := m.current(); r != nil && r.expanded {
				r.expanded = false
				m.reflow()
			}
		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	visible := m.rows
	top := 0
	if max := m.height - 7; max > 0 && len(visible) > max {
		top = m.cursor - max/2
		if top < 0 {
			top = 0
		}
		if top+max > len(visible) {
			top = len(visible) - max
		}
		visible = visible[top : top+max]
	}

	for i, r := range visible {
		marker := "  "
		if len(r.children) > 0 {
			if r.expanded {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}
		line := strings.Repeat("  ", r.depth) + marker +
			nameStyle.Render(r.name) + " " + kindStyle.Render(r.kind)
		if r.preview != "" {
			line += " " + valueStyle.Render(r.preview)
		}
		if top+i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move • enter expand • / filter • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *inspectModel) current() *treeRow {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

// reflow rebuilds the visible row list from the tree, honouring the
// expansion state or, when a filter is active, the name filter.
func (m *inspectModel) reflow() {
	m.rows = m.rows[:0]
	if needle := m.filter.Value(); needle != "" {
		m.appendMatching(m.root, strings.ToLower(needle))
	} else {
		m.appendExpanded(m.root)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *inspectModel) appendExpanded(r *treeRow) {
	m.rows = append(m.rows, r)
	if !r.expanded {
		return
	}
	for _, child := range r.children {
		m.appendExpanded(child)
	}
}

func (m *inspectModel) appendMatching(r *treeRow, needle string) {
	if strings.Contains(strings.ToLower(r.name), needle) {
		m.rows = append(m.rows, r)
	}
	for _, child := range r.children {
		m.appendMatching(child, needle)
	}
}

func buildRow(name string, c cargo.Cargo, depth int) *treeRow {
	r := &treeRow{depth: depth, name: name}

	if n, ok := c.(*document.Node); ok {
		c = n.Cargo()
	}

	switch v := c.(type) {
	case nil:
		r.kind = "empty"

	case *document.Object:
		r.kind = fmt.Sprintf("object(%d)", v.Len())
		for _, field := range v.Names() {
			for _, member := range v.All(field) {
				r.children = append(r.children, buildRow(field, member, depth+1))
			}
		}

	case *document.Array:
		r.kind = fmt.Sprintf("array(%d)", v.Len())
		for i := 0; i < v.Len(); i++ {
			r.children = append(r.children, buildRow(fmt.Sprintf("[%d]", i), v.At(i), depth+1))
		}

	case *document.Value:
		r.kind = wireName(v.Preferred())
		if v.IsNull() {
			r.preview = "null"
		} else if text, ok := v.Write(); ok {
			r.preview = clip(text, 48)
		}

	default:
		r.kind = formName(c.Form())
		if item, ok := c.(cargo.Item); ok {
			if text, ok := item.Write(); ok {
				r.preview = clip(text, 48)
			}
		}
	}
	return r
}

func wireName(k cargo.WireKind) string {
	switch k {
	case cargo.WireText:
		return "text"
	case cargo.WireNumber:
		return "number"
	case cargo.WireBoolean:
		return "boolean"
	case cargo.WireComposite:
		return "composite"
	case cargo.WireSequence:
		return "sequence"
	}
	return "none"
}

func formName(f cargo.Form) string {
	if f == cargo.FormPackage {
		return "package"
	}
	return "item"
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func runInteractive(c cargo.Cargo, rootName string) error {
	p := tea.NewProgram(newInspectModel(c, rootName), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive session: %w", err)
	}
	return nil
}
