package downloader

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	selectorTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0B0B0B")).
				Background(lipgloss.Color("#7FDBFF")).
				Bold(true).
				Padding(0, 1)

	selectorHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A6ADC8")).
				Faint(true)

	selectorSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0B0B0B")).
				Background(lipgloss.Color("#00F5D4")).
				Bold(true)

	selectorRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#EAEAEA"))
)

type tierOption struct {
	tier   Tier
	detail string
}

type tierSelectorModel struct {
	title    string
	options  []tierOption
	cursor   int
	chosen   bool
	quitting bool
}

func newTierSelectorModel(catalog *Catalog) *tierSelectorModel {
	var options []tierOption
	for _, t := range AllowedTiers(catalog) {
		spec, _ := Spec(t)
		candidates := CandidatesFor(t, catalog)
		detail := spec.Display
		if len(candidates) > 0 {
			c := candidates[0]
			size := streamSize(catalog, c.Video) + streamSize(catalog, c.Audio)
			if size > 0 {
				detail = fmt.Sprintf("%-14s %-5s ~%s", spec.Display, c.Ext, humanBytes(size))
			} else {
				detail = fmt.Sprintf("%-14s %s", spec.Display, c.Ext)
			}
		}
		options = append(options, tierOption{tier: t, detail: detail})
	}
	return &tierSelectorModel{title: catalog.Title, options: options}
}

func streamSize(catalog *Catalog, id int) int64 {
	if d, ok := catalog.Get(id); ok {
		return d.Size
	}
	return 0
}

func (m *tierSelectorModel) Init() tea.Cmd {
	return nil
}

func (m *tierSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.quitting {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		} else if len(m.options) > 0 {
			m.cursor = len(m.options) - 1
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		if len(m.options) > 0 {
			m.cursor = len(m.options) - 1
		}
	case "enter":
		if len(m.options) > 0 {
			m.chosen = true
			m.quitting = true
			return m, tea.Quit
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if idx := int(key.String()[0] - '1'); idx < len(m.options) {
			m.cursor = idx
		}
	}
	return m, nil
}

func (m *tierSelectorModel) View() string {
	var b strings.Builder
	b.WriteString(selectorTitleStyle.Render(truncateText(m.title, 60)))
	b.WriteString("\n\n")
	for i, opt := range m.options {
		line := fmt.Sprintf(" %d  %s", i+1, opt.detail)
		if i == m.cursor {
			b.WriteString(selectorSelectedStyle.Render(line))
		} else {
			b.WriteString(selectorRowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.quitting {
		if tier, ok := m.Selected(); ok {
			b.WriteString(selectorHelpStyle.Render("Selected: " + string(tier)))
		} else {
			b.WriteString(selectorHelpStyle.Render("Cancelled"))
		}
	} else {
		b.WriteString(selectorHelpStyle.Render("↑/↓ select · 1-9 jump · Enter download · q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// Selected returns the confirmed tier, if any.
func (m *tierSelectorModel) Selected() (Tier, bool) {
	if !m.chosen || m.cursor < 0 || m.cursor >= len(m.options) {
		return "", false
	}
	return m.options[m.cursor].tier, true
}

// PickFunc lets the user choose a tier interactively.
type PickFunc func(catalog *Catalog) (Tier, error)

// TierPicker returns a PickFunc drawing the selector on out.
func TierPicker(in io.Reader, out io.Writer) PickFunc {
	return func(catalog *Catalog) (Tier, error) {
		model := newTierSelectorModel(catalog)
		if len(model.options) == 0 {
			return "", ErrNoDownloadableStream
		}
		p := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
		result, err := p.Run()
		if err != nil {
			return "", err
		}
		if m, ok := result.(*tierSelectorModel); ok {
			if tier, ok := m.Selected(); ok {
				return tier, nil
			}
		}
		return "", ErrCancelled
	}
}

func truncateText(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
