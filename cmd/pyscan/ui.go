package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pyscan/internal/app"
	"pyscan/internal/diag"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	advisoryUIStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	lastUpdate time.Time
	fileCount  int
	warnings   int
	advisories int
}

type updateMsg struct {
	results []app.Result
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.fileCount = len(msg.results)
		m.warnings = 0
		m.advisories = 0
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, res := range msg.results {
			for _, d := range res.Diagnostics {
				if d.Severity == diag.SevAdvisory {
					m.advisories++
				} else {
					m.warnings++
				}
				var desc string
				if d.Line > 0 {
					desc = fmt.Sprintf("%s:%d: %s", d.Path, d.Line, d.Message)
				} else {
					desc = fmt.Sprintf("%s: %s", d.Path, d.Message)
				}
				items = append(items, item{
					title: string(d.Code),
					desc:  desc,
				})
			}
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files",
		m.lastUpdate.Format("15:04:05"), m.fileCount))

	var summary string
	if m.warnings == 0 && m.advisories == 0 {
		summary = successStyle.Render("✅ All Files Clean")
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s",
			warningStyle.Render(fmt.Sprintf("%d Warnings", m.warnings)),
			advisoryUIStyle.Render(fmt.Sprintf("%d Advisories", m.advisories)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Python Source Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
