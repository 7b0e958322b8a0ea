package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clrview/clrview"
	"github.com/clrview/clrview/cil"
	"github.com/clrview/clrview/pe"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	entryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type pane int

const (
	paneOverview pane = iota
	paneStreams
	paneMethods
	paneCount
)

var paneNames = [paneCount]string{"overview", "streams", "methods"}

type inspectModel struct {
	err      error
	report   *clrview.Report
	filename string
	active   pane
	viewport viewport.Model
	ready    bool
}

type inspectedMsg struct {
	err    error
	report *clrview.Report
}

func newInspectModel(filename string) *inspectModel {
	return &inspectModel{filename: filename}
}

func (m *inspectModel) Init() tea.Cmd {
	return m.inspectFile
}

func (m *inspectModel) inspectFile() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return inspectedMsg{err: err}
	}
	report, err := clrview.Inspect(data)
	if err != nil {
		return inspectedMsg{err: err}
	}
	return inspectedMsg{report: report}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab", "right", "l":
			m.active = (m.active + 1) % paneCount
			m.refreshContent()

		case "shift+tab", "left", "h":
			m.active = (m.active + paneCount - 1) % paneCount
			m.refreshContent()

		case "1", "2", "3":
			m.active = pane(msg.String()[0] - '1')
			m.refreshContent()
		}

	case tea.WindowSizeMsg:
		headerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}
		m.refreshContent()

	case inspectedMsg:
		m.err = msg.err
		m.report = msg.report
		m.refreshContent()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *inspectModel) refreshContent() {
	if !m.ready || m.report == nil {
		return
	}
	switch m.active {
	case paneOverview:
		m.viewport.SetContent(m.overviewContent())
	case paneStreams:
		m.viewport.SetContent(m.streamsContent())
	case paneMethods:
		m.viewport.SetContent(m.methodsContent())
	}
	m.viewport.GotoTop()
}

func (m *inspectModel) overviewContent() string {
	r := m.report
	var b strings.Builder

	row := func(label, format string, args ...any) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-18s", label)))
		b.WriteString(fmt.Sprintf(format, args...))
		b.WriteString("\n")
	}

	row("Size", "%d bytes", r.Size)
	row("Fingerprint", "xxh64:%016x", r.Fingerprint)
	row("Machine", "%s (0x%04x)", pe.MachineName(r.Image.Machine), r.Image.Machine)
	row("Image base", "0x%x", r.Image.ImageBase)
	row("Runtime version", "%d.%d", r.CLI.MajorRuntimeVersion, r.CLI.MinorRuntimeVersion)
	row("Metadata", "rva=0x%08x size=%d", r.CLI.Metadata.VirtualAddress, r.CLI.Metadata.Size)
	row("Flags", "0x%08x", r.CLI.Flags)
	row("Entry token", "0x%08x", r.CLI.EntryPointToken)
	row("Entry point", "%s", entryStyle.Render(r.EntryPoint))

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Sections"))
	b.WriteString("\n")
	for _, s := range r.Image.Sections {
		fmt.Fprintf(&b, "  %-8s va=0x%08x vsize=0x%06x raw=0x%08x rawsize=0x%06x\n",
			s.Name, s.VirtualAddress, s.VirtualSize, s.RawPointer, s.RawSize)
	}

	return b.String()
}

func (m *inspectModel) streamsContent() string {
	r := m.report
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Metadata version"), r.Root.Version)

	b.WriteString(labelStyle.Render("Streams"))
	b.WriteString("\n")
	for _, s := range r.Root.Streams {
		fmt.Fprintf(&b, "  %-10s offset=0x%06x size=%d\n", s.Name, s.Offset, s.Size)
	}

	fmt.Fprintf(&b, "\n%s valid=0x%016x sorted=0x%016x\n",
		labelStyle.Render("Tables"), r.Tables.Valid, r.Tables.Sorted)
	for _, c := range r.Tables.Counts {
		fmt.Fprintf(&b, "  0x%02x %-22s %d rows\n", c.ID, cil.TableName(c.ID), c.Rows)
	}

	return b.String()
}

func (m *inspectModel) methodsContent() string {
	var b strings.Builder
	for i, method := range m.report.Methods {
		name := method.Name
		if name == m.report.EntryPoint {
			name = entryStyle.Render(name + "  ← entry point")
		}
		fmt.Fprintf(&b, "%4d  rva=0x%08x flags=0x%04x  %s\n", i+1, method.RVA, method.Flags, name)
	}
	return b.String()
}

func (m *inspectModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.report == nil || !m.ready {
		return "Inspecting " + m.filename + "..."
	}

	var tabs []string
	for i, name := range paneNames {
		if pane(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render("["+name+"]"))
		} else {
			tabs = append(tabs, tabStyle.Render(" "+name+" "))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("CLR Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/←/→ switch pane • ↑/↓ scroll • q quit"))

	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInspectModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
