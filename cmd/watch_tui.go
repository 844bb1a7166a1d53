package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"i4.energy/across/espfetch/httpjson"
)

// fetcher is the part of a session the watch view drives.
type fetcher interface {
	Fetch(ctx context.Context) (httpjson.Result, error)
}

// Log entry
type watchLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Watch model
type watchModel struct {
	ctx           context.Context
	radio         fetcher
	connection    string
	peer          string
	interval      time.Duration
	spinner       spinner.Model
	fetching      bool
	last          *httpjson.Result
	lastAt        time.Time
	fetches       int
	failures      int
	log           []watchLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

// Messages
type fetchTickMsg time.Time
type fetchResultMsg struct {
	result httpjson.Result
	err    error
	took   time.Duration
}

func newWatchModel(ctx context.Context, radio fetcher, connection, peer string, interval time.Duration) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	return watchModel{
		ctx:           ctx,
		radio:         radio,
		connection:    connection,
		peer:          peer,
		interval:      interval,
		spinner:       s,
		log:           make([]watchLogEntry, 0),
		maxLogEntries: 50,
		width:         80,
		height:        24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return fetchTickMsg(time.Now()) },
	)
}

func (m watchModel) scheduleFetch() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return fetchTickMsg(t)
	})
}

func (m watchModel) fetch() tea.Cmd {
	ctx, radio := m.ctx, m.radio
	return func() tea.Msg {
		start := time.Now()
		res, err := radio.Fetch(ctx)
		return fetchResultMsg{result: res, err: err, took: time.Since(start)}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchTickMsg:
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.fetch()

	case fetchResultMsg:
		m.fetching = false
		m.fetches++
		if msg.err != nil {
			m.failures++
			m.addLogEntry(fmt.Sprintf("fetch failed: %v", msg.err), true)
		} else {
			res := msg.result
			m.last = &res
			m.lastAt = time.Now()
			m.addLogEntry(fmt.Sprintf("HTTP %d %s in %s", res.Status, res.Payload, msg.took.Round(time.Millisecond)), false)
		}
		if m.ctx.Err() != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.scheduleFetch()
	}

	return m, nil
}

func (m *watchModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, watchLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("ESPFETCH - WATCH"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Radio: %s | Peer: %s | Every %s | Press 'q' to quit",
		m.connection, m.peer, m.interval)))
	s.WriteString("\n\n")

	var panel strings.Builder
	if m.last == nil {
		panel.WriteString(headerStyle.Render("No reading yet"))
	} else {
		r := newReading(m.last.Payload)
		panel.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Status:"), valueStyle.Render(fmt.Sprintf("%d", m.last.Status)),
			labelStyle.Render("At:"), valueStyle.Render(m.lastAt.Format("15:04:05")),
		))
		panel.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("CPU:"), valueStyle.Render(fmt.Sprintf("%d%%", r.CPU))))
		for i, t := range r.Temperatures {
			panel.WriteString(fmt.Sprintf("   %s %s",
				labelStyle.Render(fmt.Sprintf("Temp %d:", i)), valueStyle.Render(fmt.Sprintf("%d°C", t))))
		}
	}
	s.WriteString(boxStyle.Render(panel.String()))
	s.WriteString("\n")

	status := fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Fetches:"), valueStyle.Render(fmt.Sprintf("%d", m.fetches)),
		labelStyle.Render("Failures:"), errorStyle.Render(fmt.Sprintf("%d", m.failures)),
	)
	if m.fetching {
		status += "   " + m.spinner.View() + " fetching"
	}
	s.WriteString(status)
	s.WriteString("\n\n")

	// Fit the log into the remaining height
	available := m.height - 12
	if available < 3 {
		available = 3
	}
	entries := m.log
	if len(entries) > available {
		entries = entries[len(entries)-available:]
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %s", e.timestamp.Format("15:04:05"), e.message)
		if e.isError {
			s.WriteString(errorStyle.Render(line))
		} else {
			s.WriteString(line)
		}
		s.WriteString("\n")
	}

	return s.String()
}
