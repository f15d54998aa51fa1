// Package tui provides the interactive Bubble Tea session browser for
// qtrail.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/probfoundry/qtrail/internal/cli"
	"github.com/probfoundry/qtrail/internal/collector"
	"github.com/probfoundry/qtrail/internal/store"
	"github.com/probfoundry/qtrail/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// sessionsLoadedMsg is sent when the session list has been read.
type sessionsLoadedMsg struct {
	sessions []store.Session
}

// entriesLoadedMsg is sent when one session's entries have been read.
type entriesLoadedMsg struct {
	sessionID int64
	entries   []store.Entry
}

// clearedMsg is sent after the log has been cleared.
type clearedMsg struct {
	freshID int64
}

// uploadDoneMsg is sent after all sessions have been uploaded.
type uploadDoneMsg struct {
	sent int
}

type errMsg struct {
	err error
}

// confirmAction names the operation a pending huh confirm applies to.
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmClear
	confirmUpload
)

// App is the root Bubble Tea model: a session list on the left and the
// selected session's entries on the right.
type App struct {
	log          *store.Log
	collectorURL string

	sessions   []store.Session
	entries    []store.Entry
	entriesFor int64
	cursor     int
	loaded     bool

	width  int
	height int

	spinner spinner.Model
	status  string
	err     error

	confirm    *huh.Form
	confirmVal bool
	pending    confirmAction
}

const minTerminalWidth = 70

// NewApp creates a new browser over an open session log.
func NewApp(sessionLog *store.Log, collectorURL string) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		log:          sessionLog,
		collectorURL: collectorURL,
		spinner:      sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, loadSessionsCmd(a.log))
}

func loadSessionsCmd(log *store.Log) tea.Cmd {
	return func() tea.Msg {
		sessions, err := log.Sessions()
		if err != nil {
			return errMsg{err}
		}
		return sessionsLoadedMsg{sessions}
	}
}

func loadEntriesCmd(log *store.Log, sessionID int64) tea.Cmd {
	return func() tea.Msg {
		entries, err := log.Entries(sessionID)
		if err != nil {
			return errMsg{err}
		}
		return entriesLoadedMsg{sessionID, entries}
	}
}

func clearCmd(log *store.Log) tea.Cmd {
	return func() tea.Msg {
		id, err := log.ClearAll(float64(time.Now().UnixNano()) / float64(time.Second))
		if err != nil {
			return errMsg{err}
		}
		return clearedMsg{id}
	}
}

func uploadCmd(log *store.Log, url string) tea.Cmd {
	return func() tea.Msg {
		client := collector.NewClient(url)
		sessions, err := log.Sessions()
		if err != nil {
			return errMsg{err}
		}

		sent := 0
		for _, s := range sessions {
			entries, err := log.Entries(s.ID)
			if err != nil {
				return errMsg{err}
			}
			dump, err := encodeEntries(entries)
			if err != nil {
				return errMsg{err}
			}
			if _, err := client.SendSession(context.Background(), dump); err != nil {
				return errMsg{err}
			}
			sent++
		}
		return uploadDoneMsg{sent}
	}
}

// encodeEntries builds the same JSON array the dump operation produces.
func encodeEntries(entries []store.Entry) (string, error) {
	if entries == nil {
		entries = []store.Entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// A pending confirm form intercepts all keys.
		if a.confirm != nil {
			return a.updateConfirm(msg)
		}

		if !a.loaded {
			return a, nil
		}

		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "j", "down":
			if a.cursor < len(a.sessions)-1 {
				a.cursor++
				return a, loadEntriesCmd(a.log, a.sessions[a.cursor].ID)
			}
			return a, nil
		case "k", "up":
			if a.cursor > 0 {
				a.cursor--
				return a, loadEntriesCmd(a.log, a.sessions[a.cursor].ID)
			}
			return a, nil
		case "g":
			a.cursor = 0
			if len(a.sessions) > 0 {
				return a, loadEntriesCmd(a.log, a.sessions[0].ID)
			}
			return a, nil
		case "G":
			if len(a.sessions) > 0 {
				a.cursor = len(a.sessions) - 1
				return a, loadEntriesCmd(a.log, a.sessions[a.cursor].ID)
			}
			return a, nil
		case "r":
			a.status = ""
			return a, loadSessionsCmd(a.log)
		case "x":
			a.pending = confirmClear
			a.confirm = newConfirmForm("Clear all sessions?",
				"This deletes every recorded session and entry. It cannot be undone.",
				&a.confirmVal)
			return a, a.confirm.Init()
		case "u":
			a.pending = confirmUpload
			a.confirm = newConfirmForm("Upload all sessions?",
				"Sends every session's query trace to "+collector.NewClient(a.collectorURL).Endpoint()+".",
				&a.confirmVal)
			return a, a.confirm.Init()
		}
		return a, nil

	case sessionsLoadedMsg:
		a.sessions = msg.sessions
		a.loaded = true
		a.err = nil
		if a.cursor >= len(a.sessions) {
			a.cursor = len(a.sessions) - 1
		}
		if a.cursor < 0 {
			a.cursor = 0
		}
		if len(a.sessions) > 0 {
			return a, loadEntriesCmd(a.log, a.sessions[a.cursor].ID)
		}
		a.entries = nil
		return a, nil

	case entriesLoadedMsg:
		a.entriesFor = msg.sessionID
		a.entries = msg.entries
		return a, nil

	case clearedMsg:
		a.status = fmt.Sprintf("Cleared. Fresh session %d started.", msg.freshID)
		a.cursor = 0
		return a, loadSessionsCmd(a.log)

	case uploadDoneMsg:
		a.status = fmt.Sprintf("Uploaded %d session(s).", msg.sent)
		return a, nil

	case errMsg:
		a.err = msg.err
		a.loaded = true
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward everything else to an active confirm form (cursor blinks).
	if a.confirm != nil {
		return a.updateConfirm(msg)
	}

	return a, nil
}

func newConfirmForm(title, description string, value *bool) *huh.Form {
	*value = false
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(value),
		),
	)
}

func (a App) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.confirm = f
	}

	switch a.confirm.State {
	case huh.StateCompleted:
		action := a.pending
		confirmed := a.confirmVal
		a.confirm = nil
		a.pending = confirmNone
		if !confirmed {
			a.status = "Canceled."
			return a, nil
		}
		switch action {
		case confirmClear:
			a.status = "Clearing..."
			return a, clearCmd(a.log)
		case confirmUpload:
			a.status = "Uploading..."
			return a, uploadCmd(a.log, a.collectorURL)
		}
		return a, nil

	case huh.StateAborted:
		a.confirm = nil
		a.pending = confirmNone
		a.status = "Canceled."
		return a, nil
	}

	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols); qtrail needs %d.\n",
			a.width, minTerminalWidth)
	}
	if !a.loaded {
		return fmt.Sprintf("\n  %s Loading session log...\n", a.spinner.View())
	}
	if a.confirm != nil {
		return a.confirm.View()
	}
	return a.viewMain()
}

func (a App) viewMain() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)
	statusStyle := lipgloss.NewStyle().Foreground(t.Green)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  qtrail — session browser"))
	b.WriteString("\n\n")

	if a.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("  Error: %v", a.err)))
		b.WriteString("\n")
	}

	listWidth := a.width * 2 / 5
	left := a.viewSessions(listWidth)
	right := a.viewEntries(a.width - listWidth - 4)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n")

	if a.status != "" {
		b.WriteString(statusStyle.Render("  " + a.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("  j/k navigate · r refresh · u upload · x clear · q quit"))
	b.WriteString("\n")

	return b.String()
}

func (a App) viewSessions(width int) string {
	t := theme.Active
	selStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange)
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(width).
		Padding(0, 1)

	if len(a.sessions) == 0 {
		return panel.Render("no sessions")
	}

	now := time.Now()
	var rows []string
	for i, s := range a.sessions {
		line := fmt.Sprintf("session %-4d %3d entries  %s",
			s.ID, s.Entries, cli.FormatAge(s.StartedAt, now))
		if s.Pending > 0 {
			line += warnStyle.Render(fmt.Sprintf("  %d pending", s.Pending))
		}
		if i == a.cursor {
			rows = append(rows, selStyle.Render("> "+line))
		} else {
			rows = append(rows, rowStyle.Render("  "+line))
		}
	}
	return panel.Render(strings.Join(rows, "\n"))
}

func (a App) viewEntries(width int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	pendStyle := lipgloss.NewStyle().Foreground(t.Red)
	doneStyle := lipgloss.NewStyle().Foreground(t.Green)
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(width).
		Padding(0, 1)

	if len(a.entries) == 0 {
		return panel.Render(mutedStyle.Render("no entries in this session"))
	}

	queryWidth := width - 30
	if queryWidth < 12 {
		queryWidth = 12
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("session %d, newest first", a.entriesFor)))
	for _, e := range a.entries {
		marker := doneStyle.Render("·")
		if !e.Completed {
			marker = pendStyle.Render("!")
		}
		rows = append(rows, fmt.Sprintf("%s %s %s %s",
			marker,
			mutedStyle.Render(cli.FormatUnixTime(e.Time)),
			mutedStyle.Render(fmt.Sprintf("%-3s", e.Type)),
			rowStyle.Render(cli.TruncateQuery(e.Data, queryWidth)),
		))
	}
	return panel.Render(strings.Join(rows, "\n"))
}
