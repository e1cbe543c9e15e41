// Package tui provides the terminal watch surface: live badge counts, the
// next-deadline countdown, and reminder popups rendered inline.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quadjournal/quad/internal/notify"
	"github.com/quadjournal/quad/internal/reminder"
	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	quadrantStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(30)

	urgentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	alertingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	notifyStyle    = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)
)

type keyMap struct {
	Check key.Binding
	Clear key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Check, k.Clear, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Check, k.Clear, k.Quit}}
}

var defaultKeys = keyMap{
	Check: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check reminders")),
	Clear: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss popup")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type fineTickMsg time.Time
type coarseTickMsg time.Time

// Model is the watch screen.
type Model struct {
	store  *store.Store
	engine *reminder.Engine

	coarseInterval time.Duration
	fineInterval   time.Duration

	now       time.Time
	badges    reminder.BadgeCounts
	target    *reminder.CountdownTarget
	lastBatch []notify.TaskSummary

	keys     keyMap
	help     help.Model
	quitting bool
}

// Option configures the model.
type Option func(*Model)

// WithIntervals overrides the badge and countdown refresh intervals.
func WithIntervals(coarse, fine time.Duration) Option {
	return func(m *Model) {
		if coarse > 0 {
			m.coarseInterval = coarse
		}
		if fine > 0 {
			m.fineInterval = fine
		}
	}
}

// NewModel creates the watch model.
func NewModel(s *store.Store, e *reminder.Engine, opts ...Option) Model {
	m := Model{
		store:          s,
		engine:         e,
		coarseInterval: reminder.DefaultCoarseInterval,
		fineInterval:   reminder.DefaultFineInterval,
		now:            time.Now(),
		keys:           defaultKeys,
		help:           help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refreshBadges(m.now)
	m.refreshCountdown(m.now)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fineTick(), m.coarseTick())
}

func (m Model) fineTick() tea.Cmd {
	return tea.Tick(m.fineInterval, func(t time.Time) tea.Msg {
		return fineTickMsg(t)
	})
}

func (m Model) coarseTick() tea.Cmd {
	return tea.Tick(m.coarseInterval, func(t time.Time) tea.Msg {
		return coarseTickMsg(t)
	})
}

func (m *Model) refreshBadges(now time.Time) {
	m.badges = reminder.EvaluateAll(m.store.AllTasksFlat(), now)
}

func (m *Model) refreshCountdown(now time.Time) {
	m.target = reminder.SelectNextCountdownTarget(m.store.AllTasksFlat(), now)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Check):
			// Manual check includes overdue tasks, unlike the timer path.
			if batch := m.engine.CheckNow(m.store.AllTasksFlat(), time.Now()); len(batch) > 0 {
				m.lastBatch = batch
			}
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.lastBatch = nil
			return m, nil
		}

	case fineTickMsg:
		m.now = time.Time(msg)
		m.refreshCountdown(m.now)
		if batch := m.engine.CheckAndNotify(m.store.AllTasksFlat(), m.now); len(batch) > 0 {
			m.lastBatch = batch
		}
		return m, m.fineTick()

	case coarseTickMsg:
		m.refreshBadges(time.Time(msg))
		return m, m.coarseTick()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("quad watch"))
	b.WriteString("\n\n")

	b.WriteString(m.quadrantGrid())
	b.WriteString("\n")

	b.WriteString(m.badgeLine())
	b.WriteString("\n")

	if m.target != nil {
		b.WriteString(countdownStyle.Render(m.target.Label(m.now)))
	} else {
		b.WriteString(dimStyle.Render("no upcoming deadlines"))
	}
	b.WriteString("\n\n")

	if len(m.lastBatch) > 0 {
		b.WriteString(m.notificationPopup())
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) quadrantGrid() string {
	cell := func(q task.Quadrant) string {
		tasks := m.store.Tasks(q)
		remaining := 0
		for _, t := range tasks {
			if !t.Completed {
				remaining++
			}
		}
		label := fmt.Sprintf("%s\n%d open / %d total", q.Label(), remaining, len(tasks))
		return quadrantStyle.Render(label)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		cell(task.QuadrantUrgentImportant),
		cell(task.QuadrantImportantNotUrgent),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		cell(task.QuadrantUrgentNotImportant),
		cell(task.QuadrantNotUrgentNotImportant),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func (m Model) badgeLine() string {
	parts := []string{}
	if n := m.badges.UrgentImportantOverdue + m.badges.UrgentImportantAlerting; n > 0 {
		parts = append(parts, urgentStyle.Render(fmt.Sprintf("urgent-important: %d", n)))
	}
	if n := m.badges.OtherOverdue + m.badges.OtherAlerting; n > 0 {
		parts = append(parts, alertingStyle.Render(fmt.Sprintf("other: %d", n)))
	}
	if len(parts) == 0 {
		return dimStyle.Render("nothing needs attention")
	}
	return strings.Join(parts, "  ")
}

func (m Model) notificationPopup() string {
	var b strings.Builder
	b.WriteString("deadline reminders\n")
	for _, s := range m.lastBatch {
		switch {
		case s.DaysLeft < 0:
			b.WriteString(fmt.Sprintf("  %s — overdue\n", s.Title))
		case s.DaysLeft == 0:
			b.WriteString(fmt.Sprintf("  %s — due today\n", s.Title))
		default:
			b.WriteString(fmt.Sprintf("  %s — due in %d day(s)\n", s.Title, s.DaysLeft))
		}
	}
	return notifyStyle.Render(strings.TrimRight(b.String(), "\n"))
}
