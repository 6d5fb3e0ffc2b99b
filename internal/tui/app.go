// Package tui provides the interactive Bubble Tea dashboard for networth.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
	"github.com/sahilbhatiani/net-worth-tracker/internal/state"
	"github.com/sahilbhatiani/net-worth-tracker/internal/syncer"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/components"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

const (
	tabOverview = iota
	tabEntries
	tabTarget
	tabAccount
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5 // minimum content area height
)

type statusKind = components.StatusKind

const (
	statusInfo  = components.StatusInfo
	statusOK    = components.StatusOK
	statusError = components.StatusError
)

// SyncStatus reports the sync gateway's state.
type SyncStatus interface {
	Status() syncer.Status
}

// Options wires the dashboard to the running application. Sync, Session and
// Accounts may be nil; the Account tab then only shows guest mode.
type Options struct {
	State     *state.State
	Bus       *Bus
	Sync      SyncStatus
	Session   SessionControl
	Accounts  Accounts
	Config    config.Config
	NeedSetup bool
	// Today overrides the current date, for tests.
	Today func() model.Date
}

// App is the root Bubble Tea model.
type App struct {
	st       *state.State
	bus      *Bus
	sync     SyncStatus
	session  SessionControl
	accounts Accounts
	cfg      config.Config
	today    func() model.Date

	// Derived on every state change
	doc    model.Document
	stats  pipeline.Statistics
	status syncer.Status

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	entries   entriesState

	// Open huh form, if any
	form     *huh.Form
	formKind formKind
	vals     *formValues

	signingIn bool
	spinner   spinner.Model

	message     string
	messageKind statusKind
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	today := opts.Today
	if today == nil {
		today = model.Today
	}

	a := App{
		st:       opts.State,
		bus:      opts.Bus,
		sync:     opts.Sync,
		session:  opts.Session,
		accounts: opts.Accounts,
		cfg:      opts.Config,
		today:    today,
		vals:     &formValues{},
		spinner:  sp,
	}
	if opts.NeedSetup {
		a.openForm(formSetup)
	}
	a.refresh()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.bus != nil {
		cmds = append(cmds, a.bus.wait())
	}
	if a.form != nil {
		cmds = append(cmds, a.form.Init())
	}
	return tea.Batch(cmds...)
}

// refresh re-reads state and sync status.
func (a *App) refresh() {
	if a.st != nil {
		a.doc = a.st.Snapshot()
	}
	a.stats = pipeline.ComputeStats(a.doc.Entries, a.doc.TargetSettings)
	if a.sync != nil {
		a.status = a.sync.Status()
	}
	a.clampEntriesCursor()
}

func (a *App) setMessage(msg string, kind statusKind) {
	a.message = msg
	a.messageKind = kind
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		a.clampEntriesCursor()
		return a, nil

	case StateChangedMsg:
		a.refresh()
		return a, a.waitBus()

	case SyncedMsg:
		a.refresh()
		a.status = msg.Status
		return a, a.waitBus()

	case SyncErrorMsg:
		a.refresh()
		a.setMessage("Sync failed: "+msg.Err.Error(), statusError)
		return a, a.waitBus()

	case AuthChangedMsg:
		a.refresh()
		if msg.SignedIn {
			a.setMessage("Signed in as "+a.status.Identity.String(), statusOK)
		} else {
			a.setMessage("Signed out", statusInfo)
		}
		return a, a.waitBus()

	case signInDoneMsg:
		a.signingIn = false
		a.refresh()
		if msg.err != nil {
			a.setMessage("Sign-in failed: "+msg.err.Error(), statusError)
		} else {
			a.setMessage("Signed in as "+msg.email, statusOK)
		}
		return a, nil

	case spinner.TickMsg:
		if a.signingIn {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || a.form != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabEntries {
				a.moveEntriesCursor(-1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabEntries {
				a.moveEntriesCursor(1)
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	// Cursor blinks and other internal messages belong to the open form.
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) waitBus() tea.Cmd {
	if a.bus == nil {
		return nil
	}
	return a.bus.wait()
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// An open form intercepts all keys
	if a.form != nil {
		return a.updateForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.message = ""

	switch a.activeTab {
	case tabEntries:
		if m, cmd, ok := a.updateEntriesKey(key); ok {
			return m, cmd
		}
	case tabTarget:
		if m, cmd, ok := a.updateTargetKey(key); ok {
			return m, cmd
		}
	case tabAccount:
		if m, cmd, ok := a.updateAccountKey(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "n":
		return a, a.openForm(formEntry)
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a *App) openForm(kind formKind) tea.Cmd {
	switch kind {
	case formEntry:
		a.form = newEntryForm(a.vals, a.today())
	case formTarget:
		a.form = newTargetForm(a.vals, model.TargetDefaults(a.doc.TargetSettings, a.doc.Entries, a.today()))
	case formLogin:
		a.form = newLoginForm(a.vals, a.cfg.Sync.ServerURL)
	case formSetup:
		a.form = newSetupForm(a.vals, a.cfg)
	default:
		return nil
	}
	a.formKind = kind
	if a.width > 0 {
		a.form = a.form.WithWidth(a.formWidth())
	}
	return a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.closeForm()
		switch kind {
		case formEntry:
			a.submitEntry()
		case formTarget:
			a.submitTarget()
		case formLogin:
			return a, a.submitLogin()
		case formSetup:
			a.submitSetup()
		}
		return a, nil
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
}

func (a App) formWidth() int {
	return min(a.width-8, 60)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) entryLabel(e model.Entry) string {
	return cli.FormatCurrencyCents(e.Amount) + " on " + e.Date.String()
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  networth needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewForm() string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	body := a.form.View() + "\n" + hintStyle.Render("enter next · esc cancel")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o e t a", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in the entry list"},
			{"g G", "First / Last entry"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"n", "New snapshot"},
			{"d", "Delete selected entry (Entries)"},
			{"s c", "Set / Clear target (Target)"},
			{"l L", "Sign in / Sign out (Account)"},
			{"Esc", "Cancel form"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + summary line
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	summary := pillStyle.Render(" ") +
		accentStyle.Render(cli.FormatValue(a.stats.Current)) +
		pillStyle.Render(" │ "+cli.FormatEntryCount(a.stats.Entries)+" ")
	header := components.RenderTabBar(a.activeTab, w) +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(summary)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.message, a.messageKind, a.syncLabel())

	// 3. Content zone
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabEntries:
		content = a.renderEntriesTab(cw, contentH)
	case tabTarget:
		content = a.renderTargetTab(cw)
	case tabAccount:
		content = a.renderAccountTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
