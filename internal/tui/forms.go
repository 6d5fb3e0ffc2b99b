package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

type formKind int

const (
	formNone formKind = iota
	formEntry
	formTarget
	formLogin
	formSetup
)

// formValues backs whichever huh form is open. It lives behind a pointer so
// the bindings survive App being copied by value on every Update.
type formValues struct {
	// entry
	amount string
	date   string
	notes  string

	// target
	savings     string
	startDate   string
	startAmount string

	// sign-in
	email    string
	password string
	register bool

	// setup
	theme       string
	serverURL   string
	liveUpdates bool
}

// signInDoneMsg is sent when a sign-in attempt finishes.
type signInDoneMsg struct {
	email string
	err   error
}

func newEntryForm(v *formValues, today model.Date) *huh.Form {
	*v = formValues{date: today.String()}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Net worth").
				Placeholder("125000").
				Value(&v.amount),
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&v.date),
			huh.NewInput().
				Title("Notes").
				Placeholder("optional").
				Value(&v.notes),
		).Title("New snapshot"),
	).WithShowHelp(false)
}

func newTargetForm(v *formValues, d model.TargetFormDefaults) *huh.Form {
	*v = formValues{savings: d.AnnualSavings, startDate: d.StartDate, startAmount: d.StartAmount}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Annual savings").
				Placeholder("12000").
				Value(&v.savings),
			huh.NewInput().
				Title("Start date").
				Description("YYYY-MM-DD").
				Value(&v.startDate),
			huh.NewInput().
				Title("Start amount").
				Value(&v.startAmount),
		).Title("Savings target"),
	).WithShowHelp(false)
}

func newLoginForm(v *formValues, server string) *huh.Form {
	*v = formValues{}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&v.email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.password),
			huh.NewConfirm().
				Title("Create a new account?").
				Affirmative("Register").
				Negative("Sign in").
				Value(&v.register),
		).Title("Sign in to " + server),
	).WithShowHelp(false)
}

func newSetupForm(v *formValues, cfg config.Config) *huh.Form {
	*v = formValues{
		theme:       cfg.Appearance.Theme,
		serverURL:   cfg.Sync.ServerURL,
		liveUpdates: cfg.Sync.LiveUpdates,
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to networth").
				Description("Track net worth snapshots against a savings target.\nNothing leaves this machine unless you sign in to a sync server."),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.theme),
			huh.NewInput().
				Title("Sync server URL").
				Description("Leave blank to stay local-only.").
				Placeholder("http://127.0.0.1:8787").
				Value(&v.serverURL),
			huh.NewConfirm().
				Title("Follow remote changes live?").
				Value(&v.liveUpdates),
		),
	).WithShowHelp(false)
}

// submitEntry records the entry form. Invalid input is dropped silently.
func (a *App) submitEntry() {
	e, err := model.ParseEntry(a.vals.amount, a.vals.date, a.vals.notes)
	if err != nil {
		return
	}
	a.st.AddEntry(e)
	a.setMessage("Added "+a.entryLabel(e), statusOK)
}

// submitTarget stores the target form. Invalid input is dropped silently.
func (a *App) submitTarget() {
	t, err := model.ParseTarget(a.vals.savings, a.vals.startDate, a.vals.startAmount)
	if err != nil {
		return
	}
	a.st.SetTarget(t)
	a.setMessage("Target saved", statusOK)
}

// submitLogin starts a sign-in in the background. Blank fields abort.
func (a *App) submitLogin() tea.Cmd {
	email := strings.TrimSpace(a.vals.email)
	if email == "" || a.vals.password == "" || a.accounts == nil || a.session == nil {
		return nil
	}
	a.signingIn = true
	return tea.Batch(a.spinner.Tick, signInCmd(a.accounts, a.session, email, a.vals.password, a.vals.register))
}

func (a *App) submitSetup() {
	a.cfg.Appearance.Theme = a.vals.theme
	a.cfg.Sync.ServerURL = strings.TrimSpace(a.vals.serverURL)
	a.cfg.Sync.LiveUpdates = a.vals.liveUpdates
	theme.SetActive(a.cfg.Appearance.Theme)
	if err := config.Save(a.cfg); err != nil {
		a.setMessage("Could not save config: "+err.Error(), statusError)
		return
	}
	a.setMessage("Saved "+config.ConfigPath(), statusOK)
}

func signInCmd(acc Accounts, sess SessionControl, email, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if register {
			if err := acc.Register(ctx, email, password); err != nil {
				return signInDoneMsg{err: fmt.Errorf("registering: %w", err)}
			}
		}
		creds, err := acc.Login(ctx, email, password)
		if err != nil {
			return signInDoneMsg{err: err}
		}
		// Sign-in loads the remote document before returning.
		if err := sess.SignIn(creds); err != nil {
			return signInDoneMsg{err: err}
		}
		return signInDoneMsg{email: creds.Email}
	}
}

// Accounts creates and authenticates users on the sync server.
type Accounts interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (auth.Credentials, error)
}

// SessionControl is the signed-in identity and the actions that change it.
type SessionControl interface {
	Current() (auth.Identity, bool)
	SignIn(c auth.Credentials) error
	SignOut() error
}
