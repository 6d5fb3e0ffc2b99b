package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/components"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

func (a App) updateAccountKey(key string) (App, tea.Cmd, bool) {
	switch key {
	case "l":
		if a.signingIn || a.accounts == nil || a.session == nil {
			return a, nil, true
		}
		if _, ok := a.session.Current(); ok {
			return a, nil, true
		}
		return a, a.openForm(formLogin), true
	case "L":
		if a.session == nil {
			return a, nil, true
		}
		if err := a.session.SignOut(); err != nil {
			a.setMessage("Sign-out failed: "+err.Error(), statusError)
		}
		a.refresh()
		return a, nil, true
	case "S":
		return a, a.openForm(formSetup), true
	}
	return a, nil, false
}

// syncLabel is the right-hand side of the status bar.
func (a App) syncLabel() string {
	switch {
	case a.signingIn:
		return a.spinner.View() + " signing in"
	case !a.status.SignedIn:
		return "guest · local only"
	case a.status.LastError != "":
		return "● sync error"
	case a.status.Pending > 0:
		return fmt.Sprintf("● syncing (%d)", a.status.Pending)
	case a.status.LastSync.IsZero():
		return "● " + a.status.Identity.String()
	default:
		return "● synced " + humanize.Time(a.status.LastSync)
	}
}

func (a App) renderAccountTab(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-14s", label)) + value
	}

	server := a.cfg.Sync.ServerURL
	if server == "" {
		server = "not configured"
	}

	var b strings.Builder
	st := a.status
	if st.SignedIn {
		b.WriteString(row("Signed in", okStyle.Render(st.Identity.String())))
		b.WriteString("\n")
		b.WriteString(row("User ID", valueStyle.Render(st.Identity.UID)))
		b.WriteString("\n")
		last := "never"
		if !st.LastSync.IsZero() {
			last = humanize.Time(st.LastSync)
		}
		b.WriteString(row("Last sync", valueStyle.Render(last)))
		b.WriteString("\n")
		b.WriteString(row("Pending", valueStyle.Render(fmt.Sprintf("%d writes", st.Pending))))
		b.WriteString("\n")
	} else {
		b.WriteString(row("Mode", valueStyle.Render("Guest")))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Changes stay on this machine. Sign in to keep them in your sync account."))
		b.WriteString("\n")
	}
	b.WriteString(row("Server", valueStyle.Render(server)))
	b.WriteString("\n")
	b.WriteString(row("Live updates", valueStyle.Render(onOff(a.cfg.Sync.LiveUpdates))))
	b.WriteString("\n")
	b.WriteString(row("Local cache", valueStyle.Render(a.cfg.CachePath())))
	b.WriteString("\n")
	b.WriteString(row("Config", valueStyle.Render(config.ConfigPath())))
	if st.LastError != "" {
		b.WriteString("\n\n")
		b.WriteString(errStyle.Render("Last error: " + truncStr(st.LastError, cw-20)))
	}

	var hints []string
	switch {
	case a.signingIn:
		hints = append(hints, a.spinner.View()+" signing in…")
	case st.SignedIn:
		hints = append(hints, "L sign out")
	case a.accounts != nil:
		hints = append(hints, "l sign in / register")
	default:
		hints = append(hints, "set sync.server_url to enable sign-in")
	}
	hints = append(hints, "S setup")

	return components.ContentCard("Account", b.String(), cw) + "\n" +
		dimStyle.Render(" "+strings.Join(hints, " · "))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
