package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/remote"
)

const envPassword = "NETWORTH_PASSWORD"

var (
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the sync server",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runLogin(false)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account on the sync server and sign in",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runLogin(true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&flagEmail, "email", "", "Account email")
		c.Flags().StringVar(&flagPassword, "password", "", "Account password (default $"+envPassword+" or prompt)")
	}
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func runLogin(register bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Sync.ServerURL == "" {
		return errNoServer
	}
	client, err := remote.NewClient(cfg.Sync.ServerURL)
	if err != nil {
		return err
	}
	session, err := auth.OpenSession(config.CredentialsPath())
	if err != nil {
		return err
	}

	email, password, err := promptCredentials(client.BaseURL(), register)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if register {
		if err := client.Register(ctx, email, password); err != nil {
			if errors.Is(err, remote.ErrConflict) {
				return fmt.Errorf("an account for %s already exists; use `networth login`", email)
			}
			return fmt.Errorf("registering: %w", err)
		}
		progressf("Registered %s", email)
	}

	creds, err := client.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			return errors.New("wrong email or password")
		}
		return fmt.Errorf("signing in: %w", err)
	}
	if err := session.SignIn(creds); err != nil {
		return err
	}
	fmt.Printf("  Signed in as %s on %s\n", creds.Email, client.BaseURL())
	return nil
}

// promptCredentials fills in whatever the flags and environment left out.
func promptCredentials(server string, register bool) (email, password string, err error) {
	email = strings.TrimSpace(flagEmail)
	password = flagPassword
	if password == "" {
		password = os.Getenv(envPassword)
	}
	if email != "" && password != "" {
		return email, password, nil
	}

	title := "Sign in to " + server
	if register {
		title = "Create an account on " + server
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter an email address")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}),
	).Title(title))
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(email), password, nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	session, err := auth.OpenSession(config.CredentialsPath())
	if err != nil {
		return err
	}
	id, wasIn := session.Current()
	if err := session.SignOut(); err != nil {
		return err
	}
	if wasIn {
		fmt.Printf("  Signed out %s\n", id)
	} else {
		fmt.Println("  Not signed in")
	}
	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	session, err := auth.OpenSession(config.CredentialsPath())
	if err != nil {
		return err
	}
	id, ok := session.Current()
	if !ok {
		fmt.Println("  Guest (not signed in)")
		return nil
	}
	fmt.Printf("  %s\n", id)
	fmt.Printf("  User ID: %s\n", id.UID)
	if id.Server != "" {
		fmt.Printf("  Server:  %s\n", id.Server)
	}
	return nil
}
