package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-board/internal/auth"
	"github.com/Makepad-fr/tada-board/internal/ui"
)

const authUsage = "todo auth <login|logout|status|whoami>"

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token sent to the backend",
		Args:  noArgs(authUsage),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageError{"usage: " + authUsage}
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "login",
		Short: "Save a token (read from stdin)",
		Args:  noArgs("todo auth login"),
		RunE:  func(cmd *cobra.Command, args []string) error { return app.authLogin() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Delete the saved token",
		Args:  noArgs("todo auth logout"),
		RunE:  func(cmd *cobra.Command, args []string) error { return app.authLogout() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  noArgs("todo auth status"),
		RunE:  func(cmd *cobra.Command, args []string) error { return app.authStatus() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Print the token's JWT claims (not verified)",
		Args:  noArgs("todo auth whoami"),
		RunE:  func(cmd *cobra.Command, args []string) error { return app.authWhoAmI() },
	})
	return cmd
}

func (a *App) authLogin() error {
	fmt.Fprint(a.out, "Paste your token: ")
	sc := bufio.NewScanner(a.in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		return usageError{"no token given"}
	}
	fmt.Fprintln(a.out)
	ti, err := auth.SetToken(sc.Text())
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	msg := "logged in"
	if ti.ExpiresAt != nil {
		msg += " (expires " + ti.ExpiresAt.Format(time.RFC3339) + ")"
	}
	ui.OK(a.out, msg)
	return nil
}

func (a *App) authLogout() error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK(a.out, "token is provided by "+auth.EnvToken+" env var (nothing to delete)")
		return nil
	}
	if err := auth.DeleteToken(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	ui.OK(a.out, "logged out")
	return nil
}

func (a *App) authStatus() error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	if ti == nil {
		fmt.Fprintln(a.out, ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(a.out, "Run: todo auth login")
		return nil
	}
	fmt.Fprintf(a.out, "source: %s\n", ti.Source)
	switch {
	case ti.ExpiresAt == nil:
		fmt.Fprintln(a.out, "expires: (unknown)")
	case ti.ExpiresAt.Before(time.Now()):
		fmt.Fprintf(a.out, "expires: %s %s\n", ti.ExpiresAt.Format(time.RFC3339), ui.C(ui.Current().Error, "(expired)"))
	default:
		fmt.Fprintf(a.out, "expires: %s\n", ti.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Fprintln(a.out, "env override: "+auth.EnvToken)
	return nil
}

func (a *App) authWhoAmI() error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	if ti == nil || strings.TrimSpace(ti.Token) == "" {
		return usageError{"not logged in. Run: todo auth login"}
	}
	claims, err := auth.Claims(ti.Token)
	if err != nil {
		fmt.Fprintln(a.out, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(a.out, "source:", ti.Source)
		return nil
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	fmt.Fprintln(a.out, "JWT payload:")
	fmt.Fprintln(a.out, string(b))
	return nil
}
