package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/auth"
	"github.com/abhisek/lingo/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthFlow(cmd, auth.Login, "Logged in as %s\n")
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthFlow(cmd, auth.Register, "Account created. Logged in as %s\n")
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := openCredentials()
		if err != nil {
			return err
		}
		if err := creds.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, creds, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		acct, err := client.Me(cmd.Context())
		if err != nil {
			return forgetOnUnauthorized(creds, err)
		}

		out := cmd.OutOrStdout()
		plan := "free"
		if acct.Premium {
			plan = "premium"
		}
		fmt.Fprintf(out, "Email:   %s\n", acct.Email)
		fmt.Fprintf(out, "Plan:    %s\n", plan)
		fmt.Fprintf(out, "Server:  %s\n", client.BaseURL())
		if exp, ok := api.TokenExpiry(creds.Token()); ok {
			fmt.Fprintf(out, "Expires: %s\n", exp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("email", "", "Account email (prompted when empty)")
		c.Flags().Bool("password-stdin", false, "Read the password from stdin")
	}
}

type authFlow func(ctx context.Context, a auth.Authenticator, f *auth.File, email, password string) error

// runAuthFlow prompts for missing credentials and runs flow against the
// configured server.
func runAuthFlow(cmd *cobra.Command, flow authFlow, done string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	creds, err := openCredentials()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, creds, nil)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	password, err := readPassword(in, out, fromStdin)
	if err != nil {
		return err
	}

	if err := flow(cmd.Context(), client, creds, email, password); err != nil {
		return err
	}
	fmt.Fprintf(out, done, creds.Email())
	return nil
}

// readPassword reads without echo from a terminal, or a plain line
// otherwise.
func readPassword(in *bufio.Reader, out io.Writer, fromStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !fromStdin && term.IsTerminal(fd) {
		fmt.Fprint(out, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// loggedInClient returns a client for the stored credentials, failing
// early when there are none or the token has expired.
func loggedInClient(cmd *cobra.Command) (config.Config, *api.Client, *auth.File, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	creds, err := openCredentials()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if err := creds.Check(time.Now()); err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("%w: run `lingo login` first", err)
	}
	client, err := newClient(cfg, creds, nil)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, client, creds, nil
}

// forgetOnUnauthorized clears the stored token when the server rejected it.
func forgetOnUnauthorized(creds *auth.File, err error) error {
	if !errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	_ = creds.Clear()
	return fmt.Errorf("%w: run `lingo login`", err)
}
