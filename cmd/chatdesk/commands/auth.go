// ABOUTME: Account commands: login, logout, register, and whoami
// ABOUTME: The logged-in user is remembered in the charm profile store
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harper/chatdesk/internal/models"
)

var (
	loginPassword    string
	registerPassword string
	registerRole     string
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the user",
		Long: `Log in with the backend and remember the user for later commands.

The password is prompted for unless --password is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runLogin,
	}

	cmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password := loginPassword
	if password == "" {
		password, err = readPassword(cmd)
		if err != nil {
			return err
		}
	}

	user, err := a.client.Login(cmd.Context(), username, password)
	if err != nil {
		return err
	}

	store, err := openProfile(a.cfg)
	if err != nil {
		return fmt.Errorf("opening profile store: %w", err)
	}
	defer store.Close()
	if err := store.SaveUser(user); err != nil {
		return fmt.Errorf("saving login: %w", err)
	}

	log.Debug().Str("username", user.Username).Str("role", user.Role).Msg("Logged in")
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Username, roleName(user))
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := openProfile(a.cfg)
			if err != nil {
				return fmt.Errorf("opening profile store: %w", err)
			}
			defer store.Close()
			if err := store.ClearUser(); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			}
			return nil
		},
	}
}

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New("username cannot be empty")
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			password := registerPassword
			if password == "" {
				password, err = readPassword(cmd)
				if err != nil {
					return err
				}
			}

			if err := a.client.Register(cmd.Context(), username, password, registerRole); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s; run 'chatdesk login %s' to start\n", username, username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&registerRole, "role", "", "Account role, e.g. admin (backend default when omitted)")

	return cmd
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which user commands run as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			name, err := a.username()
			if err != nil {
				return err
			}

			role := ""
			if saved, ok, err := a.savedUser(); err == nil && ok && saved.Username == name {
				role = saved.Role
			}

			if wantJSON(cmd) {
				return printJSON(cmd.OutOrStdout(), models.User{Username: name, Role: role})
			}
			if role == "" {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", name, role)
			}
			return nil
		},
	}
}

func roleName(u models.User) string {
	if u.Role == "" {
		return "user"
	}
	return u.Role
}

// readPassword prompts on stderr; terminal input is not echoed
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}
