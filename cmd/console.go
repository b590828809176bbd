/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/watchdesk/console/config"
	"github.com/watchdesk/console/internal/console"
	"github.com/watchdesk/console/internal/console/api"
	"github.com/watchdesk/console/internal/console/session"
)

// newConsole wires the client side: token storage, API client, and the
// session store that ties them together.
func newConsole() (*session.Store, *api.Client, session.TokenStorage, error) {
	cfg := config.LoadConfig()

	storage, err := session.NewFileStorage(cfg.Client.TokenPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("token storage: %w", err)
	}

	client := api.NewClient(cfg.Client.ServerURL, api.WithTokenSource(func() (string, bool) {
		token, ok, err := storage.Load()
		if err != nil {
			return "", false
		}
		return token, ok
	}))

	store := session.NewStore(storage, client)
	return store, client, storage, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the console",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, storage, err := newConsole()
		if err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			password, err = promptSecret("password: ")
			if err != nil {
				return err
			}
		}

		result, err := client.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if err := storage.Save(result.AccessToken); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}

		fmt.Printf("logged in as %s %s (%s)\n",
			result.User.FirstName, result.User.LastName, result.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the console",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, _, err := newConsole()
		if err != nil {
			return err
		}
		store.Logout()
		fmt.Println("logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, _, err := newConsole()
		if err != nil {
			return err
		}

		store.Initialize(cmd.Context())
		user, ok := store.CurrentUser()
		if !ok {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("%s %s <%s> role=%s\n", user.FirstName, user.LastName, user.Email, user.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the bootstrap super admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, storage, err := newConsole()
		if err != nil {
			return err
		}

		params := api.RegisterParams{}
		params.FirstName, _ = cmd.Flags().GetString("first-name")
		params.LastName, _ = cmd.Flags().GetString("last-name")
		params.Email, _ = cmd.Flags().GetString("email")
		params.Password, _ = cmd.Flags().GetString("password")
		params.SecurityCode, _ = cmd.Flags().GetString("security-code")

		if params.Password == "" {
			params.Password, err = promptSecret("password: ")
			if err != nil {
				return err
			}
		}

		result, err := client.Register(cmd.Context(), params)
		if err != nil {
			return err
		}
		if err := storage.Save(result.AccessToken); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}

		fmt.Printf("registered %s as %s\n", result.User.Email, result.User.Role)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <view>",
	Short: "Open a console view",
	Long: `Open a console view. Known views:

	` + strings.Join(console.Names(), ", ") + `
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, client, _, err := newConsole()
		if err != nil {
			return err
		}
		return console.Open(cmd.Context(), store, client, args[0], os.Stdout)
	},
}

func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when omitted)")

	registerCmd.Flags().String("first-name", "", "given name")
	registerCmd.Flags().String("last-name", "", "family name")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password (prompted when omitted)")
	registerCmd.Flags().String("security-code", "", "registration security code")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd, openCmd)
}
