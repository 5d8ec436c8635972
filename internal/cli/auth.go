package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/minhng/focusgarden/internal/display"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication with the sync server",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the sync server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out from the sync server",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account on the sync server",
	RunE:  runRegister,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
}

func readLine(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	username := readLine("Username: ")
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := a.client.Login(username, password); err != nil {
		return err
	}
	fmt.Println(display.Success("Signed in"))

	// Sign-in triggers an immediate reconciliation so this device catches
	// up before the next local edit.
	res, ran := a.rec.Reconcile(context.Background())
	if ran {
		fmt.Println(display.Success(fmt.Sprintf("Synced (↓%d sessions)", res.PulledSessions)))
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	username := readLine("Username: ")
	email := readLine("Email: ")
	password, err := readPassword("Password (min 8 chars): ")
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if err := a.client.Register(username, email, password); err != nil {
		return err
	}
	fmt.Println(display.Success("Account created and signed in"))

	// First push seeds the remote store with local truth.
	a.rec.Reconcile(context.Background())
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.client.Logout(); err != nil {
		return err
	}
	fmt.Println(display.Success("Signed out"))
	return nil
}
