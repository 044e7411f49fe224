package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"twin-dashboard/internal/client"
	"twin-dashboard/pkg/authapi"
)

const usage = `twinctl - dashboard session CLI

Usage:
  twinctl login <email>      authenticate and store a session
  twinctl logout             drop the stored session
  twinctl whoami             show the authenticated user (server-verified)
  twinctl register <email>   create an account (does not log in)
  twinctl passwd             change the account password
  twinctl twins              list digital twins

Environment:
  TWIN_DASHBOARD_URL   API base URL (default http://localhost:8080)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	baseURL := os.Getenv("TWIN_DASHBOARD_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	sessionPath, err := client.DefaultSessionPath()
	if err != nil {
		return err
	}

	c, err := client.New(baseURL, client.NewFileStore(sessionPath))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "login":
		return login(ctx, c, args)
	case "logout":
		return c.Logout()
	case "whoami":
		return whoami(ctx, c)
	case "register":
		return register(ctx, c, args)
	case "passwd":
		return changePassword(ctx, c)
	case "twins":
		return listTwins(ctx, c)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func login(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: twinctl login <email>")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	user, err := c.Login(ctx, args[0], password)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

func whoami(ctx context.Context, c *client.Client) error {
	user, err := c.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s  role=%s active=%t\n", user.ID, user.Email, user.Role, user.IsActive)
	return nil
}

func register(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: twinctl register <email>")
	}

	fullName, err := promptLine("Full name: ")
	if err != nil {
		return err
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	user, err := c.Register(ctx, authapi.RegisterRequest{
		Email:    args[0],
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return err
	}

	fmt.Printf("registered %s, run `twinctl login %s` to sign in\n", user.Email, user.Email)
	return nil
}

func changePassword(ctx context.Context, c *client.Client) error {
	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}

	updated, err := promptPassword("New password: ")
	if err != nil {
		return err
	}

	if err := c.ChangePassword(ctx, current, updated); err != nil {
		return err
	}

	fmt.Println("password changed")
	return nil
}

func listTwins(ctx context.Context, c *client.Client) error {
	twins, err := c.Twins(ctx)
	if err != nil {
		return err
	}

	if len(twins) == 0 {
		fmt.Println("no twins")
		return nil
	}

	for _, twin := range twins {
		fmt.Printf("%s  %-20s  %s\n", twin.ID, twin.Name, twin.Status)
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
