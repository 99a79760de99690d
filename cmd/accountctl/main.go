package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_service/internal/session"
)

// accountctl is a small client for the account service built on the session
// manager: it keeps tokens in a file, restores the session on start and runs
// the same silent-refresh loop a long-lived client would.
func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "account service base URL")
		tokenFile = flag.String("tokens", defaultTokenPath(), "token storage file")
		email     = flag.String("email", "", "email for login")
		password  = flag.String("password", "", "password for login")
		watch     = flag.Bool("watch", false, "stay running with the periodic expiry check")
	)
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		fmt.Fprintln(os.Stderr, "usage: accountctl [flags] login|status|logout")
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := session.NewManager(
		log,
		session.NewFileTokenStore(*tokenFile),
		session.NewHTTPClient(*baseURL),
		60*time.Second,
		5*time.Minute,
	)

	mgr.Start(ctx)
	defer mgr.Stop()

	switch cmd {
	case "login":
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "login requires -email and -password")
			os.Exit(2)
		}

		if err := mgr.Login(ctx, *email, *password); err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}

		printState(mgr.State())

	case "status":
		printState(mgr.State())

	case "logout":
		mgr.Logout(ctx)
		fmt.Println("logged out")

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		os.Exit(2)
	}

	if *watch {
		fmt.Println("watching session, ctrl-c to stop")
		<-ctx.Done()
	}
}

func printState(s session.State) {
	if !s.IsAuthenticated || s.User == nil {
		fmt.Println("not authenticated")
		if s.Err != "" {
			fmt.Printf("last error: %s\n", s.Err)
		}
		return
	}

	fmt.Printf("authenticated as %s <%s> (role %s)\n", s.User.Name, s.User.Email, s.User.Role)
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".accountctl-tokens.json"
	}

	return home + "/.accountctl-tokens.json"
}
