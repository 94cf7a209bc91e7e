// token issues a bearer token for the scene browser API, signed with the
// configured AUTH_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robert-malhotra/scene-browser/internal/auth"
	"github.com/robert-malhotra/scene-browser/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("sub", "", "user id (required)")
	email := fs.String("email", "", "user email")
	name := fs.String("name", "", "display name")
	ttl := fs.Duration("ttl", 0, "token lifetime (default AUTH_TOKEN_TTL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is not set")
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	m, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, lifetime)
	if err != nil {
		return err
	}

	token, exp, err := m.IssueToken(auth.User{Subject: *subject, Email: *email, Name: *name})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
	fmt.Println(token)
	return nil
}
