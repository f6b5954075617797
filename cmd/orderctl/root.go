package main

import (
	"fmt"
	"os"
	"path/filepath"

	"smartorder/client"
	"smartorder/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	email     string
	password  string
	statePath string
	logLevel  string

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:          "orderctl",
	Short:        "Track orders and leave feedback from the terminal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger.SetLevel(lvl)
		logger.SetOutput(os.Stderr)
		return nil
	},
}

func init() {
	home, _ := os.UserHomeDir()
	f := rootCmd.PersistentFlags()
	f.StringVar(&serverURL, "server", envOr("ORDERCTL_SERVER", "http://localhost:8000"), "API base URL")
	f.StringVar(&token, "token", os.Getenv("ORDERCTL_TOKEN"), "bearer token (omit for a guest session)")
	f.StringVar(&email, "email", "", "log in with this email instead of --token")
	f.StringVar(&password, "password", os.Getenv("ORDERCTL_PASSWORD"), "password for --email")
	f.StringVar(&statePath, "state", filepath.Join(home, ".orderctl.db"), "local state file")
	f.StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(orderCmd, watchCmd, feedbackCmd, statusCmd, reportCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// session is an API client plus the signed-in user, if any.
type session struct {
	api    *client.API
	userID *uint
}

func (s session) authenticated() bool { return s.userID != nil }

func newSession(cmd *cobra.Command) (session, error) {
	api := client.NewAPI(serverURL, logger)
	tok := token
	if email != "" {
		t, _, err := api.Login(cmd.Context(), email, password)
		if err != nil {
			return session{}, fmt.Errorf("login: %w", err)
		}
		tok = t
	}
	if tok == "" {
		return session{api: api}, nil
	}

	// the server verifies the signature; we only need the user id
	claims := &utils.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return session{}, fmt.Errorf("read token: %w", err)
	}
	uid := claims.UserID
	return session{api: api.WithToken(tok), userID: &uid}, nil
}

func openStore() (*client.GormStore, error) {
	return client.OpenGormStore(statePath)
}
