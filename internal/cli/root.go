// Package cli provides the quizctl command-line interface for submitting
// question imports and following their progress.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/quizimport/internal/client"
)

// Version is set at build time.
var Version = "0.1.0"

// Environment variables read for flag defaults.
const (
	EnvServer = "QUIZ_SERVER"
	EnvToken  = "QUIZ_TOKEN"
)

const defaultServer = "http://localhost:8080"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	server  string
	token   string
	timeout time.Duration

	// httpClient overrides the transport in tests.
	httpClient *http.Client
}

func (o *globalOptions) client() (*client.Client, error) {
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}
	return client.New(o.server, o.token, httpClient)
}

// NewRootCmd builds the quizctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	return newRootCmd(out, nil)
}

func newRootCmd(out io.Writer, httpClient *http.Client) *cobra.Command {
	opts := &globalOptions{httpClient: httpClient}

	rootCmd := &cobra.Command{
		Use:   "quizctl",
		Short: "Submit question imports and follow their progress",
		Long: `quizctl talks to the quiz import server.

Imports run in the background on the server: submit returns a job token
right away and status or watch report how far the job has come.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr(EnvServer, defaultServer), "import server base URL")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(EnvToken), "bearer token for the import API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")

	rootCmd.AddCommand(
		newSubmitCmd(opts),
		newStatusCmd(opts),
		newWatchCmd(opts),
		newTokenCmd(),
	)
	return rootCmd
}

// Execute runs quizctl with os.Args. SIGINT and SIGTERM cancel the command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(os.Stdout).ExecuteContext(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
