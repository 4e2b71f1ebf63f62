package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/quizimport/internal/api"
)

type submitOptions struct {
	file     string
	mode     string
	bank     string
	watch    bool
	interval time.Duration
}

func newSubmitCmd(g *globalOptions) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit --file <path>",
		Short: "Submit question text for import",
		Long: `Submit a text file of questions for import.

The server splits the text into chunks, extracts questions from each chunk
and stores them in the question bank. Use "-" to read from stdin.

Examples:
  quizctl submit --file questions.txt
  quizctl submit --file questions.txt --mode replace --bank physics
  cat questions.txt | quizctl submit --file - --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSubmit(cmd, g, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", `file with question text ("-" for stdin)`)
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "add", "import mode: add or replace")
	cmd.Flags().StringVarP(&opts.bank, "bank", "b", "", "question bank ID")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "wait for the import to finish")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "poll interval with --watch")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runSubmit(cmd *cobra.Command, g *globalOptions, opts *submitOptions) error {
	content, err := readContent(cmd, opts.file)
	if err != nil {
		return err
	}

	c, err := g.client()
	if err != nil {
		return err
	}

	resp, err := c.Submit(cmd.Context(), api.ImportRequest{
		Content: content,
		Mode:    opts.mode,
		BankID:  opts.bank,
	})
	if err != nil {
		return fmt.Errorf("submit import: %w", err)
	}

	printf(cmd, "Import queued: %s (mode %s)\n", resp.JobToken, resp.Mode)
	if !opts.watch {
		return nil
	}
	return watch(cmd, c, resp.JobToken, opts.interval)
}

func readContent(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
