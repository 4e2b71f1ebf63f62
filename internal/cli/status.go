package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/quizimport/internal/client"
	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/service"
)

func newStatusCmd(g *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <job-token>",
		Short: "Show the status of an import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context(), args[0])
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("import not found: %s", args[0])
				}
				return fmt.Errorf("get status: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			printStatus(cmd, st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw status JSON")
	return cmd
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <job-token>",
		Short: "Poll an import until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			return watch(cmd, c, args[0], interval)
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "poll interval")
	return cmd
}

// watch prints a progress line whenever it changes and the full status once
// the job is terminal. A failed job is reported as an error.
func watch(cmd *cobra.Command, c *client.Client, jobToken string, interval time.Duration) error {
	var last string
	st, err := c.Wait(cmd.Context(), jobToken, interval, func(st *service.ImportStatus) {
		line := progressLine(st)
		if line != last {
			printf(cmd, "%s\n", line)
			last = line
		}
	})
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("import not found: %s", jobToken)
		}
		return fmt.Errorf("watch import: %w", err)
	}

	printStatus(cmd, st)
	if st.Status == domain.JobStatusFailed {
		return fmt.Errorf("import %s failed", jobToken)
	}
	return nil
}

func progressLine(st *service.ImportStatus) string {
	p := st.Progress
	return fmt.Sprintf("[%s] %d/%d chunks (%s%%), %d ok, %d failed",
		st.Status, p.Processed, p.Total, p.Percentage, p.Successful, p.Failed)
}

func printStatus(cmd *cobra.Command, st *service.ImportStatus) {
	printf(cmd, "Import: %s\n", st.ID)
	printf(cmd, "  Status: %s\n", st.Status)
	printf(cmd, "  Mode: %s\n", st.Mode)
	printf(cmd, "  Progress: %d/%d chunks (%s%%)\n", st.Progress.Processed, st.Progress.Total, st.Progress.Percentage)
	printf(cmd, "  Successful: %d  Failed: %d\n", st.Progress.Successful, st.Progress.Failed)
	printf(cmd, "  Imported questions: %d\n", st.ImportedCount)
	printf(cmd, "  Duration: %ss\n", st.Duration)
	if len(st.Errors) > 0 {
		printf(cmd, "\n  Errors (%d):\n", len(st.Errors))
		for _, e := range st.Errors {
			printf(cmd, "    - %s\n", e)
		}
	}
}
