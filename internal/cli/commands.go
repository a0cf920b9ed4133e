package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/treykane/gamblebot/internal/credentials"
	"github.com/treykane/gamblebot/internal/doctor"
	"github.com/treykane/gamblebot/internal/events"
	"github.com/treykane/gamblebot/internal/prompt"
	"github.com/treykane/gamblebot/internal/stats"
	"github.com/treykane/gamblebot/internal/util"
)

// errDoctorHigh makes `doctor` exit non-zero when the bot could not start.
var errDoctorHigh = errors.New("doctor found high severity issues")

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show gamble statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := stats.NewDefaultStore()
			if err != nil {
				return err
			}
			st, err := store.Load()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(st)
			}
			fmt.Printf("attempts=%d wins=%d losses=%d players=%d\n", st.TotalAttempts, st.TotalWins, st.TotalLosses, len(st.PerUser))
			fmt.Printf("%-24s %-8s %-8s\n", "USER", "WINS", "LOSSES")
			for _, r := range stats.Rows(st) {
				fmt.Printf("%-24s %-8d %-8d\n", r.UserID, r.Wins, r.Losses)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset all statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := prompt.NewConsole().Confirm("Reset all statistics?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("reset cancelled")
					return nil
				}
			}
			store, err := stats.NewDefaultStore()
			if err != nil {
				return err
			}
			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Println("statistics reset")
			return nil
		},
	}
	reset.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	cmd.AddCommand(reset)
	return cmd
}

func newEventsCmd() *cobra.Command {
	var (
		jsonOut bool
		limit   int
		typ     string
		attempt string
		since   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the connection event journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := events.NewDefaultStore()
			if err != nil {
				return err
			}
			q := events.Query{AttemptID: attempt, EventType: typ, Limit: limit}
			if since > 0 {
				q.Since = time.Now().Add(-since)
			}
			evts, err := store.Read(q)
			if err != nil {
				return err
			}
			if jsonOut {
				if evts == nil {
					evts = []events.Event{}
				}
				return printJSON(evts)
			}
			fmt.Printf("%-20s %-16s %-8s %-36s %s\n", "TIME", "EVENT", "KIND", "ATTEMPT", "MESSAGE")
			for _, e := range evts {
				fmt.Printf("%-20s %-16s %-8s %-36s %s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.EventType,
					util.EmptyDash(e.Kind),
					util.EmptyDash(e.AttemptID),
					e.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	cmd.Flags().IntVar(&limit, "limit", 50, "show at most N most recent events (0 for all)")
	cmd.Flags().StringVar(&typ, "type", "", "filter by event type (e.g. timed_out, session_dropped)")
	cmd.Flags().StringVar(&attempt, "attempt", "", "filter by attempt id")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this duration (e.g. 1h)")
	return cmd
}

func newDoctorCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check local configuration and stored records",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := doctor.Run()
			if err != nil {
				return err
			}
			if jsonOut {
				if err := printJSON(report); err != nil {
					return err
				}
			} else if len(report.Issues) == 0 {
				fmt.Println("no issues found")
			} else {
				for _, issue := range report.Issues {
					fmt.Printf("[%s] %s %s: %s\n", strings.ToUpper(string(issue.Severity)), issue.Check, issue.Target, issue.Message)
					fmt.Printf("    -> %s\n", issue.Recommendation)
				}
			}
			if report.HasHigh() {
				return errDoctorHigh
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func newTokenCmd() *cobra.Command {
	root := &cobra.Command{Use: "token", Short: "Manage the stored bot token"}

	set := &cobra.Command{
		Use:   "set",
		Short: "Prompt for a bot token and save it without connecting",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentials.NewDefaultStore()
			if err != nil {
				return err
			}
			if _, _, err := creds.Load(); err != nil {
				return err
			}
			tok, err := creds.PromptAndSave(prompt.NewConsole())
			if err != nil {
				return err
			}
			fmt.Printf("token saved (%s)\n", util.MaskSecret(tok))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the stored token (masked) and command prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentials.NewDefaultStore()
			if err != nil {
				return err
			}
			rec, ok, err := creds.Load()
			if err != nil {
				return err
			}
			token := "(none)"
			if ok {
				token = util.MaskSecret(rec.Token)
			}
			fmt.Printf("token:  %s\nprefix: %s\nfile:   %s\n", token, rec.CommandPrefix, creds.Path())
			return nil
		},
	}

	root.AddCommand(set, show)
	return root
}
