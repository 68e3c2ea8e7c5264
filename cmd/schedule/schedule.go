package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

// ErrInvalidSchedule makes the process exit non-zero after the issues are printed.
var ErrInvalidSchedule = errors.New("schedule document is invalid")

func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Offline checks for schedule documents",
	}

	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewStatsCommand())

	return cmd
}

func NewValidateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a schedule document and list every issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, issues, err := load(cmd, file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "schedule is valid")
				return nil
			}
			printIssues(out, issues)
			return ErrInvalidSchedule
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Schedule document in JSON, - for stdin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func NewStatsCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print weekly hour totals for a schedule document",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, issues, err := load(cmd, file)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				printIssues(cmd.ErrOrStderr(), issues)
				return ErrInvalidSchedule
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schedule.ComputeStats(s))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Schedule document in JSON, - for stdin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func load(cmd *cobra.Command, file string) (*schedule.Schedule, []schedule.ValidationIssue, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read schedule: %w", err)
	}

	var doc schedule.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode schedule: %w", err)
	}
	s, issues := doc.ToSchedule()
	issues = append(issues, schedule.Validate(s)...)
	return s, issues, nil
}

func printIssues(w io.Writer, issues []schedule.ValidationIssue) {
	for _, i := range issues {
		fmt.Fprintf(w, "%s\t%s\t%s\n", i.Field, i.Code, i.Message)
	}
}
