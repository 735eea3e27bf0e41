package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			runningKind := statusError
			runningMsg := "not running"
			if status.Running {
				runningKind = statusOK
				runningMsg = fmt.Sprintf("pid %d", status.PID)
			}
			fmt.Fprintln(out, renderStatusLine("Running", runningKind, runningMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Folders", statusInfo, fmt.Sprintf("%d watched", status.Folders), colorize))
			fmt.Fprintln(out, renderStatusLine("In flight", statusInfo, fmt.Sprintf("%d", status.InFlight), colorize))
			fmt.Fprintln(out, renderStatusLine("Job DB", statusInfo, status.JobDBPath, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Jobs", colorize) {
				fmt.Fprintln(out, line)
			}
			jobs := status.Jobs
			fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", jobs.Total), colorize))
			fmt.Fprintln(out, renderStatusLine("Queued", statusInfo, fmt.Sprintf("%d", jobs.Queued), colorize))
			fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", jobs.Processing), colorize))
			fmt.Fprintln(out, renderStatusLine("Completed", statusOK, fmt.Sprintf("%d", jobs.Completed), colorize))
			failedKind := statusOK
			if jobs.Failed > 0 {
				failedKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", jobs.Failed), colorize))
			return nil
		},
	}
}
