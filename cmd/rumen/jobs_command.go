package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"rumen/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs [id]",
		Short: "List processing jobs or show one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				job, err := client.Job(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printJobDetail(out, job)
				return nil
			}

			listed, err := client.Jobs(cmd.Context(), statusFilter, limit)
			if err != nil {
				return err
			}
			if len(listed) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}

			rows := make([][]string, 0, len(listed))
			for _, job := range listed {
				rows = append(rows, []string{
					shortID(job.ID),
					job.Folder,
					filepath.Base(job.SourcePath),
					job.Status,
					strconv.Itoa(job.Attempts),
					job.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Folder", "File", "Status", "Attempts", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (queued|processing|retrying|completed|failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs to list")
	return cmd
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func printJobDetail(out io.Writer, job api.Job) {
	fmt.Fprintf(out, "ID:           %s\n", job.ID)
	fmt.Fprintf(out, "Folder:       %s\n", job.Folder)
	fmt.Fprintf(out, "Source:       %s\n", job.SourcePath)
	fmt.Fprintf(out, "Status:       %s\n", job.Status)
	fmt.Fprintf(out, "Attempts:     %d\n", job.Attempts)
	if job.ErrorClass != "" {
		fmt.Fprintf(out, "Error class:  %s\n", job.ErrorClass)
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:        %s\n", job.ErrorMessage)
	}
	if job.OutputPath != "" {
		fmt.Fprintf(out, "Output:       %s\n", job.OutputPath)
	}
	fmt.Fprintf(out, "Created:      %s\n", job.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Updated:      %s\n", job.UpdatedAt.Local().Format(time.RFC3339))
}
