package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var folder string
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List persisted result files",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			results, err := client.Results(cmd.Context(), folder, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No results yet")
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{
					result.Name,
					formatSize(result.Size),
					result.ModTime.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Size", "Written"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Limit to one folder's output directory")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results to list")
	return cmd
}

func formatSize(size int64) string {
	const kb = 1024
	switch {
	case size >= kb*kb:
		return fmt.Sprintf("%.1f MiB", float64(size)/(kb*kb))
	case size >= kb:
		return fmt.Sprintf("%.1f KiB", float64(size)/kb)
	default:
		return strconv.FormatInt(size, 10) + " B"
	}
}
