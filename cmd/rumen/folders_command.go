package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List monitored folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			folders, err := client.Folders(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(folders) == 0 {
				fmt.Fprintln(out, "No folders configured")
				return nil
			}

			rows := make([][]string, 0, len(folders))
			for _, folder := range folders {
				rows = append(rows, []string{
					folder.Name,
					yesNo(folder.Enabled),
					folder.Path,
					folder.Model,
					folder.OutputFormat,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Enabled", "Path", "Model", "Format"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
