package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rumen/internal/api"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Transform a file or stdin through the daemon immediately",
		Long: "Sends content straight to the daemon for transformation with the " +
			"named folder's prompts, bypassing the watch pipeline. The source " +
			"file is left untouched.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(folder) == "" {
				return fmt.Errorf("--folder is required")
			}

			var content []byte
			var filename string
			var err error
			if len(args) == 1 {
				filename = filepath.Base(args[0])
				content, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
			} else {
				filename = "stdin.md"
				content, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Process(cmd.Context(), api.ProcessRequest{
				Folder:   folder,
				Filename: filename,
				Content:  string(content),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed in %d attempt(s)\n", resp.Attempts)
			fmt.Fprintf(out, "Result: %s\n", resp.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Folder whose prompts to apply")
	return cmd
}
