package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"veo-console/internal/config"
	"veo-console/internal/validation"

	"github.com/spf13/cobra"
)

func newDownloadCommand(cfg *config.Config, root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <operation>",
		Short: "Download the video of a completed operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operation := args[0]
			video, err := root.client(cfg).Download(cmd.Context(), operation)
			if err != nil {
				return err
			}
			defer video.Body.Close()

			target := output
			if target == "" {
				target = defaultOutput(operation, video.Filename)
			}

			file, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}

			written, err := io.Copy(file, video.Body)
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				os.Remove(target)
				return fmt.Errorf("failed to write %s: %w", target, err)
			}

			logger := root.logger()
			logger.Info().Str("file", target).Int64("bytes", written).Msg("video downloaded")
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <operation id>.mp4)")
	return cmd
}

func defaultOutput(operation, filename string) string {
	if filename != "" {
		return validation.SanitizeFilename(filename)
	}
	return path.Base(strings.Trim(operation, "/")) + ".mp4"
}
