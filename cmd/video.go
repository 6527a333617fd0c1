package cmd

import (
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/jobs"
)

var videoOutput string

var videoCmd = &cobra.Command{
	Use:   "video <url>",
	Short: "Fetch the transcript of a single video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		job, err := jobs.NewVideoJob(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		results, manifest, err := runJob(ctx, a, job)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			if len(manifest) > 0 && manifest[0].Error != "" {
				return errors.New(manifest[0].Error)
			}
			return apperrors.NoTranscriptAvailable("cmd.video", job.Input, nil)
		}

		return writeOutput(videoOutput, []byte(a.builder.BuildSingleDocument(results)), cmd.OutOrStdout())
	},
}

func init() {
	videoCmd.Flags().StringVarP(&videoOutput, "output", "o", stdoutPath, `output file, "-" for stdout`)
	rootCmd.AddCommand(videoCmd)
}
