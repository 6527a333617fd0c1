package cmd

import (
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nijaru/yt-channel-text/archive"
	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/jobs"
	"github.com/nijaru/yt-channel-text/youtube"
)

var channelFlags struct {
	filter string
	format string
	output string
	upload bool
}

var channelCmd = &cobra.Command{
	Use:   "channel <query>",
	Short: "Fetch the transcripts of every matching video of a channel",
	Long: `channel resolves <query> (a channel URL, @handle, channel id or name),
lists its videos up to the configured ceiling, keeps those accepted by
--filter and exports their transcripts.

Filters: all, long (> 1 hour), short (<= 2 minutes), longer:<seconds>,
shorter:<seconds>. Append "+unknown" to keep videos whose duration is unknown.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(channelFlags.format); err != nil {
			return err
		}
		if _, err := youtube.ParseFilter(channelFlags.filter); err != nil {
			return err
		}
		if cfg.YouTubeAPIKey == "" {
			return apperrors.InvalidInput("cmd.channel", nil, "YOUTUBE_API_KEY is required for channel discovery")
		}
		if channelFlags.upload && !cfg.S3.Enabled() {
			return apperrors.InvalidInput("cmd.channel", nil, "--upload requires S3_BUCKET to be configured")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		filter, err := youtube.ParseFilter(channelFlags.filter)
		if err != nil {
			return err
		}
		job, err := jobs.NewChannelJob(args[0], filter)
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
		printManifest(cmd.ErrOrStderr(), manifest)
		if len(results) == 0 {
			return apperrors.NotFound("cmd.channel", nil, "no transcripts to export")
		}

		data, err := render(a.builder, channelFlags.format, results)
		if err != nil {
			return err
		}
		output := channelFlags.output
		if output == "" {
			output = defaultOutput(channelFlags.format)
		}
		if err := writeOutput(output, data, cmd.OutOrStdout()); err != nil {
			return err
		}

		if channelFlags.upload {
			zipData := data
			if channelFlags.format != formatZip {
				if zipData, err = a.builder.BuildZipArchive(results); err != nil {
					return err
				}
			}
			key, err := a.uploader.UploadArchive(ctx, job.ID+"/"+archive.ArchiveName, zipData)
			if err != nil {
				return err
			}
			logrus.WithField("key", key).Info("Archive uploaded")
		}
		return nil
	},
}

func init() {
	f := channelCmd.Flags()
	f.StringVar(&channelFlags.filter, "filter", "all", "duration filter")
	f.StringVar(&channelFlags.format, "format", formatDocument, `export format, "document" or "zip"`)
	f.StringVarP(&channelFlags.output, "output", "o", "", `output file, "-" for stdout (default depends on --format)`)
	f.BoolVar(&channelFlags.upload, "upload", false, "also upload the ZIP archive to the configured bucket")
	rootCmd.AddCommand(channelCmd)
}
