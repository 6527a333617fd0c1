package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nijaru/yt-channel-text/config"
	"github.com/nijaru/yt-channel-text/logger"
)

var (
	configFile string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "yt-channel-text",
	Short: "Collect YouTube transcripts for single videos or whole channels",
	Long: `yt-channel-text fetches the published transcripts of a YouTube video or of
every video of a channel that passes a duration filter, and exports them as a
single text document or a ZIP archive with one file per video.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded

		_, err = logger.Setup(logger.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Dir:    cfg.LogDir,
			Output: logOutput(cmd),
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// logOutput keeps stdout free for exported documents on one-shot commands.
func logOutput(cmd *cobra.Command) io.Writer {
	if cmd.Name() == serveCmd.Name() {
		return os.Stdout
	}
	return os.Stderr
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Debug("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
