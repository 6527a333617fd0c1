package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/nijaru/yt-channel-text/archive"
	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/models"
	"github.com/nijaru/yt-channel-text/transcription"
)

const (
	formatDocument = "document"
	formatZip      = "zip"

	// stdoutPath as an output path writes to standard output.
	stdoutPath = "-"
)

func validateFormat(format string) error {
	if format != formatDocument && format != formatZip {
		return apperrors.InvalidInput("cmd.validateFormat", nil,
			fmt.Sprintf("format must be %q or %q, got %q", formatDocument, formatZip, format))
	}
	return nil
}

// defaultOutput names the file written when -o is not given.
func defaultOutput(format string) string {
	if format == formatZip {
		return archive.ArchiveName
	}
	return archive.DocumentName
}

// runJob executes job in the foreground and returns its successful
// transcripts together with the full manifest.
func runJob(ctx context.Context, a *app, job *models.Job) ([]transcription.Result, []models.Result, error) {
	if err := a.store.CreateJob(ctx, job); err != nil {
		return nil, nil, err
	}
	if err := a.runner.Run(ctx, job); err != nil {
		return nil, nil, err
	}

	results, _, err := a.runner.Results(ctx, job.ID)
	if err != nil {
		return nil, nil, err
	}
	manifest, err := a.store.GetResults(ctx, job.ID)
	if err != nil {
		return nil, nil, err
	}
	return results, manifest, nil
}

func printManifest(w io.Writer, manifest []models.Result) {
	ok := 0
	for _, r := range manifest {
		if r.OK {
			ok++
			fmt.Fprintf(w, "ok    %s  %s\n", r.VideoID, r.Title)
			continue
		}
		fmt.Fprintf(w, "fail  %s  %s: %s\n", r.VideoID, r.Title, r.Error)
	}
	fmt.Fprintf(w, "%d of %d videos transcribed\n", ok, len(manifest))
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath {
		_, err := stdout.Write(data)
		return errors.Wrap(err, "writing to stdout")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func render(builder *archive.Builder, format string, results []transcription.Result) ([]byte, error) {
	if format == formatZip {
		return builder.BuildZipArchive(results)
	}
	return []byte(builder.BuildSingleDocument(results)), nil
}
