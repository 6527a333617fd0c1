package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/nijaru/yt-channel-text/transcription"
)

// Export file names.
const (
	DocumentName = "todas_transcricoes.txt"
	ArchiveName  = "transcricoes.zip"
)

// Header placeholders. Any other text in a header is written as is.
const (
	TitlePlaceholder = "{title}"
	URLPlaceholder   = "{url}"
)

const (
	DefaultSeparatorWidth = 80
	DefaultHeader         = "Vídeo: " + TitlePlaceholder + "\nURL: " + URLPlaceholder + "\n\n"
)

var DefaultSeparator = strings.Repeat("=", DefaultSeparatorWidth)

// entryTime is the modification time written to every archive entry so that
// the same results always produce the same bytes.
var entryTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type Template struct {
	Separator string
	Header    string
}

func DefaultTemplate() Template {
	return Template{Separator: DefaultSeparator, Header: DefaultHeader}
}

type Builder struct {
	template Template
}

// NewBuilder fills empty template fields with the defaults.
func NewBuilder(template Template) *Builder {
	if template.Separator == "" {
		template.Separator = DefaultSeparator
	}
	if template.Header == "" {
		template.Header = DefaultHeader
	}
	return &Builder{template: template}
}

// Entry renders one result with its header.
func (b *Builder) Entry(r transcription.Result) string {
	header := strings.NewReplacer(
		TitlePlaceholder, r.Video.DisplayName(),
		URLPlaceholder, r.Video.WatchURL(),
	).Replace(b.template.Header)
	return header + r.Body
}

// BuildSingleDocument joins every entry, in order, with the separator.
// No results produce an empty document.
func (b *Builder) BuildSingleDocument(results []transcription.Result) string {
	entries := make([]string, len(results))
	for i, r := range results {
		entries[i] = b.Entry(r)
	}
	return strings.Join(entries, "\n\n"+b.template.Separator+"\n\n")
}

// EntryName is the file name used for a single video.
func EntryName(videoID string) string {
	return fmt.Sprintf("transcricao_%s.txt", videoID)
}

// BuildZipArchive writes one flat deflated entry per result. Repeated video
// ids get a numeric suffix so every result keeps its own entry.
func (b *Builder) BuildZipArchive(results []transcription.Result) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	seen := make(map[string]int, len(results))
	for _, r := range results {
		name := uniqueName(r.Video.ID, seen)

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: entryTime,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "creating archive entry %s", name)
		}
		if _, err := io.WriteString(w, b.Entry(r)); err != nil {
			return nil, errors.Wrapf(err, "writing archive entry %s", name)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "finalizing archive")
	}
	return buf.Bytes(), nil
}

func uniqueName(videoID string, seen map[string]int) string {
	name := EntryName(videoID)
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	for {
		candidate := EntryName(fmt.Sprintf("%s_%d", videoID, n))
		if seen[candidate] == 0 {
			seen[candidate] = 1
			return candidate
		}
		n++
	}
}
