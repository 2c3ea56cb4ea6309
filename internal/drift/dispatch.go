package drift

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

const (
	// MaxWordsForSummary bounds the text forwarded to the summarizer.
	MaxWordsForSummary = 500

	// DefaultRemoteTemp is where a document is parked on the remote host while it is fetched.
	DefaultRemoteTemp = "/tmp/fsdrift_pdf_tmp.pdf"
)

// Summary is the outcome of processing one document.
type Summary struct {
	Path      string
	Text      string
	WordsSent int
	Truncated bool
}

// PDFDispatcher fetches a document through the transport, extracts its text
// and forwards a bounded prefix of it to the summarizer.
type PDFDispatcher struct {
	transport  Transport
	extractor  TextExtractor
	summarizer Summarizer
	logger     Logger
	remoteTemp string
	localTemp  string
}

// NewPDFDispatcher creates a dispatcher. An empty remoteTemp selects DefaultRemoteTemp.
// localTemp is the directory for the local copy; empty means os.TempDir().
func NewPDFDispatcher(transport Transport, extractor TextExtractor, summarizer Summarizer, logger Logger, remoteTemp, localTemp string) *PDFDispatcher {
	if remoteTemp == "" {
		remoteTemp = DefaultRemoteTemp
	}
	return &PDFDispatcher{
		transport:  transport,
		extractor:  extractor,
		summarizer: summarizer,
		logger:     logger,
		remoteTemp: remoteTemp,
		localTemp:  localTemp,
	}
}

// Process summarizes the document at path on the remote host.
// The remote file is renamed to the fixed temporary name while it is read and
// is always moved back before Process returns.
func (d *PDFDispatcher) Process(ctx context.Context, path string) (summary *Summary, err error) {
	d.logger.Debug("processing document", "path", path)

	if err := d.exists(ctx, path); err != nil {
		return nil, err
	}
	if err := d.move(ctx, path, d.remoteTemp); err != nil {
		return nil, fmt.Errorf("relocating %s: %w", path, err)
	}
	defer func() {
		// Restore on a fresh context so a cancelled request still puts the file back.
		if restoreErr := d.move(context.WithoutCancel(ctx), d.remoteTemp, path); restoreErr != nil {
			d.logger.Warn("failed to restore document name", "path", path, "error", restoreErr)
			if err == nil {
				err = fmt.Errorf("restoring %s: %w", path, restoreErr)
				summary = nil
			}
		}
	}()

	data, err := d.transport.FetchBytes(ctx, d.remoteTemp)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	text, err := d.extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", path, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extracting text from %s: %w", path, ErrNoExtractableText)
	}

	bounded, sent, truncated := limitWords(text, MaxWordsForSummary)
	d.logger.Debug("sending text to summarizer", "path", path, "words", sent, "truncated", truncated)

	result, err := d.summarizer.Summarize(ctx, bounded)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", path, err)
	}

	d.logger.Info("document summarized", "path", path, "words", sent)
	return &Summary{
		Path:      path,
		Text:      result,
		WordsSent: sent,
		Truncated: truncated,
	}, nil
}

// exists checks that path is still present on the remote host.
func (d *PDFDispatcher) exists(ctx context.Context, path string) error {
	cmd := "test -e " + shellescape.Quote(path)
	_, status, err := d.transport.RunRemote(ctx, cmd)
	switch {
	case err != nil:
		return fmt.Errorf("checking %s: %w", path, err)
	case status == 1:
		return fmt.Errorf("%w: %s", ErrDocumentMissing, path)
	case status != 0:
		return fmt.Errorf("checking %s: %w", path, &RemoteCommandError{Command: cmd, ExitStatus: status})
	}
	return nil
}

// move renames src to dst on the remote host.
func (d *PDFDispatcher) move(ctx context.Context, src, dst string) error {
	cmd := "mv -- " + shellescape.Quote(src) + " " + shellescape.Quote(dst)
	_, status, err := d.transport.RunRemote(ctx, cmd)
	if err != nil {
		return err
	}
	if status != 0 {
		return &RemoteCommandError{Command: cmd, ExitStatus: status}
	}
	return nil
}

// extract writes data to a local temporary file and runs the extractor on it.
func (d *PDFDispatcher) extract(ctx context.Context, data []byte) (string, error) {
	f, err := os.CreateTemp(d.localTemp, "fsdrift-*"+filepath.Ext(d.remoteTemp))
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file: %w", ErrIO, err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: writing temp file: %w", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: closing temp file: %w", ErrIO, err)
	}

	return d.extractor.ExtractText(ctx, tmpPath)
}

// limitWords keeps the first max whitespace-delimited words of text joined by single spaces.
func limitWords(text string, max int) (string, int, bool) {
	words := strings.Fields(text)
	if len(words) <= max {
		return strings.Join(words, " "), len(words), false
	}
	return strings.Join(words[:max], " "), max, true
}
