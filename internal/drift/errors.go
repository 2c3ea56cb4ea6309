package drift

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIO marks stat, read and write failures.
	ErrIO = errors.New("i/o failure")
	// ErrParse marks a persisted record that is not well formed.
	ErrParse = errors.New("malformed snapshot record")
	// ErrNoSnapshot is returned by operations that need a persisted snapshot when none exists.
	ErrNoSnapshot = errors.New("no snapshot has been captured")
	// ErrNotCandidate is returned when a document is not a PDF recorded in the snapshot.
	ErrNotCandidate = errors.New("not a PDF recorded in the snapshot")
	// ErrDocumentMissing means a recorded document is no longer on the host.
	ErrDocumentMissing = errors.New("document no longer exists")
	// ErrTransport marks remote fetch, run and put failures.
	ErrTransport = errors.New("transport failure")
	// ErrNoExtractableText is returned when a document has no text layer.
	ErrNoExtractableText = errors.New("no extractable text")
	// ErrExtraction marks a document that could not be parsed at all.
	ErrExtraction = errors.New("text extraction failed")

	// ErrSummarization is the parent of every summarizer failure.
	ErrSummarization = errors.New("summarization failed")
	// ErrMissingCredential means no API key was configured.
	ErrMissingCredential = fmt.Errorf("%w: missing API credential", ErrSummarization)
	// ErrSummarizerNetwork means the request could not be sent or the response not read.
	ErrSummarizerNetwork = fmt.Errorf("%w: network error", ErrSummarization)
	// ErrSummarizerStatus means the service answered with a non-success status.
	ErrSummarizerStatus = fmt.Errorf("%w: unexpected status", ErrSummarization)
	// ErrMalformedResponse means the response body could not be decoded.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrSummarization)
	// ErrEmptyResult means the service returned no candidates.
	ErrEmptyResult = fmt.Errorf("%w: no summary returned", ErrSummarization)
)

// StatusError carries the HTTP status and body of a rejected summarization request.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrSummarizerStatus }

// RemoteCommandError is returned when a transport command exits with a non-zero status.
type RemoteCommandError struct {
	Command    string
	ExitStatus int
	Stderr     string
}

func (e *RemoteCommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitStatus)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.ExitStatus, msg)
}

func (e *RemoteCommandError) Unwrap() error { return ErrTransport }

// Suggestion returns a corrective action for err, or "" when there is none.
func Suggestion(err error) string {
	var statusErr *StatusError
	var cmdErr *RemoteCommandError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoSnapshot):
		return "capture a snapshot first with `fsdrift snapshot`"
	case errors.Is(err, ErrNotCandidate):
		return "pick a document path or number from `fsdrift pdf list`"
	case errors.Is(err, ErrDocumentMissing):
		return "the file no longer exists; run `fsdrift drift` to see what changed"
	case errors.Is(err, ErrParse):
		return "the stored snapshot is unreadable; capture a new one with `fsdrift snapshot`"
	case errors.Is(err, ErrMissingCredential):
		return "set the API key environment variable or run `fsdrift config set-key`"
	case errors.As(err, &statusErr) && (statusErr.StatusCode == 401 || statusErr.StatusCode == 403):
		return "the API key was rejected; update it with `fsdrift config set-key`"
	case errors.Is(err, ErrSummarizerNetwork):
		return "check network connectivity to the summarization endpoint"
	case errors.Is(err, ErrNoExtractableText):
		return "the document may contain only scanned images; run it through OCR first"
	case errors.Is(err, ErrExtraction):
		return "the file is not a readable PDF; check that it was fully copied"
	case errors.As(err, &cmdErr) && cmdErr.ExitStatus == 127,
		errors.Is(err, ErrTransport) && strings.Contains(strings.ToLower(err.Error()), "no such file"):
		return "run `fsdrift deploy` to install the capture helper on the remote host"
	case errors.Is(err, ErrTransport):
		return "check the transport command in the [transport] config section"
	}
	return ""
}
