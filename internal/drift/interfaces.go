package drift

import "context"

// TreeSource captures the filesystem tree rooted at a path.
// Implementations: fs.TreeBuilder (local walk) and transport.RemoteTreeSource
// (runs the capture helper on another host).
type TreeSource interface {
	Build(ctx context.Context, root string) (*Entry, error)
}

// SnapshotStore persists exactly one SnapshotRecord. Save overwrites the slot.
type SnapshotStore interface {
	// Save records tree under sourceLabel with the current time and returns
	// a human-readable location of the slot.
	Save(sourceLabel, rawPayload string, tree *Entry) (string, error)

	// Load returns the persisted record, or (nil, nil) when nothing was ever saved.
	Load() (*SnapshotRecord, error)
}

// Transport moves bytes and runs commands on the host being inventoried.
type Transport interface {
	// FetchBytes returns the full contents of remotePath.
	FetchBytes(ctx context.Context, remotePath string) ([]byte, error)

	// RunRemote runs command through a shell on the remote host. A non-zero
	// exit status is reported through exitStatus, not err.
	RunRemote(ctx context.Context, command string) (stdout string, exitStatus int, err error)

	// PutBytes copies the local file at localPath to remotePath.
	PutBytes(ctx context.Context, localPath, remotePath string) error
}

// TextExtractor turns a document on the local disk into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Summarizer condenses text through an external language model.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
