package drift

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Service is the orchestration layer the CLI talks to. It ties a TreeSource,
// the SnapshotStore and the PDF pipeline together.
type Service struct {
	source      TreeSource
	store       SnapshotStore
	transport   Transport
	dispatcher  *PDFDispatcher
	logger      Logger
	sourceLabel string
}

// NewService creates a Service. dispatcher and transport may be nil when the
// caller never uses the PDF or device operations.
func NewService(source TreeSource, store SnapshotStore, transport Transport, dispatcher *PDFDispatcher, logger Logger, sourceLabel string) *Service {
	if sourceLabel == "" {
		sourceLabel = HomeLabel
	}
	return &Service{
		source:      source,
		store:       store,
		transport:   transport,
		dispatcher:  dispatcher,
		logger:      logger,
		sourceLabel: sourceLabel,
	}
}

// SnapshotResult describes a persisted capture.
type SnapshotResult struct {
	Location string
	Entries  int
}

// DriftResult is the outcome of CheckDrift.
type DriftResult struct {
	Report     *DriftReport
	CapturedAt time.Time // when the compared snapshot was taken
	Updated    bool      // true when the fresh capture replaced the snapshot
	Location   string
}

// Capture builds a fresh tree for root without persisting it.
func (s *Service) Capture(ctx context.Context, root string) (*Entry, error) {
	tree, err := s.source.Build(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", root, err)
	}
	s.logger.Debug("tree captured", "root", root, "entries", tree.Count())
	return tree, nil
}

// Snapshot captures root and persists it as the single snapshot, replacing any previous one.
func (s *Service) Snapshot(ctx context.Context, root string) (*SnapshotResult, error) {
	tree, err := s.Capture(ctx, root)
	if err != nil {
		return nil, err
	}

	location, err := s.store.Save(s.sourceLabel, "", tree)
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	entries := tree.Count()
	s.logger.Info("snapshot saved", "root", root, "location", location, "entries", entries)
	return &SnapshotResult{Location: location, Entries: entries}, nil
}

// LastSnapshot returns the persisted snapshot or ErrNoSnapshot.
func (s *Service) LastSnapshot() (*SnapshotRecord, error) {
	record, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if record == nil {
		return nil, ErrNoSnapshot
	}
	return record, nil
}

// CheckDrift captures root and compares it with the persisted snapshot.
// With update set, the fresh capture then replaces the snapshot.
func (s *Service) CheckDrift(ctx context.Context, root string, update bool) (*DriftResult, error) {
	previous, err := s.LastSnapshot()
	if err != nil {
		return nil, err
	}

	current, err := s.Capture(ctx, root)
	if err != nil {
		return nil, err
	}

	report := Diff(previous.Tree, current)
	s.logger.Info("drift computed",
		"root", root,
		"added", len(report.Added),
		"removed", len(report.Removed),
		"modified", len(report.Modified))

	result := &DriftResult{Report: report, CapturedAt: previous.Datetime}
	if update {
		location, err := s.store.Save(s.sourceLabel, "", current)
		if err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
		result.Updated = true
		result.Location = location
	}
	return result, nil
}

// ListPDFs returns the candidate documents of the persisted snapshot.
func (s *Service) ListPDFs() ([]string, error) {
	record, err := s.LastSnapshot()
	if err != nil {
		return nil, err
	}
	return ListCandidates(record.Tree), nil
}

// SummarizePDF runs one document of the persisted snapshot through the PDF
// pipeline. selector is a path from ListPDFs or its 1-based position in that list.
func (s *Service) SummarizePDF(ctx context.Context, selector string) (*Summary, error) {
	if s.dispatcher == nil {
		return nil, fmt.Errorf("document summaries are not configured")
	}
	record, err := s.LastSnapshot()
	if err != nil {
		return nil, err
	}
	path, err := SelectCandidate(ListCandidates(record.Tree), selector)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Process(ctx, path)
}

// SelectCandidate resolves selector against candidates, either as one of the
// paths or as a 1-based index into them.
func SelectCandidate(candidates []string, selector string) (string, error) {
	if slices.Contains(candidates, selector) {
		return selector, nil
	}
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(candidates) {
			return "", fmt.Errorf("%w: no document numbered %d (%d listed)", ErrNotCandidate, n, len(candidates))
		}
		return candidates[n-1], nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotCandidate, selector)
}

// Devices lists the block devices of the inventoried host.
func (s *Service) Devices(ctx context.Context) (*BlockDevices, error) {
	if s.transport == nil {
		return nil, fmt.Errorf("no transport configured")
	}
	out, status, err := s.transport.RunRemote(ctx, LsblkCommand)
	if err != nil {
		return nil, fmt.Errorf("listing block devices: %w", err)
	}
	if status != 0 {
		return nil, fmt.Errorf("listing block devices: %w", &RemoteCommandError{Command: LsblkCommand, ExitStatus: status})
	}
	return ParseLsblk(out), nil
}
