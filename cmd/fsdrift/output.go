package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"fsdrift/internal/app"
	"fsdrift/internal/config"
	"fsdrift/internal/drift"
)

const localTimeFormat = "2006-01-02 15:04:05 -0700"

// readSecret prompts on stderr and reads a line without echo when stdin is a terminal.
// Piped input is read as a plain line so keys can be scripted.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func printConfig(w io.Writer, cfg *config.Config, maskedKey string) {
	fmt.Fprintf(w, "Host ID:      %s\n", cfg.HostID)
	fmt.Fprintf(w, "Base Dir:     %s\n", cfg.BaseDir)
	fmt.Fprintf(w, "Log Dir:      %s\n", cfg.LogDir)
	fmt.Fprintf(w, "Root:         %s\n", valueOr(cfg.Root, "(home directory)"))
	fmt.Fprintf(w, "Source Label: %s\n", valueOr(cfg.SourceLabel, drift.HomeLabel))
	fmt.Fprintf(w, "Store:        %s\n", describeStore(cfg.Store))
	fmt.Fprintf(w, "Encryption:   %s\n", describeEncryption(cfg.Encryption))
	fmt.Fprintf(w, "Transport:    %s\n", describeTransport(cfg.Transport))
	fmt.Fprintf(w, "Summarizer:   %s (%s, max %d tokens, timeout %s)\n",
		cfg.Summarizer.Endpoint, cfg.Summarizer.Model, cfg.Summarizer.MaxTokens, valueOr(cfg.Summarizer.Timeout, config.DefaultTimeout.String()))
	fmt.Fprintf(w, "API Key:      %s (env %s)\n", maskedKey, cfg.Summarizer.APIKeyEnv)
	if len(cfg.Filesystem.Ignore) > 0 {
		fmt.Fprintf(w, "Ignore:       %s\n", strings.Join(cfg.Filesystem.Ignore, ", "))
	}
}

func describeStore(s config.StoreConfig) string {
	switch s.Type {
	case "sqlite":
		return "sqlite in " + s.DataDir
	case "s3":
		return fmt.Sprintf("s3://%s/%s", s.S3Bucket, s.S3Prefix)
	case "memory":
		return "memory (not persisted)"
	default:
		return "file " + s.Path
	}
}

func describeEncryption(e config.EncryptionConfig) string {
	if !e.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%s (%s)", valueOr(e.Type, "age"), e.PublicKeyPath)
}

func describeTransport(t config.TransportConfig) string {
	if t.Type == "command" {
		return fmt.Sprintf("command %q, helper %s", t.Command, t.RemoteBinary)
	}
	return "local"
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// treeStats returns the number of entries and the total file size of tree.
func treeStats(tree *drift.Entry) (int, uint64) {
	var count int
	var size uint64
	stack := []*drift.Entry{tree}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		count++
		size += cur.Size
		stack = append(stack, cur.Children...)
	}
	return count, size
}

func printSnapshot(w io.Writer, record *drift.SnapshotRecord) {
	count, size := treeStats(record.Tree)
	fmt.Fprintf(w, "Captured: %s (%s)\n", record.Datetime.Local().Format(localTimeFormat), humanize.Time(record.Datetime))
	fmt.Fprintf(w, "Source:   %s\n", record.SourceLabel)
	fmt.Fprintf(w, "Root:     %s\n", record.Tree.Path)
	fmt.Fprintf(w, "Entries:  %s\n", humanize.Comma(int64(count)))
	fmt.Fprintf(w, "Size:     %s\n", humanize.Bytes(size))

	if len(record.Tree.Children) == 0 {
		return
	}
	fmt.Fprintln(w)
	table := newTable(w, []string{"Name", "Type", "Size", "Modified"})
	for _, child := range record.Tree.Children {
		kind := "file"
		_, childSize := treeStats(child)
		if child.IsDir {
			kind = "dir"
		}
		table.Append([]string{child.Name, kind, humanize.Bytes(childSize), formatUnix(child.Modified)})
	}
	table.Render()
}

func formatUnix(sec uint64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(int64(sec), 0).Local().Format(localTimeFormat)
}

func printDrift(w io.Writer, result *drift.DriftResult) {
	report := result.Report
	since := result.CapturedAt.Local().Format(localTimeFormat)

	if report.Empty() {
		fmt.Fprintf(w, "No changes since %s\n", since)
	} else {
		fmt.Fprintf(w, "Changes since %s: %d added, %d removed, %d modified\n\n",
			since, len(report.Added), len(report.Removed), len(report.Modified))
		table := newTable(w, []string{"Change", "Path", "Was", "Now"})
		for _, p := range report.Added {
			table.Append([]string{"added", p, "", ""})
		}
		for _, p := range report.Removed {
			table.Append([]string{"removed", p, "", ""})
		}
		for _, m := range report.Modified {
			table.Append([]string{"modified", m.Path, formatUnix(m.OldModified), formatUnix(m.NewModified)})
		}
		table.Render()
	}

	if result.Updated {
		fmt.Fprintf(w, "Snapshot updated at %s\n", result.Location)
	}
}

func printDevices(w io.Writer, devices *drift.BlockDevices) {
	if len(devices.Disks) == 0 && len(devices.Partitions) == 0 {
		fmt.Fprintln(w, "No block devices found.")
		return
	}

	table := newTable(w, []string{"Name", "Type", "Mount Point"})
	for _, d := range devices.Disks {
		table.Append([]string{d, "disk", ""})
	}
	names := make([]string, 0, len(devices.Partitions))
	for name := range devices.Partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		table.Append([]string{name, "part", valueOr(devices.Partitions[name], "(not mounted)")})
	}
	table.Render()
}

func printStoreStatus(w io.Writer, status *app.StoreStatus) {
	fmt.Fprintf(w, "Location:   %s\n", status.Location)
	if status.Encrypted {
		fmt.Fprintln(w, "Encryption: enabled")
	} else {
		fmt.Fprintln(w, "Encryption: disabled")
	}
	if status.Snapshot == nil {
		fmt.Fprintln(w, "Snapshot:   none")
		return
	}
	count, _ := treeStats(status.Snapshot.Tree)
	fmt.Fprintf(w, "Snapshot:   %s entries, captured %s\n",
		humanize.Comma(int64(count)), status.Snapshot.Datetime.Local().Format(localTimeFormat))
}
