package drift

import (
	"strings"
	"unicode"
)

// LsblkCommand lists block devices in the format ParseLsblk expects.
const LsblkCommand = "lsblk -o NAME,TYPE,MOUNTPOINT"

// BlockDevices is the result of ParseLsblk.
type BlockDevices struct {
	Disks []string
	// Partitions maps a partition name to its mount point ("" when unmounted).
	Partitions map[string]string
}

// ParseLsblk parses the output of LsblkCommand. The header line is skipped,
// and the tree-drawing prefix lsblk puts in front of child devices is removed.
func ParseLsblk(output string) *BlockDevices {
	devices := &BlockDevices{
		Disks:      []string{},
		Partitions: map[string]string{},
	}

	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimLeftFunc(fields[0], func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		mount := ""
		if len(fields) >= 3 {
			mount = fields[2]
		}
		switch fields[1] {
		case "disk":
			devices.Disks = append(devices.Disks, name)
		case "part":
			devices.Partitions[name] = mount
		}
	}
	return devices
}
