package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Constants for size conversions
const (
	KiB = 1024
	KB  = 1000
	MiB = 1024 * 1024
	MB  = 1000 * 1000
	GiB = 1024 * 1024 * 1024
	GB  = 1000 * 1000 * 1000
)

// sizeMap maps unit strings to their byte multipliers.
var sizeMap = map[string]uint64{
	"KIB": KiB,
	"KB":  KB,
	"MIB": MiB,
	"MB":  MB,
	"GIB": GiB,
	"GB":  GB,
}

var sizeRegex = regexp.MustCompile(`^(\d+)\s*([A-Z]+)$`)

// NormalizeSizeToBytes converts a size string (e.g. "512MiB") to bytes.
func NormalizeSizeToBytes(sizeStr string) (uint64, error) {
	if sizeStr == "0" {
		return 0, nil
	}

	matches := sizeRegex.FindStringSubmatch(strings.ToUpper(sizeStr))
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid size format: %q", sizeStr)
	}

	value, err := strconv.ParseUint(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse numeric value %q: %w", matches[1], err)
	}

	multiplier, ok := sizeMap[matches[2]]
	if !ok {
		return 0, fmt.Errorf("unknown size unit: %q", matches[2])
	}

	return value * multiplier, nil
}

// HumanSize renders a byte count in the largest binary unit that keeps the
// value above one, e.g. 1536 -> "1.5 KiB".
func HumanSize(bytes uint64) string {
	switch {
	case bytes >= GiB:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/GiB)
	case bytes >= MiB:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/MiB)
	case bytes >= KiB:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/KiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
