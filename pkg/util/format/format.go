package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	_  = iota // ignore first value
	KB = 1 << (10 * iota)
	MB
	GB
	TB
)

// FormatBytes formats a size into human-readable units, avoiding .00 for whole numbers.
func FormatBytes(b int64) string {
	val := float64(b)
	var unit string

	switch {
	case b >= TB:
		val /= float64(TB)
		unit = "TB"
	case b >= GB:
		val /= float64(GB)
		unit = "GB"
	case b >= MB:
		val /= float64(MB)
		unit = "MB"
	case b >= KB:
		val /= float64(KB)
		unit = "KB"
	default:
		return fmt.Sprintf("%dB", b)
	}

	if val == float64(int(val)) {
		return fmt.Sprintf("%.0f%s", val, unit)
	}
	return fmt.Sprintf("%.2f%s", val, unit)
}

// ParseBytes parses sizes such as "512", "4KB", "1.5MB" or "2G".
// Units are powers of 1024. An empty string parses as zero.
func ParseBytes(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, nil
	}

	num := strings.TrimRight(s, "KMGTB")
	unit := strings.TrimSpace(s[len(num):])
	num = strings.TrimSpace(num)

	var mul uint64
	switch strings.TrimSuffix(unit, "B") {
	case "":
		mul = 1
	case "K":
		mul = KB
	case "M":
		mul = MB
	case "G":
		mul = GB
	case "T":
		mul = TB
	default:
		return 0, fmt.Errorf("invalid size unit in %q", s)
	}

	if n, err := strconv.ParseUint(num, 10, 64); err == nil {
		return n * mul, nil
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return uint64(f * float64(mul)), nil
}
