package formatter

import (
	"fmt"
	"strconv"

	"github.com/yildizm/SignScan/internal/common"
)

// formatFloat prints a number without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// optionalInt formats a pointer, empty when absent
func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// optionalFloat formats a pointer, empty when absent
func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// boxFields returns x, y, width, height as strings, empty when there is no box
func boxFields(b *common.BoundingBox) []string {
	if b == nil {
		return []string{"", "", "", ""}
	}
	return []string{formatFloat(b.X), formatFloat(b.Y), formatFloat(b.Width), formatFloat(b.Height)}
}

// formatSize renders bytes in MiB with two decimals
func formatSize(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}
