package cli

import (
	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/emoji"
)

// GetEmoji is a wrapper for the shared emoji package
func GetEmoji(key string) string {
	return emoji.GetEmoji(key)
}

// GetPhaseEmoji returns the symbol for an analysis outcome
func GetPhaseEmoji(phase controller.Phase) string {
	switch phase {
	case controller.PhaseSucceeded:
		return GetEmoji("success")
	case controller.PhaseFailed:
		return GetEmoji("error")
	case controller.PhaseAnalyzing:
		return GetEmoji("clock")
	default:
		return GetEmoji("info")
	}
}
