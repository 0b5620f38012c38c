package emoji

import "strings"

// EmojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":      {"❌", "[ERR]"},
	"warning":    {"⚠️", "[WRN]"},
	"info":       {"ℹ️", "[INF]"},
	"success":    {"✅", "[OK]"},
	"sign":       {"🚦", "[SIGN]"},
	"stop":       {"🛑", "[STOP]"},
	"detection":  {"🔍", "[DET]"},
	"image":      {"🖼️", "[IMG]"},
	"video":      {"🎬", "[VID]"},
	"folder":     {"📁", "[DIR]"},
	"statistics": {"📊", "[STATS]"},
	"clock":      {"⏱️", "[TIME]"},
	"target":     {"🎯", "[>]"},
	"rocket":     {"🚀", "[RUN]"},
	"help":       {"❓", "[?]"},
	"door":       {"🚪", "[EXIT]"},
	"number":     {"🔢", "[#]"},
	"watch":      {"👀", "[WATCH]"},
	"history":    {"📜", "[HIST]"},
}

var emojiDisabled bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled = disabled
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled {
			return mapping[1] // fallback
		}
		return mapping[0] // emoji
	}
	return "[?]" // unknown key
}

// Get returns the emoji or its fallback regardless of the global setting
func Get(key string, enabled bool) string {
	mapping, exists := emojiMap[key]
	if !exists {
		return "[?]"
	}
	if enabled {
		return mapping[0]
	}
	return mapping[1]
}

// ForMedia returns the symbol for a media kind ("image" or "video")
func ForMedia(kind string) string {
	if kind == "video" {
		return GetEmoji("video")
	}
	return GetEmoji("image")
}

// ForSign picks a symbol for a detected sign type
func ForSign(signType string, enabled bool) string {
	lower := strings.ToLower(signType)
	switch {
	case strings.Contains(lower, "stop"):
		return Get("stop", enabled)
	case strings.Contains(lower, "yield"), strings.Contains(lower, "warning"), strings.Contains(lower, "caution"):
		return Get("warning", enabled)
	default:
		return Get("sign", enabled)
	}
}
