package emoji

import "testing"

func TestGetEmoji(t *testing.T) {
	defer SetEmojiDisabled(false)

	SetEmojiDisabled(false)
	if got := GetEmoji("stop"); got != "🛑" {
		t.Errorf("Expected stop emoji, got %q", got)
	}

	SetEmojiDisabled(true)
	if got := GetEmoji("stop"); got != "[STOP]" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := ForMedia("video"); got != "[VID]" {
		t.Errorf("Expected video fallback, got %q", got)
	}
	if got := GetEmoji("nope"); got != "[?]" {
		t.Errorf("Expected unknown marker, got %q", got)
	}
}
