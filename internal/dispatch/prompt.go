package dispatch

import "strings"

// SkipSentinel is the reply with which a war-room participant declines to
// contribute.
const SkipSentinel = "REPLY_SKIP"

func TaskPrompt(title, details string) string {
	lines := []string{"You are assigned task: " + title}
	if details != "" {
		lines = append(lines, "Details: "+details)
	}
	lines = append(lines, "Return: (1) brief plan, (2) execution result, (3) next steps.")
	return strings.Join(lines, "\n")
}

func WarRoomPrompt(author, text string) string {
	return strings.Join([]string{
		"War room thread message from " + author + ":",
		text,
		"Reply with concise input. If no value to add, reply exactly: " + SkipSentinel,
	}, "\n")
}

// IsSkip reports whether reply text declines to contribute.
func IsSkip(text string) bool {
	return strings.TrimSpace(text) == SkipSentinel
}
