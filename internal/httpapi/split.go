package httpapi

import "strings"

// SplitMessage chunks a reply so each piece fits within limit bytes,
// preferring to break after the last newline inside the window. Chat
// frontends with hard message limits consume replies through this.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > limit {
		splitAt := limit
		if pos := strings.LastIndexByte(remaining[:limit], '\n'); pos >= 0 {
			splitAt = pos + 1
		}
		chunks = append(chunks, remaining[:splitAt])
		remaining = remaining[splitAt:]
	}
	return append(chunks, remaining)
}
