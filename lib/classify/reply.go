// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import "strings"

// extractJSON returns the JSON payload of a model reply. Both
// prompts demand bare JSON, but models habitually wrap replies in
// markdown fences anyway; a fenced block is unwrapped, with or
// without a language tag. A fence that never closes yields
// everything after the opener.
func extractJSON(reply string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(reply, fence)
		if start < 0 {
			continue
		}
		rest := reply[start+len(fence):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(reply)
}

// clip truncates text to at most limit runes.
func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
