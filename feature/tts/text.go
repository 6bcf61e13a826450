package tts

import (
	"strings"

	"quest-voice/feature/quests"
)

// NarrationText builds the spoken text for a quest: the title followed by the
// description, plus the objectives when requested. It is empty when the quest
// carries no narratable text.
func NarrationText(q quests.Quest, includeObjectives bool) string {
	title := strings.TrimSpace(q.Title)
	parts := make([]string, 0, 3)
	if title != "" {
		parts = append(parts, strings.TrimRight(title, ".")+".")
	}
	if d := strings.TrimSpace(q.Description); d != "" {
		parts = append(parts, d)
	}
	if includeObjectives {
		if o := strings.TrimSpace(q.Objectives); o != "" {
			parts = append(parts, o)
		}
	}
	return strings.Join(parts, " ")
}
