package quests

import (
	"fmt"
	"strings"

	"quest-voice/core/fingerprint"
)

// Category classifies a quest for progress reporting.
type Category string

const (
	CategoryMain    Category = "main"
	CategorySide    Category = "side"
	CategoryDungeon Category = "dungeon"
	CategoryRaid    Category = "raid"
	CategoryGroup   Category = "group"
	CategoryPvP     Category = "pvp"
	CategoryDaily   Category = "daily"
	CategoryUnknown Category = "unknown"
)

// CategoryDisplayNames maps categories to the labels shown in reports.
var CategoryDisplayNames = map[Category]string{
	CategoryMain:    "Main Story",
	CategorySide:    "Side Quest",
	CategoryDungeon: "Dungeon",
	CategoryRaid:    "Raid",
	CategoryGroup:   "Group",
	CategoryPvP:     "PvP",
	CategoryDaily:   "Daily",
	CategoryUnknown: "Unknown",
}

// ParseCategory maps a free-form value to a Category. Unrecognized values yield CategoryUnknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := CategoryDisplayNames[c]; ok {
		return c
	}
	return CategoryUnknown
}

// DisplayName returns the report label of a category.
func DisplayName(c Category) string {
	if name, ok := CategoryDisplayNames[c]; ok {
		return name
	}
	return CategoryDisplayNames[CategoryUnknown]
}

// TextOrder resolves which stored field is used as completion and which as reward text.
type TextOrder string

const (
	// TextOrderSwapped uses the reward text as completion and the completion text as reward.
	TextOrderSwapped TextOrder = "swapped"
	// TextOrderDirect uses each field as stored.
	TextOrderDirect TextOrder = "direct"
)

// DefaultTextOrder is the effective order used by existing baselines.
const DefaultTextOrder = TextOrderSwapped

// ParseTextOrder validates a configured text order. Empty selects the default.
func ParseTextOrder(s string) (TextOrder, error) {
	switch TextOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultTextOrder, nil
	case TextOrderSwapped:
		return TextOrderSwapped, nil
	case TextOrderDirect:
		return TextOrderDirect, nil
	default:
		return "", fmt.Errorf("unknown text order %q", s)
	}
}

// Quest is one localized quest record. It is read-only for the duration of a scan or apply.
type Quest struct {
	ID                    int      `json:"id"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Objectives            string   `json:"objectives"`
	Completion            string   `json:"completion"`
	RewardText            string   `json:"reward_text"`
	Zone                  string   `json:"zone"`
	Category              Category `json:"category"`
	IncompleteTranslation bool     `json:"incomplete_translation"`
}

// EffectiveTexts is the ordered text tuple used for fingerprinting.
type EffectiveTexts struct {
	Title       string
	Description string
	Objectives  string
	Completion  string
	Reward      string
}

// Fields returns the tuple in fingerprint order.
func (t EffectiveTexts) Fields() []string {
	return []string{t.Title, t.Description, t.Objectives, t.Completion, t.Reward}
}

// IsMainStory reports whether the quest belongs to the main story line.
func (q Quest) IsMainStory() bool {
	return q.Category == CategoryMain
}

// IsProblem reports whether the quest has incomplete localization.
func (q Quest) IsProblem() bool {
	return q.IncompleteTranslation
}

// EffectiveTexts resolves the text tuple under the given order.
func (q Quest) EffectiveTexts(order TextOrder) EffectiveTexts {
	t := EffectiveTexts{
		Title:       q.Title,
		Description: q.Description,
		Objectives:  q.Objectives,
		Completion:  q.Completion,
		Reward:      q.RewardText,
	}
	if order != TextOrderDirect {
		t.Completion, t.Reward = q.RewardText, q.Completion
	}
	return t
}

// Fingerprint returns the content fingerprint of the quest's effective text.
func (q Quest) Fingerprint(order TextOrder) string {
	return fingerprint.Of(q.EffectiveTexts(order).Fields()...)
}

// HasText reports whether any text field is present.
func (q Quest) HasText() bool {
	for _, f := range q.EffectiveTexts(TextOrderDirect).Fields() {
		if strings.TrimSpace(f) != "" {
			return true
		}
	}
	return false
}

// ByID indexes quests by ID. When IDs repeat, the last occurrence wins.
func ByID(list []Quest) map[int]Quest {
	out := make(map[int]Quest, len(list))
	for _, q := range list {
		out[q.ID] = q
	}
	return out
}
