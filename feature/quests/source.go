package quests

import (
	"context"
	"fmt"
	"os"
	"strings"

	"quest-voice/core/database"
	"quest-voice/core/utils"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Source produces the current quest catalog.
type Source interface {
	Load(ctx context.Context) ([]Quest, error)
}

// JSONFileSource reads a quest export file (a JSON array).
type JSONFileSource struct {
	Path string
}

// NewJSONFileSource creates a source reading the given file.
func NewJSONFileSource(path string) *JSONFileSource {
	return &JSONFileSource{Path: path}
}

// jsonQuest is the on-disk record. Older exports use quest_id and is_main_story.
type jsonQuest struct {
	ID                    *int   `json:"id"`
	QuestID               *int   `json:"quest_id"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	Objectives            string `json:"objectives"`
	Completion            string `json:"completion"`
	RewardText            string `json:"reward_text"`
	Zone                  string `json:"zone"`
	Category              string `json:"category"`
	IsMainStory           bool   `json:"is_main_story"`
	IncompleteTranslation bool   `json:"incomplete_translation"`
}

func (j jsonQuest) toQuest() Quest {
	q := Quest{
		Title:                 j.Title,
		Description:           j.Description,
		Objectives:            j.Objectives,
		Completion:            j.Completion,
		RewardText:            j.RewardText,
		Zone:                  j.Zone,
		Category:              ParseCategory(j.Category),
		IncompleteTranslation: j.IncompleteTranslation,
	}
	switch {
	case j.ID != nil:
		q.ID = *j.ID
	case j.QuestID != nil:
		q.ID = *j.QuestID
	}
	if j.Category == "" && j.IsMainStory {
		q.Category = CategoryMain
	}
	return q
}

// Load reads and decodes the file. Records without a positive ID are skipped.
func (s *JSONFileSource) Load(ctx context.Context) ([]Quest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quest file: %w", err)
	}

	var raw []jsonQuest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse quest file %s: %w", s.Path, err)
	}

	out := make([]Quest, 0, len(raw))
	for _, r := range raw {
		q := r.toQuest()
		if q.ID <= 0 {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// dbColumns are the columns DBSource reads.
var dbColumns = []string{
	"id", "title", "description", "objectives", "completion",
	"reward_text", "zone", "category", "incomplete_translation",
}

// DBSource reads quests from a database table.
type DBSource struct {
	DB    *gorm.DB
	Table string
}

// NewDBSource creates a database-backed source.
func NewDBSource(db *gorm.DB, table string) *DBSource {
	return &DBSource{DB: db, Table: table}
}

// Load verifies the table schema and reads every row ordered by ID.
func (s *DBSource) Load(ctx context.Context) ([]Quest, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("quest database not connected")
	}

	missing, err := database.MissingColumns(s.DB, s.Table, dbColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", s.Table, err)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("table %s is missing columns: %s", s.Table, strings.Join(missing, ", "))
	}

	var rows []map[string]interface{}
	if err := s.DB.WithContext(ctx).Table(s.Table).Select(dbColumns).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query quests: %w", err)
	}

	out := make([]Quest, 0, len(rows))
	for _, row := range rows {
		q := Quest{
			ID:                    utils.ToInt(row["id"]),
			Title:                 utils.ToString(row["title"]),
			Description:           utils.ToString(row["description"]),
			Objectives:            utils.ToString(row["objectives"]),
			Completion:            utils.ToString(row["completion"]),
			RewardText:            utils.ToString(row["reward_text"]),
			Zone:                  utils.ToString(row["zone"]),
			Category:              ParseCategory(utils.ToString(row["category"])),
			IncompleteTranslation: utils.ToBool(row["incomplete_translation"]),
		}
		if q.ID <= 0 {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
