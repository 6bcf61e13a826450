package audioindex

import (
	"errors"
	"fmt"
	"os"
	"time"

	"quest-voice/core/utils"

	"github.com/goccy/go-json"
)

// IndexFileName is the persisted index file under the output root.
const IndexFileName = "audio_index.json"

type indexFile struct {
	LanguageCode string    `json:"language_code"`
	BuiltAt      time.Time `json:"built_at"`
	SavedAt      time.Time `json:"saved_at"`
	Entries      []Entry   `json:"entries"`
}

// Save writes the index atomically.
func (ix *Index) Save(path string) error {
	entries := ix.Entries()
	ix.mu.RLock()
	file := indexFile{
		LanguageCode: ix.language,
		BuiltAt:      ix.builtAt,
		SavedAt:      time.Now().UTC(),
		Entries:      entries,
	}
	ix.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode audio index: %w", err)
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save audio index: %w", err)
	}
	return nil
}

// Load reads a persisted index. A missing file returns (nil, os.ErrNotExist).
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read audio index: %w", err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode audio index %s: %w", path, err)
	}

	ix := New(file.LanguageCode)
	ix.builtAt = file.BuiltAt
	for _, e := range file.Entries {
		if e.QuestID <= 0 {
			continue
		}
		if _, err := ParseGender(string(e.Gender)); err != nil {
			continue
		}
		ix.put(e)
	}
	return ix, nil
}
