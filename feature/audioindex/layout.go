package audioindex

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"quest-voice/core/utils"
)

// UnknownZone is the directory used for quests without a usable zone name.
const UnknownZone = "Unknown"

// SanitizeZone turns a zone name into a directory segment.
func SanitizeZone(zone string) string {
	return utils.SanitizePathSegment(zone, UnknownZone)
}

// FileName returns the audio file name of a quest.
func FileName(questID int, ext string) string {
	return fmt.Sprintf("quest_%d.%s", questID, normalizeExt(ext))
}

// AudioPath builds <root>/audio/<lang>/<gender>/<zone>/quest_<id>.<ext>.
func AudioPath(root, languageCode string, gender Gender, zone string, questID int, ext string) string {
	return filepath.Join(root, "audio", languageCode, string(gender), SanitizeZone(zone), FileName(questID, ext))
}

// ObjectKey builds the object storage key mirroring AudioPath under prefix.
func ObjectKey(prefix, languageCode string, gender Gender, zone string, questID int, ext string) string {
	return path.Join(prefix, languageCode, string(gender), SanitizeZone(zone), FileName(questID, ext))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// parseFileName extracts the quest ID from quest_<id>.<ext> when ext is accepted.
func parseFileName(name string, exts map[string]struct{}) (int, bool) {
	stem, ext, ok := strings.Cut(name, ".")
	if !ok {
		return 0, false
	}
	if _, accepted := exts[strings.ToLower(ext)]; !accepted {
		return 0, false
	}
	idText, ok := strings.CutPrefix(stem, "quest_")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(idText)
	if err != nil || id <= 0 || strconv.Itoa(id) != idText {
		return 0, false
	}
	return id, true
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{"mp3"}
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if n := normalizeExt(e); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
