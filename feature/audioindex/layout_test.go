package audioindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeZone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Elwynn Forest", "Elwynn_Forest"},
		{"St. Rustbolt", "St_Rustbolt"},
		{"Ahn'Qiraj: The Fallen Kingdom", "Ahn'Qiraj_The_Fallen_Kingdom"},
		{"a/b\\c", "a_b_c"},
		{"", UnknownZone},
		{" ... ", UnknownZone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeZone(tt.in), tt.in)
	}
}

func TestAudioPath(t *testing.T) {
	got := AudioPath("/out", "deDE", GenderFemale, "Elwynn Forest", 42, ".MP3")
	assert.Equal(t, filepath.Join("/out", "audio", "deDE", "female", "Elwynn_Forest", "quest_42.mp3"), got)

	assert.Equal(t, "audio/deDE/male/Unknown/quest_7.ogg", ObjectKey("audio", "deDE", GenderMale, "", 7, "ogg"))
}

func TestParseFileName(t *testing.T) {
	exts := extensionSet([]string{"mp3", ".OGG"})
	tests := []struct {
		name string
		id   int
		ok   bool
	}{
		{"quest_12.mp3", 12, true},
		{"quest_12.MP3", 12, true},
		{"quest_5.ogg", 5, true},
		{"quest_12.wav", 0, false},
		{"quest_x.mp3", 0, false},
		{"quest_0.mp3", 0, false},
		{"npc_12.mp3", 0, false},
		{"quest_12", 0, false},
		{"quest_+5.mp3", 0, false},
		{"quest_007.mp3", 0, false},
		{"quest_-3.mp3", 0, false},
	}
	for _, tt := range tests {
		id, ok := parseFileName(tt.name, exts)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.id, id, tt.name)
	}
}
