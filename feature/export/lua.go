package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"quest-voice/feature/audioindex"
)

// luaData renders the voiced quest table, sorted by quest ID.
func luaData(languageCode string, voiced map[int]map[audioindex.Gender]string) []byte {
	ids := make([]int, 0, len(voiced))
	for id := range voiced {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b bytes.Buffer
	b.WriteString("-- Generated by quest-voice. Do not edit.\n")
	b.WriteString("QuestVoiceData = {\n")
	fmt.Fprintf(&b, "  language = %s,\n", luaString(languageCode))
	fmt.Fprintf(&b, "  count = %d,\n", len(ids))
	b.WriteString("  quests = {\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "    [%d] = {", id)
		sep := " "
		for _, g := range audioindex.Genders {
			p, ok := voiced[id][g]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "%s%s = %s", sep, g, luaString(p))
			sep = ", "
		}
		b.WriteString(" },\n")
	}
	b.WriteString("  },\n")
	b.WriteString("}\n")
	return b.Bytes()
}

var luaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func luaString(s string) string {
	return `"` + luaEscaper.Replace(s) + `"`
}
