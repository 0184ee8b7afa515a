package vlm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hyperjump/chishiki/internal/models"
)

// listPattern captures the outermost JSON list of objects, so chatter the
// model adds before or after the payload is discarded.
var listPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

// ParseBlocks parses raw model output into content blocks. Three lines of
// defense, in order: capture the JSON list from surrounding text, strict JSON
// parsing, then automatic repair of common model mistakes (unclosed strings,
// trailing commas). If all fail, the raw text is preserved in a single
// error_parsing block so no page output is lost. The returned bool reports
// whether repair was needed.
func ParseBlocks(raw string) ([]models.Block, bool) {
	text := strings.TrimSpace(raw)

	if m := listPattern.FindString(text); m != "" {
		text = m
	} else if idx := strings.Index(text, "["); idx >= 0 {
		// No complete list found; take everything from the first bracket and
		// let the repair step close it.
		text = text[idx:]
	}

	var blocks []models.Block
	if err := json.Unmarshal([]byte(text), &blocks); err == nil {
		return blocks, false
	}

	if repaired, err := jsonrepair.JSONRepair(text); err == nil {
		if err := json.Unmarshal([]byte(repaired), &blocks); err == nil {
			return blocks, true
		}
	}

	return []models.Block{{
		Type:       models.BlockTypeParseError,
		Content:    "JSON parsing failed",
		RawContent: text,
	}}, false
}
