package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/chishiki/internal/models"
	"go.uber.org/zap"
)

// ConvertJSONLToJSON reads a JSONL file and writes a single indented JSON
// array. Per line, a list-valued content field is joined into one string,
// non-string content is stringified, and content that ends up empty becomes
// null. Malformed lines are skipped with a warning; the count of converted
// records is returned.
func ConvertJSONLToJSON(inputPath, outputPath string, logger *zap.Logger) (int, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("open jsonl: %w", err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	// Blocks holding full tables can exceed the default 64KiB line limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		normalized, err := normalizeLine(line)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping invalid JSONL line",
					zap.Int("line", lineNo), zap.Error(err))
			}
			continue
		}
		records = append(records, normalized)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read jsonl: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return 0, fmt.Errorf("marshal corpus: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return 0, fmt.Errorf("write corpus: %w", err)
	}
	return len(records), nil
}

// normalizeLine rewrites the content field of one JSONL record: lists joined
// with spaces, scalars stringified, the empty string replaced by null.
// Whitespace-only content is kept as-is; all other fields pass through
// unchanged.
func normalizeLine(line []byte) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, err
	}
	if raw, ok := fields["content"]; ok && string(raw) != "null" {
		text := models.CoerceContent(raw)
		if text == "" {
			fields["content"] = json.RawMessage("null")
		} else {
			enc, err := json.Marshal(text)
			if err != nil {
				return nil, err
			}
			fields["content"] = enc
		}
	}
	return json.Marshal(fields)
}
