package knowledge

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

const entrySchemaJSON = `{
	"type": "object",
	"required": ["id", "type", "text", "tags"],
	"additionalProperties": false,
	"properties": {
		"id":     {"type": "string", "minLength": 1},
		"type":   {"type": "string", "enum": ["fact", "qa", "menu"]},
		"text":   {"type": "string", "minLength": 1},
		"tags":   {"type": "array", "items": {"type": "string"}},
		"source": {"type": "string"}
	}
}`

var entrySchema = mustSchema(entrySchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid knowledge entry schema: %v", err))
	}
	return s
}

// Validate checks an entry against the JSONL line schema.
func Validate(entry entity.KnowledgeEntry) error {
	result, err := entrySchema.Validate(gojsonschema.NewGoLoader(entry))
	if err != nil {
		return fmt.Errorf("validate entry %q: %w", entry.ID, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid entry %q: %s", entry.ID, strings.Join(msgs, "; "))
}

// WriteJSONL writes one JSON object per line. Nothing is written past the
// first invalid entry.
func WriteJSONL(w io.Writer, entries []entity.KnowledgeEntry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := Validate(e); err != nil {
			return err
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
