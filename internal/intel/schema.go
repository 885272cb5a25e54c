package intel

import (
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const analysisSchema = `{
  "type": "object",
  "properties": {
    "objects": {"type": "array", "items": {"type": "string"}},
    "faces": {"type": ["array", "null"], "items": {"type": "string"}},
    "scene": {"type": "string"},
    "text": {"type": ["string", "null"]},
    "isSensitive": {"type": "boolean"},
    "riskClassification": {"type": ["string", "null"]},
    "riskReason": {"type": ["string", "null"]},
    "dominantEmotion": {"type": "string"},
    "sentiment": {"enum": ["positive", "neutral", "negative"]},
    "locationEstimate": {"type": ["string", "null"]},
    "temporalContext": {"type": ["string", "null"]}
  },
  "required": ["objects", "scene", "isSensitive", "dominantEmotion", "sentiment"]
}`

const clusterSchema = `{
  "type": "object",
  "properties": {
    "albums": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "description": {"type": ["string", "null"]},
          "photoIds": {"type": "array", "items": {"type": "string"}},
          "category": {"enum": ["event", "timeline", "emotion", "privacy"]}
        },
        "required": ["title", "photoIds", "category"]
      }
    }
  },
  "required": ["albums"]
}`

const suggestionsSchema = `{
  "type": "object",
  "properties": {
    "suggestions": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

const matchesSchema = `{
  "type": "object",
  "properties": {
    "matchingIds": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

type schemaSet struct {
	analysis    *gojsonschema.Schema
	cluster     *gojsonschema.Schema
	suggestions *gojsonschema.Schema
	matches     *gojsonschema.Schema
}

var (
	schemasOnce sync.Once
	schemas     schemaSet
)

func loadSchemas() schemaSet {
	schemasOnce.Do(func() {
		schemas = schemaSet{
			analysis:    mustSchema(analysisSchema),
			cluster:     mustSchema(clusterSchema),
			suggestions: mustSchema(suggestionsSchema),
			matches:     mustSchema(matchesSchema),
		}
	})
	return schemas
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("intel: invalid built-in schema: " + err.Error())
	}
	return schema
}

func validate(schema *gojsonschema.Schema, kind string, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return malformed("%s: %v", kind, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return malformed("%s: %s", kind, strings.Join(problems, "; "))
}
