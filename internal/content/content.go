// Package content validates and decodes the schemaless site content blocks
// (hero, FAQ) and the agent profile against embedded JSON Schemas.
package content

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// SchemaAgent names the agent profile schema.
const SchemaAgent = "agent"

var compiledSchemas = mustCompile()

func mustCompile() map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	paths, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		log.Fatalf("listing content schemas: %v", err)
	}
	for _, path := range paths {
		data, err := schemaFS.ReadFile(path)
		if err != nil {
			log.Fatalf("reading schema %s: %v", path, err)
		}
		if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
			log.Fatalf("adding schema resource %s: %v", path, err)
		}
	}

	out := make(map[string]*jsonschema.Schema, len(paths))
	for _, path := range paths {
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("compiling schema %s: %v", path, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "schemas/"), ".json")
		out[name] = schema
	}
	return out
}

// Sections lists every site content section with a schema.
func Sections() []models.ContentSection {
	return []models.ContentSection{models.SectionHero, models.SectionFAQ}
}

// ParseSection maps a path segment to a known section.
func ParseSection(s string) (models.ContentSection, bool) {
	for _, section := range Sections() {
		if string(section) == s {
			return section, true
		}
	}
	return "", false
}

// ValidateJSON checks payload against the named schema. Schema violations are
// returned as a *errs.ValidationError with one field per offending location.
func ValidateJSON(name string, payload []byte) error {
	schema, ok := compiledSchemas[name]
	if !ok {
		return fmt.Errorf("no schema named %q", name)
	}

	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		verr := &errs.ValidationError{}
		verr.Add("body", "is not valid JSON: %v", err)
		return verr
	}

	if err := schema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return toValidationError(ve)
		}
		return fmt.Errorf("validate %s: %w", name, err)
	}
	return nil
}

func toValidationError(ve *jsonschema.ValidationError) *errs.ValidationError {
	out := &errs.ValidationError{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out.Add(fieldName(e.InstanceLocation), "%s", e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.SliceStable(out.Fields, func(i, j int) bool { return out.Fields[i].Field < out.Fields[j].Field })
	return out
}

// fieldName turns a JSON pointer such as /items/0/question into items.0.question.
func fieldName(pointer string) string {
	p := strings.Trim(pointer, "/")
	if p == "" {
		return "content"
	}
	return strings.ReplaceAll(p, "/", ".")
}

// Decode validates payload for section and returns the typed content.
func Decode(section models.ContentSection, payload []byte) (models.SiteContent, error) {
	if err := ValidateJSON(string(section), payload); err != nil {
		return nil, err
	}
	switch section {
	case models.SectionHero:
		var hero models.HeroContent
		if err := json.Unmarshal(payload, &hero); err != nil {
			return nil, fmt.Errorf("decode hero content: %w", err)
		}
		return hero, nil
	case models.SectionFAQ:
		var faq models.FAQContent
		if err := json.Unmarshal(payload, &faq); err != nil {
			return nil, fmt.Errorf("decode faq content: %w", err)
		}
		return faq, nil
	default:
		return nil, fmt.Errorf("unknown content section %q", section)
	}
}

// FromRaw validates a stored document and returns the typed content.
func FromRaw(section models.ContentSection, raw bson.Raw) (models.SiteContent, error) {
	payload, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert stored %s content: %w", section, err)
	}
	return Decode(section, payload)
}

// ToRaw encodes typed content for storage.
func ToRaw(c models.SiteContent) (bson.Raw, error) {
	data, err := bson.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s content: %w", c.Section(), err)
	}
	return bson.Raw(data), nil
}
