package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// Field sources
const (
	SourceForm   = "form"
	SourceEntity = "entity"
)

// Field is a named value extracted by Document AI
type Field struct {
	Name   string // Field name, nested entity types joined with "/"
	Value  string // Field value text
	Page   int    // 1-based page the field was found on, 0 if unknown
	Source string // SourceForm or SourceEntity
}

// Target returns the field as a "Name: Value" search target
func (f Field) Target() string {
	if f.Name == "" {
		return f.Value
	}
	return f.Name + ": " + f.Value
}

// ExtractFields lists the form fields of every page followed by the
// custom extractor entities, in document order. Entities with properties
// contribute one field per leaf property.
func ExtractFields(doc *documentaipb.Document) []Field {
	if doc == nil {
		return nil
	}

	var fields []Field
	for i, page := range doc.Pages {
		pageNumber := int(page.GetPageNumber())
		if pageNumber <= 0 {
			pageNumber = i + 1
		}
		for _, field := range page.FormFields {
			name := strings.TrimSpace(textFromLayout(field.GetFieldName(), doc.Text))
			name = strings.TrimSpace(strings.TrimSuffix(name, ":"))
			value := cleanText(textFromLayout(field.GetFieldValue(), doc.Text))
			if name == "" {
				continue
			}
			fields = append(fields, Field{Name: name, Value: value, Page: pageNumber, Source: SourceForm})
		}
	}

	for _, entity := range doc.Entities {
		fields = appendEntity(fields, entity, "", doc.Text)
	}
	return fields
}

// appendEntity adds an entity and, recursively, its properties
func appendEntity(fields []Field, entity *documentaipb.Document_Entity, parent string, fullText string) []Field {
	if entity.GetType() == "" {
		return fields
	}
	name := entity.GetType()
	if parent != "" {
		name = parent + "/" + name
	}

	if len(entity.Properties) > 0 {
		for _, prop := range entity.Properties {
			fields = appendEntity(fields, prop, name, fullText)
		}
		return fields
	}

	value := strings.TrimSpace(entity.GetMentionText())
	if value == "" {
		value = cleanText(textFromAnchor(entity.GetTextAnchor(), fullText))
	}
	if value == "" {
		return fields
	}
	return append(fields, Field{Name: name, Value: value, Page: entityPage(entity), Source: SourceEntity})
}

// entityPage returns the 1-based page of the entity's first page anchor
func entityPage(entity *documentaipb.Document_Entity) int {
	refs := entity.GetPageAnchor().GetPageRefs()
	if len(refs) == 0 {
		return 0
	}
	return int(refs[0].GetPage()) + 1
}

// FieldMap groups fields by name. A name seen with different values maps
// to a []string of the distinct values in order.
func FieldMap(fields []Field) map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range fields {
		existing, exists := out[f.Name]
		if !exists {
			out[f.Name] = f.Value
			continue
		}
		switch v := existing.(type) {
		case string:
			if v != f.Value {
				out[f.Name] = []string{v, f.Value}
			}
		case []string:
			if !contains(v, f.Value) {
				out[f.Name] = append(v, f.Value)
			}
		}
	}
	return out
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
