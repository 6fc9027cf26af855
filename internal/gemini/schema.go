package gemini

// Schema is the response-schema fragment the backend uses for guided JSON
// generation. Field descriptions steer the model, so every leaf carries one.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func str(desc string) *Schema {
	return &Schema{Type: "string", Description: desc}
}

func strArray(desc string) *Schema {
	return &Schema{Type: "array", Description: desc, Items: &Schema{Type: "string"}}
}

// OutlineSchema describes the full-paper outline shape.
func OutlineSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"title":    str("The full title of the research paper"),
			"authors":  strArray("List of paper authors"),
			"abstract": str("Paper abstract or summary"),
			"sections": {
				Type:        "array",
				Description: "Main sections of the paper",
				Items:       sectionSchema(),
			},
			"keywords": strArray("Key terms and concepts in the paper"),
		},
		Required: []string{"title", "sections"},
	}
}

func sectionSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"title":       str("Section title"),
			"description": str("Brief description of section content"),
			"subsections": strArray("List of subsection titles if any"),
		},
		Required: []string{"title"},
	}
}

// SectionExpansionSchema describes the detailed shape for one section.
func SectionExpansionSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"section_title": str("The title of the section being expanded"),
			"summary":       str("Comprehensive summary of the section (2-3 paragraphs)"),
			"key_points":    strArray("Main points and findings in this section"),
			"methodologies": {
				Type:        "array",
				Description: "Methods or approaches described (if applicable)",
				Items: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"name":        str("Methodology name"),
						"description": str("How the methodology is applied"),
					},
					Required: []string{"name", "description"},
				},
			},
			"results": {
				Type:        "array",
				Description: "Key results or findings (if applicable)",
				Items: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"finding":      str("The result or finding"),
						"significance": str("Why the finding matters"),
					},
					Required: []string{"finding", "significance"},
				},
			},
			"figures_and_tables": {
				Type:        "array",
				Description: "Visual elements referenced in this section",
				Items: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"type":        str("Type: figure, table, or equation"),
						"caption":     str("Caption as printed in the paper"),
						"description": str("What the element shows"),
					},
					Required: []string{"type", "caption", "description"},
				},
			},
			"citations": strArray("Key references cited in this section"),
		},
		Required: []string{"section_title", "summary", "key_points"},
	}
}
