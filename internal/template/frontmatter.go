// Package template turns source text into reusable parameterized documents
// and back: markdown serialization with YAML front matter, keyword lookup
// with web bootstrap fallback, placeholder fill, prefill and question
// generation.
package template

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// VariableDef is one parameter declaration in a template's front matter.
type VariableDef struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	Description string `yaml:"description,omitempty"`
	Example     string `yaml:"example,omitempty"`
	Required    bool   `yaml:"required"`
	Type        string `yaml:"type,omitempty"`
}

// Doc is the parsed form of a template markdown file. Front matter is
// optional on read and mandatory on write.
type Doc struct {
	Title           string
	FileDescription string
	Jurisdiction    string
	DocType         string
	Variables       []VariableDef
	SimilarityTags  []string
	Body            string
}

type frontMatter struct {
	Title           string        `yaml:"title"`
	FileDescription string        `yaml:"file_description,omitempty"`
	Jurisdiction    string        `yaml:"jurisdiction,omitempty"`
	DocType         string        `yaml:"doc_type,omitempty"`
	Variables       []VariableDef `yaml:"variables,omitempty"`
	SimilarityTags  []string      `yaml:"similarity_tags,omitempty"`
}

// Parse splits markdown on the first two --- delimiters and decodes the YAML
// block between them. Input with fewer than three segments is treated as a
// bare body with no metadata.
func Parse(markdown string) (*Doc, error) {
	segments := strings.SplitN(markdown, "---", 3)
	if len(segments) < 3 {
		return &Doc{Body: strings.TrimSpace(markdown)}, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(segments[1]), &fm); err != nil {
		return nil, fmt.Errorf("parse front matter failed: %w", err)
	}
	return &Doc{
		Title:           fm.Title,
		FileDescription: fm.FileDescription,
		Jurisdiction:    fm.Jurisdiction,
		DocType:         fm.DocType,
		Variables:       fm.Variables,
		SimilarityTags:  fm.SimilarityTags,
		Body:            strings.TrimSpace(segments[2]),
	}, nil
}

// Render serializes a Doc back to markdown. The front matter block is always
// written, even when every field is empty, so rendered output is always
// re-parseable with metadata intact.
func Render(doc *Doc) (string, error) {
	fm := frontMatter{
		Title:           doc.Title,
		FileDescription: doc.FileDescription,
		Jurisdiction:    doc.Jurisdiction,
		DocType:         doc.DocType,
		Variables:       doc.Variables,
		SimilarityTags:  doc.SimilarityTags,
	}
	encoded, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("render front matter failed: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(encoded)
	b.WriteString("---\n\n")
	b.WriteString(doc.Body)
	b.WriteString("\n")
	return b.String(), nil
}
