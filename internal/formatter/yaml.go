package formatter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemagraph/internal/schema"
)

// YAMLFormatter writes the whole graph as a YAML snapshot.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a YAML snapshot formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format encodes s. Cross references appear as owner/name keys.
func (f *YAMLFormatter) Format(s *schema.Schema) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}
