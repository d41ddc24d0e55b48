// Package homepage imports links from Homepage (gethomepage.dev)
// services.yaml and bookmarks.yaml files.
package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/routine/internal/domain"
)

// Source names.
const (
	SourceServices  = "services"
	SourceBookmarks = "bookmarks"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Source produces create inputs from one file.
type Source struct {
	name     string
	filePath string
	decode   func(data []byte) ([]domain.CreateInput, error)
}

// NewServicesSource reads a Homepage services.yaml.
func NewServicesSource(filePath string) *Source {
	return &Source{
		name:     SourceServices,
		filePath: filePath,
		decode: func(data []byte) ([]domain.CreateInput, error) {
			var cfg ServicesConfig
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse services yaml: %w", err)
			}
			return MapServices(cfg), nil
		},
	}
}

// NewBookmarksSource reads a Homepage bookmarks.yaml.
func NewBookmarksSource(filePath string) *Source {
	return &Source{
		name:     SourceBookmarks,
		filePath: filePath,
		decode: func(data []byte) ([]domain.CreateInput, error) {
			var cfg BookmarksConfig
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
			}
			return MapBookmarks(cfg), nil
		},
	}
}

// Name identifies the source in logs and metrics.
func (s *Source) Name() string { return s.name }

// Path returns the file the source reads.
func (s *Source) Path() string { return s.filePath }

// Load reads, parses and maps the file.
func (s *Source) Load() ([]domain.CreateInput, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", s.name, err)
	}

	// Homepage template variables ({{HOMEPAGE_VAR_...}}) are not resolvable here
	return s.decode(stripTemplateVariables(data))
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
