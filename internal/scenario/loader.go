package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/webpilot/internal/config"
)

// DefaultScenarioExt is the file extension scenario files are expected to use.
const DefaultScenarioExt = ".yml"

// Load reads and validates a scenario from a YAML file.
// If the file does not exist, it returns ErrScenarioNotFound.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided scenario path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, path)
		}
		return nil, err
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Name == "" {
		// Fall back to the file name so reports and history stay readable.
		s.Name = strippedName(path)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}

	return &s, nil
}

// Find locates a scenario file by name. Search order:
// 1. If path exists as given, use it directly
// 2. Look in the current directory (with the default extension appended)
// 3. Look in the XDG config directory for webpilot
//
// Returns the resolved path, or empty string if not found.
func Find(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}

	candidates := []string{
		path + DefaultScenarioExt,
		filepath.Join(config.XDGConfigDir(), path),
		filepath.Join(config.XDGConfigDir(), path+DefaultScenarioExt),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// strippedName returns the file name without directory or extension.
func strippedName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
