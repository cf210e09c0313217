package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadContext reads an optional business-context YAML file (benchmarks,
// goals, vertical, audience notes) into the dataset context map.
func LoadContext(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read context file")
	}

	ctx := make(map[string]any)
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, eris.Wrap(err, "dataset: parse context yaml")
	}
	return ctx, nil
}
