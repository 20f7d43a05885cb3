package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type taxonomyFile struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// ExtendFromFile merges extra synonyms from a YAML file into the taxonomy.
// Keys must name one of the four categories (enum token or display name).
func (t *Taxonomy) ExtendFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read taxonomy file: %w", err)
	}

	var file taxonomyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse taxonomy file: %w", err)
	}

	for key, synonyms := range file.Synonyms {
		category, err := categoryFromToken(key)
		if err != nil {
			return err
		}
		for _, synonym := range synonyms {
			t.AddSynonym(category, synonym)
		}
	}
	return nil
}

func categoryFromToken(token string) (Category, error) {
	normalized := normalizeAnswer(token)
	for _, c := range Categories() {
		if normalized == normalizeAnswer(string(c)) || normalized == normalizeAnswer(c.DisplayName()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("taxonomy file references unknown category %q", strings.TrimSpace(token))
}
