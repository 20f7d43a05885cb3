package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of insurance document classes this service
// assigns. Oracle answers are mapped into it; nothing outside the four
// values ever reaches a response.
type Category string

const (
	CategoryLossRun           Category = "LossRun"
	CategoryAcordForm         Category = "AcordForm"
	CategorySupplementalForms Category = "SupplementalForms"
	CategoryModSheet          Category = "ModSheet"
)

func Categories() []Category {
	return []Category{
		CategoryLossRun,
		CategoryAcordForm,
		CategorySupplementalForms,
		CategoryModSheet,
	}
}

// DisplayName is the human label used when prompting the oracle.
func (c Category) DisplayName() string {
	switch c {
	case CategoryLossRun:
		return "Loss Run"
	case CategoryAcordForm:
		return "ACORD form"
	case CategorySupplementalForms:
		return "Supplemental forms"
	case CategoryModSheet:
		return "Mod sheet"
	default:
		return string(c)
	}
}

type phraseRule struct {
	phrase   []string
	category Category
}

// Taxonomy maps free-text oracle answers into the closed category set.
// Matching is case-insensitive and synonym-tolerant; answers that match
// nothing produce ErrAnswerUnrecognized, never a default category.
type Taxonomy struct {
	exact   map[string]Category
	phrases []phraseRule
}

func DefaultTaxonomy() *Taxonomy {
	t := &Taxonomy{exact: make(map[string]Category)}

	for _, c := range Categories() {
		t.addExact(string(c), c)
		t.addExact(c.DisplayName(), c)
	}
	t.addExact("loss runs", CategoryLossRun)
	t.addExact("acord", CategoryAcordForm)
	t.addExact("supplemental form", CategorySupplementalForms)
	t.addExact("supplemental", CategorySupplementalForms)
	t.addExact("mod", CategoryModSheet)
	t.addExact("emod", CategoryModSheet)
	t.addExact("experience mod", CategoryModSheet)

	t.addPhrase("loss run", CategoryLossRun)
	t.addPhrase("loss runs", CategoryLossRun)
	t.addPhrase("loss history", CategoryLossRun)
	t.addPhrase("claims history", CategoryLossRun)
	t.addPhrase("acord", CategoryAcordForm)
	t.addPhrase("supplemental", CategorySupplementalForms)
	t.addPhrase("endorsement", CategorySupplementalForms)
	t.addPhrase("rider", CategorySupplementalForms)
	t.addPhrase("mod sheet", CategoryModSheet)
	t.addPhrase("mod worksheet", CategoryModSheet)
	t.addPhrase("experience modification", CategoryModSheet)
	t.addPhrase("experience mod", CategoryModSheet)
	t.addPhrase("emod", CategoryModSheet)

	return t
}

func (t *Taxonomy) addExact(synonym string, category Category) {
	t.exact[normalizeAnswer(synonym)] = category
}

func (t *Taxonomy) addPhrase(phrase string, category Category) {
	fields := strings.Fields(normalizeAnswer(phrase))
	if len(fields) == 0 {
		return
	}
	t.phrases = append(t.phrases, phraseRule{phrase: fields, category: category})
}

// AddSynonym registers an extra exact-match synonym for a category.
func (t *Taxonomy) AddSynonym(category Category, synonym string) {
	if normalizeAnswer(synonym) == "" {
		return
	}
	t.addExact(synonym, category)
}

// Parse maps a raw oracle answer into a Category.
func (t *Taxonomy) Parse(raw string) (Category, error) {
	normalized := normalizeAnswer(raw)
	if normalized == "" {
		return "", WrapError(ErrAnswerUnrecognized, "parse category", fmt.Errorf("empty answer"))
	}

	if category, ok := t.exact[normalized]; ok {
		return category, nil
	}

	fields := strings.Fields(normalized)
	for _, rule := range t.phrases {
		if containsPhrase(fields, rule.phrase) {
			return rule.category, nil
		}
	}

	return "", WrapError(ErrAnswerUnrecognized, "parse category", fmt.Errorf("answer %q matches no category", raw))
}

// normalizeAnswer lowercases and collapses everything that is not a letter
// or digit, so "ACORD-25" and "acord 25" compare equal.
func normalizeAnswer(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func containsPhrase(fields, phrase []string) bool {
	if len(phrase) == 0 || len(fields) < len(phrase) {
		return false
	}
	for i := 0; i+len(phrase) <= len(fields); i++ {
		match := true
		for j, word := range phrase {
			if fields[i+j] != word {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
