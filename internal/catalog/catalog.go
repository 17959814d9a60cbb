// Package catalog ships the built-in category data used when no database
// backend is configured.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"quiz-arcade/internal/domain"
)

//go:embed categories.json
var categoriesJSON []byte

// Default parses the embedded catalog. The category ID is the map key.
func Default() (map[string]domain.Category, error) {
	var raw map[string]domain.Category
	if err := json.Unmarshal(categoriesJSON, &raw); err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}
	for id, cat := range raw {
		cat.ID = id
		raw[id] = cat
	}
	return raw, nil
}

// MustDefault is Default for wiring paths where the embedded data being
// unparsable is a programming error.
func MustDefault() map[string]domain.Category {
	cats, err := Default()
	if err != nil {
		panic(err)
	}
	return cats
}

// IDs returns the category identifiers in stable order.
func IDs(cats map[string]domain.Category) []string {
	ids := make([]string, 0, len(cats))
	for id := range cats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
