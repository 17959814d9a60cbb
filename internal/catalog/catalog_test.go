package catalog

import "testing"

func TestDefaultCatalog(t *testing.T) {
	categories, err := Default()
	if err != nil {
		t.Fatalf("load embedded catalog: %v", err)
	}
	if len(categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(categories))
	}
	for id, cat := range categories {
		if cat.ID != id {
			t.Errorf("category %q: ID field %q does not match key", id, cat.ID)
		}
		if cat.Name == "" {
			t.Errorf("category %q: empty name", id)
		}
		if cat.Theme.Primary == "" || cat.Theme.Secondary == "" || cat.Theme.Accent == "" {
			t.Errorf("category %q: incomplete theme %+v", id, cat.Theme)
		}
		if len(cat.Questions) != 5 {
			t.Errorf("category %q: expected 5 questions, got %d", id, len(cat.Questions))
		}
		for i, q := range cat.Questions {
			if q.Text == "" {
				t.Errorf("category %q question %d: empty text", id, i)
			}
			if len(q.Options) < 2 {
				t.Errorf("category %q question %d: too few options", id, i)
			}
			found := false
			for _, opt := range q.Options {
				if opt == q.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("category %q question %d: correct answer %q not among options %v", id, i, q.CorrectAnswer, q.Options)
			}
		}
	}
}

func TestIDsSorted(t *testing.T) {
	categories := MustDefault()
	ids := IDs(categories)
	if len(ids) != len(categories) {
		t.Fatalf("expected %d ids, got %d", len(categories), len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not sorted: %v", ids)
		}
	}
}
