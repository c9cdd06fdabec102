package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestCategoryRules_Classify(t *testing.T) {
	rules := DefaultCategoryRules()
	cases := []struct {
		path string
		want Category
	}{
		{"/athens/div-01/checkpoint-1", CategoryCheckpoint},
		{"/athens/div-01/checkpoint", CategoryCheckpoint},
		{"/athens/div-01/checkpoint/go-reloaded", CategoryCheckpoint},
		{"/athens/div-01", CategoryPiscine},
		{"/athens/div-01/piscine-js", CategoryPiscine},
		{"/athens/div-01/piscine-js/quest-01", CategoryPiscine},
		{"/athens/div-01/foo", CategoryProject},
		{"/athens/div-01/graphql", CategoryProject},
		{"/athens/div-01/piscine-go", CategoryProject},
		{"/athens/div-01-extra/foo", CategoryOther},
		{"/athens/piscine-go/quest-01", CategoryOther},
		{"", CategoryOther},
	}
	for _, tc := range cases {
		if got := rules.Classify(tc.path); got != tc.want {
			t.Fatalf("classify %q: expected %s, got %s", tc.path, tc.want, got)
		}
	}
}

func TestCategoryRules_CustomRootTrailingSlash(t *testing.T) {
	rules := CategoryRules{Root: "/paris/div-02/"}
	if got := rules.Classify("/paris/div-02/checkpoint-3"); got != CategoryCheckpoint {
		t.Fatalf("expected checkpoint, got %s", got)
	}
	if got := rules.Classify("/athens/div-01/foo"); got != CategoryOther {
		t.Fatalf("expected other, got %s", got)
	}
}

func TestCategoryRules_WhereClause(t *testing.T) {
	rules := DefaultCategoryRules()
	project, err := rules.WhereClause(CategoryProject)
	if err != nil {
		t.Fatalf("project where: %v", err)
	}
	for _, want := range []string{`_like: "/athens/div-01/%"`, `_nlike: "/athens/div-01/checkpoint%"`, `_nlike: "/athens/div-01/piscine-js%"`} {
		if !strings.Contains(project, want) {
			t.Fatalf("project where missing %s: %s", want, project)
		}
	}
	piscine, err := rules.WhereClause(CategoryPiscine)
	if err != nil {
		t.Fatalf("piscine where: %v", err)
	}
	if !strings.Contains(piscine, `_eq: "/athens/div-01"`) {
		t.Fatalf("piscine where missing root match: %s", piscine)
	}
	if _, err := rules.WhereClause(CategoryOther); err == nil {
		t.Fatalf("expected error for other category")
	}
}

func TestCategoryRules_RejectsUnsafeRoot(t *testing.T) {
	for _, root := range []string{`/athens"}}) { x }`, "/athens/div 01", "/athens/div-01%", `/athens\div`, "athens/div-01"} {
		rules := CategoryRules{Root: root}
		if err := rules.Validate(); !errors.Is(err, ErrInvalidRoot) {
			t.Fatalf("root %q: expected ErrInvalidRoot, got %v", root, err)
		}
		for _, c := range []Category{CategoryProject, CategoryCheckpoint, CategoryPiscine} {
			if _, err := rules.WhereClause(c); !errors.Is(err, ErrInvalidRoot) {
				t.Fatalf("root %q %s: expected ErrInvalidRoot, got %v", root, c, err)
			}
		}
	}
	for _, root := range []string{"", "/athens/div-01", "/paris/div_02.b/"} {
		if err := (CategoryRules{Root: root}).Validate(); err != nil {
			t.Fatalf("root %q: unexpected error %v", root, err)
		}
	}
}
