package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRoot is returned for a curriculum root that cannot be used as a
// path prefix filter.
var ErrInvalidRoot = errors.New("domain: invalid root")

// DefaultRoot is the curriculum root all accounted XP lives under.
const DefaultRoot = "/athens/div-01"

// CategoryRules classifies transaction paths by prefix under a curriculum root.
//
//	checkpoint: <root>/checkpoint*
//	piscine:    <root> exactly, or <root>/piscine-js*
//	project:    <root>/* except the two above
//	other:      anything else
type CategoryRules struct {
	Root string
}

// DefaultCategoryRules returns the rules for DefaultRoot.
func DefaultCategoryRules() CategoryRules {
	return CategoryRules{Root: DefaultRoot}
}

func (r CategoryRules) root() string {
	root := strings.TrimRight(r.Root, "/")
	if root == "" {
		return DefaultRoot
	}
	return root
}

// Validate checks that the root is an absolute path made of letters, digits
// and "/-._". Anything else could break out of a query string literal or act
// as a LIKE wildcard.
func (r CategoryRules) Validate() error {
	root := r.root()
	if !strings.HasPrefix(root, "/") {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidRoot, r.Root)
	}
	for _, ch := range root {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '/', ch == '-', ch == '.', ch == '_':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidRoot, r.Root, ch)
		}
	}
	return nil
}

// Classify returns the category of a transaction path.
func (r CategoryRules) Classify(path string) Category {
	root := r.root()
	switch {
	case strings.HasPrefix(path, root+"/checkpoint"):
		return CategoryCheckpoint
	case path == root, strings.HasPrefix(path, root+"/piscine-js"):
		return CategoryPiscine
	case strings.HasPrefix(path, root+"/"):
		return CategoryProject
	default:
		return CategoryOther
	}
}

// WhereClause returns the GraphQL `where` argument selecting xp transactions
// of category c. CategoryOther has no server-side filter.
func (r CategoryRules) WhereClause(c Category) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	root := r.root()
	switch c {
	case CategoryProject:
		return fmt.Sprintf(`{_and: [{type: {_eq: "xp"}}, {path: {_like: "%s/%%"}}, {path: {_nlike: "%s/checkpoint%%"}}, {path: {_nlike: "%s/piscine-js%%"}}]}`, root, root, root), nil
	case CategoryCheckpoint:
		return fmt.Sprintf(`{_and: [{type: {_eq: "xp"}}, {path: {_like: "%s/checkpoint%%"}}]}`, root), nil
	case CategoryPiscine:
		return fmt.Sprintf(`{_and: [{type: {_eq: "xp"}}, {_or: [{path: {_eq: "%s"}}, {path: {_like: "%s/piscine-js%%"}}]}]}`, root, root), nil
	default:
		return "", fmt.Errorf("domain: no filter for category %q", c)
	}
}
