package platform

import (
	"fmt"

	"xp-dashboard/internal/profile/domain"
)

// Query is a GraphQL document plus the top-level field holding its records.
type Query struct {
	Name      string
	Field     string
	Document  string
	Variables map[string]any
}

// MaxObjectIDs caps the ids sent in one object lookup.
const MaxObjectIDs = 50

// UserQuery selects the authenticated user.
func UserQuery() Query {
	return Query{Name: "user", Field: "user", Document: `query {
  user { id login firstName lastName email createdAt }
}`}
}

// TransactionsQuery selects the xp transactions of category c, newest first.
func TransactionsQuery(rules domain.CategoryRules, c domain.Category) (Query, error) {
	where, err := rules.WhereClause(c)
	if err != nil {
		return Query{}, err
	}
	return Query{Name: string(c) + "_xp", Field: "transaction", Document: fmt.Sprintf(`query {
  transaction(where: %s, order_by: {createdAt: desc}) {
    amount createdAt path objectId
    object { id name type }
  }
}`, where)}, nil
}

// ResultsQuery selects audit results, newest first.
func ResultsQuery() Query {
	return Query{Name: "results", Field: "result", Document: `query {
  result(order_by: {createdAt: desc}) {
    id grade type createdAt path
    object { id name type }
  }
}`}
}

// ProgressQuery selects progress records, newest first.
func ProgressQuery() Query {
	return Query{Name: "progress", Field: "progress", Document: `query {
  progress(order_by: {createdAt: desc}) {
    id grade createdAt path
    object { id name type }
  }
}`}
}

// ObjectsQuery looks up object names by id. At most MaxObjectIDs ids are sent.
func ObjectsQuery(ids []int64) Query {
	if len(ids) > MaxObjectIDs {
		ids = ids[:MaxObjectIDs]
	}
	return Query{Name: "objects", Field: "object", Document: `query($ids: [Int!]!) {
  object(where: {id: {_in: $ids}}) { id name type }
}`, Variables: map[string]any{"ids": ids}}
}
