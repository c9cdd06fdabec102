package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestRecords_Shapes(t *testing.T) {
	if got := Records(decode(t, `{"id": 1}`)); len(got) != 1 {
		t.Fatalf("single object: expected 1 record, got %d", len(got))
	}
	if got := Records(decode(t, `[{"id": 1}, 3, {"id": 2}]`)); len(got) != 2 {
		t.Fatalf("array: expected 2 records, got %d", len(got))
	}
	if got := Records(nil); got != nil {
		t.Fatalf("nil: expected nil, got %v", got)
	}
	if got := Records("nope"); got != nil {
		t.Fatalf("string: expected nil, got %v", got)
	}
}

func TestNormalizer_Transactions(t *testing.T) {
	raw := Records(decode(t, `[
		{"amount": 100, "createdAt": "2024-01-01", "path": "/athens/div-01/foo", "objectId": 7, "object": {"name": "foo", "type": "project"}},
		{"amount": 50, "createdAt": "2024-01-01T10:00:00.123456+00:00", "path": "/athens/div-01/checkpoint-1"},
		{"createdAt": "2024-01-02", "path": "/athens/div-01/foo"},
		{"amount": 10, "createdAt": "not a date", "path": "/athens/div-01/foo"},
		{"amount": -20, "createdAt": "2024-02-01T00:00:00Z", "path": "/elsewhere", "object": [{"id": 9, "name": "nine"}]}
	]`))

	var dropped []*MalformedRecordError
	n := NewNormalizer(DefaultCategoryRules())
	n.OnDrop = func(err *MalformedRecordError) { dropped = append(dropped, err) }

	got := n.Transactions(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped, got %d", len(dropped))
	}
	if dropped[0].Index != 2 || dropped[1].Index != 3 {
		t.Fatalf("unexpected dropped indexes: %d, %d", dropped[0].Index, dropped[1].Index)
	}

	first := got[0]
	if first.Amount != 100 || first.Category != CategoryProject || first.ObjectID != 7 || first.ObjectName != "foo" {
		t.Fatalf("unexpected first transaction: %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %s", first.Timestamp)
	}
	if got[1].Category != CategoryCheckpoint {
		t.Fatalf("expected checkpoint, got %s", got[1].Category)
	}
	last := got[2]
	if last.Amount != -20 || last.Category != CategoryOther || last.ObjectID != 9 || last.ObjectName != "nine" {
		t.Fatalf("unexpected last transaction: %+v", last)
	}
}

func TestNormalizer_ResultsDropUngraded(t *testing.T) {
	raw := Records(decode(t, `[
		{"grade": 1, "createdAt": "2024-01-01", "object": {"name": "a", "type": "project"}},
		{"grade": null, "createdAt": "2024-01-01"},
		{"grade": 0, "createdAt": "2024-01-02", "object": {"name": "b", "type": "exercise"}},
		{"grade": 1.5, "createdAt": "2024-01-03", "object": {"name": "c", "type": "raid"}},
		{"grade": 1}
	]`))
	got := NewNormalizer(DefaultCategoryRules()).Results(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ObjectType != ObjectProject || got[1].ObjectType != ObjectExercise || got[2].ObjectType != ObjectOther {
		t.Fatalf("unexpected object types: %s %s %s", got[0].ObjectType, got[1].ObjectType, got[2].ObjectType)
	}
	if got[2].Grade != 1.5 {
		t.Fatalf("expected grade 1.5, got %v", got[2].Grade)
	}
}

func TestNormalizer_ProgressGradeOptional(t *testing.T) {
	raw := Records(decode(t, `[{"grade": null, "createdAt": "2024-01-01"}, {"grade": 1, "createdAt": "2024-01-02"}]`))
	got := NewNormalizer(DefaultCategoryRules()).Progress(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 progress records, got %d", len(got))
	}
	if got[0].Grade != nil {
		t.Fatalf("expected nil grade, got %v", *got[0].Grade)
	}
	if got[1].Grade == nil || *got[1].Grade != 1 {
		t.Fatalf("expected grade 1")
	}
}

func TestNormalizer_UsersSingleObject(t *testing.T) {
	raw := Records(decode(t, `{"id": 42, "login": "jdoe", "firstName": "Jane", "lastName": "Doe", "createdAt": "2023-09-01T08:00:00Z"}`))
	users := NewNormalizer(DefaultCategoryRules()).Users(raw)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].DisplayName() != "Jane Doe" {
		t.Fatalf("unexpected display name: %s", users[0].DisplayName())
	}
	if (User{Login: "jdoe"}).DisplayName() != "jdoe" || (User{}).DisplayName() != "User" {
		t.Fatalf("unexpected display name fallbacks")
	}
}

func TestObjectIndex_MissingIDs(t *testing.T) {
	txs := []Transaction{
		{ObjectID: 1, ObjectName: "one"},
		{ObjectID: 2},
		{ObjectID: 3},
		{ObjectID: 2},
		{},
	}
	idx := IndexFromTransactions(txs)
	if name, ok := idx.Name(1); !ok || name != "one" {
		t.Fatalf("expected name one, got %q", name)
	}
	missing := idx.MissingIDs(txs, 0)
	if len(missing) != 2 || missing[0] != 2 || missing[1] != 3 {
		t.Fatalf("unexpected missing ids: %v", missing)
	}
	if capped := idx.MissingIDs(txs, 1); len(capped) != 1 {
		t.Fatalf("expected capped to 1, got %v", capped)
	}
}
