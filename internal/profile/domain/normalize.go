package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one loosely-typed record as decoded from the upstream JSON.
type RawRecord = map[string]any

// Records coerces the shapes the upstream returns for a collection field
// (array, single object, single-element array, nil) into a slice of records.
// Non-object entries are skipped.
func Records(value any) []RawRecord {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return []RawRecord{v}
	case []any:
		out := make([]RawRecord, 0, len(v))
		for _, item := range v {
			if rec, ok := item.(map[string]any); ok {
				out = append(out, rec)
			}
		}
		return out
	case []map[string]any:
		return v
	default:
		return nil
	}
}

// Normalizer turns raw records into typed entities. Records missing a mandatory
// field are dropped and reported to OnDrop; they never fail the call.
type Normalizer struct {
	Rules  CategoryRules
	OnDrop func(*MalformedRecordError)
}

// NewNormalizer constructs a Normalizer with the given rules.
func NewNormalizer(rules CategoryRules) *Normalizer {
	return &Normalizer{Rules: rules}
}

func (n *Normalizer) drop(kind string, index int, reason string) {
	if n == nil || n.OnDrop == nil {
		return
	}
	n.OnDrop(&MalformedRecordError{Kind: kind, Index: index, Reason: reason})
}

// Transactions normalizes xp transaction records.
func (n *Normalizer) Transactions(raw []RawRecord) []Transaction {
	rules := DefaultCategoryRules()
	if n != nil {
		rules = n.Rules
	}
	out := make([]Transaction, 0, len(raw))
	for i, rec := range raw {
		amount, ok := intField(rec, "amount")
		if !ok {
			n.drop("transaction", i, "missing amount")
			continue
		}
		ts, ok := timeField(rec, "createdAt")
		if !ok {
			n.drop("transaction", i, "missing or malformed createdAt")
			continue
		}
		path, _ := stringField(rec, "path")
		tx := Transaction{
			Amount:    amount,
			Timestamp: ts,
			Category:  rules.Classify(path),
			Path:      path,
		}
		if id, ok := intField(rec, "objectId"); ok {
			tx.ObjectID = id
		}
		if obj := objectField(rec); obj != nil {
			tx.ObjectName, _ = stringField(obj, "name")
			if tx.ObjectID == 0 {
				tx.ObjectID, _ = intField(obj, "id")
			}
		}
		out = append(out, tx)
	}
	return out
}

// Results normalizes audit result records. A result needs a numeric grade.
func (n *Normalizer) Results(raw []RawRecord) []Result {
	out := make([]Result, 0, len(raw))
	for i, rec := range raw {
		grade, ok := floatField(rec, "grade")
		if !ok {
			n.drop("result", i, "missing grade")
			continue
		}
		ts, ok := timeField(rec, "createdAt")
		if !ok {
			n.drop("result", i, "missing or malformed createdAt")
			continue
		}
		path, _ := stringField(rec, "path")
		res := Result{Grade: grade, Timestamp: ts, ObjectType: ObjectOther, Path: path}
		if obj := objectField(rec); obj != nil {
			res.ObjectName, _ = stringField(obj, "name")
			kind, _ := stringField(obj, "type")
			res.ObjectType = ParseObjectType(kind)
		}
		out = append(out, res)
	}
	return out
}

// Progress normalizes progress records. The grade is optional.
func (n *Normalizer) Progress(raw []RawRecord) []Progress {
	out := make([]Progress, 0, len(raw))
	for i, rec := range raw {
		ts, ok := timeField(rec, "createdAt")
		if !ok {
			n.drop("progress", i, "missing or malformed createdAt")
			continue
		}
		path, _ := stringField(rec, "path")
		p := Progress{Timestamp: ts, ObjectType: ObjectOther, Path: path}
		if grade, ok := floatField(rec, "grade"); ok {
			p.Grade = &grade
		}
		if obj := objectField(rec); obj != nil {
			p.ObjectName, _ = stringField(obj, "name")
			kind, _ := stringField(obj, "type")
			p.ObjectType = ParseObjectType(kind)
		}
		out = append(out, p)
	}
	return out
}

// Users normalizes user records; only the id or login is mandatory.
func (n *Normalizer) Users(raw []RawRecord) []User {
	out := make([]User, 0, len(raw))
	for i, rec := range raw {
		id, hasID := intField(rec, "id")
		login, _ := stringField(rec, "login")
		if !hasID && login == "" {
			n.drop("user", i, "missing id and login")
			continue
		}
		u := User{ID: id, Login: login}
		u.FirstName, _ = stringField(rec, "firstName")
		u.LastName, _ = stringField(rec, "lastName")
		u.Email, _ = stringField(rec, "email")
		u.CreatedAt, _ = timeField(rec, "createdAt")
		out = append(out, u)
	}
	return out
}

// Objects normalizes object records into an index.
func (n *Normalizer) Objects(raw []RawRecord) ObjectIndex {
	idx := make(ObjectIndex, len(raw))
	for i, rec := range raw {
		id, ok := intField(rec, "id")
		if !ok {
			n.drop("object", i, "missing id")
			continue
		}
		name, _ := stringField(rec, "name")
		kind, _ := stringField(rec, "type")
		idx[id] = Object{ID: id, Name: name, Type: ParseObjectType(kind)}
	}
	return idx
}

// objectField returns the nested "object" record, tolerating a one-element array.
func objectField(rec RawRecord) RawRecord {
	records := Records(rec["object"])
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

func stringField(rec RawRecord, key string) (string, bool) {
	switch v := rec[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func floatField(rec RawRecord, key string) (float64, bool) {
	var f float64
	switch v := rec[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func intField(rec RawRecord, key string) (int64, bool) {
	f, ok := floatField(rec, key)
	if !ok {
		return 0, false
	}
	return int64(math.Round(f)), true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

func timeField(rec RawRecord, key string) (time.Time, bool) {
	raw, ok := rec[key].(string)
	if !ok {
		return time.Time{}, false
	}
	return ParseTimestamp(raw)
}

// ParseTimestamp parses the timestamp formats the platform emits, in UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
