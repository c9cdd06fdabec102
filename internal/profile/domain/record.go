package domain

import "time"

// Category is the XP accounting bucket of a transaction.
type Category string

const (
	CategoryProject    Category = "project"
	CategoryCheckpoint Category = "checkpoint"
	CategoryPiscine    Category = "piscine"
	CategoryOther      Category = "other"
)

// AccountedCategories are the categories that make up the platform total.
// CategoryOther is deliberately absent.
var AccountedCategories = []Category{CategoryProject, CategoryCheckpoint, CategoryPiscine}

// IsAccounted reports whether the category counts toward the grand total.
func (c Category) IsAccounted() bool {
	switch c {
	case CategoryProject, CategoryCheckpoint, CategoryPiscine:
		return true
	default:
		return false
	}
}

// ObjectType classifies the object a result was graded on.
type ObjectType string

const (
	ObjectProject  ObjectType = "project"
	ObjectExercise ObjectType = "exercise"
	ObjectOther    ObjectType = "other"
)

// ParseObjectType maps the platform object type onto ObjectType.
func ParseObjectType(value string) ObjectType {
	switch ObjectType(value) {
	case ObjectProject:
		return ObjectProject
	case ObjectExercise:
		return ObjectExercise
	default:
		return ObjectOther
	}
}

// Transaction is one XP movement. Amount may be negative for penalties.
type Transaction struct {
	Amount     int64
	Timestamp  time.Time
	Category   Category
	Path       string
	ObjectID   int64
	ObjectName string
}

// HasObject reports whether the transaction references an object id.
func (t Transaction) HasObject() bool { return t.ObjectID != 0 }

// Result is a graded submission. Grade >= 1 is a pass.
type Result struct {
	Grade      float64
	Timestamp  time.Time
	ObjectType ObjectType
	ObjectName string
	Path       string
}

// Progress is a progress record. Grade is nil while the progress is open.
type Progress struct {
	Grade      *float64
	Timestamp  time.Time
	ObjectType ObjectType
	ObjectName string
	Path       string
}

// User is the authenticated platform user.
type User struct {
	ID        int64
	Login     string
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
}

// DisplayName returns "First Last" when both are set, then login, then "User".
func (u User) DisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	if u.Login != "" {
		return u.Login
	}
	return "User"
}

// Object is a platform object (project, exercise, ...) used to name XP sources.
type Object struct {
	ID   int64
	Name string
	Type ObjectType
}

// ObjectIndex resolves object ids to names.
type ObjectIndex map[int64]Object

// Name returns the indexed name for id.
func (idx ObjectIndex) Name(id int64) (string, bool) {
	if idx == nil {
		return "", false
	}
	obj, ok := idx[id]
	if !ok || obj.Name == "" {
		return "", false
	}
	return obj.Name, true
}

// IndexFromTransactions builds an index out of object names embedded in transactions.
func IndexFromTransactions(transactions []Transaction) ObjectIndex {
	idx := make(ObjectIndex)
	for _, tx := range transactions {
		if !tx.HasObject() || tx.ObjectName == "" {
			continue
		}
		if _, ok := idx[tx.ObjectID]; ok {
			continue
		}
		idx[tx.ObjectID] = Object{ID: tx.ObjectID, Name: tx.ObjectName}
	}
	return idx
}

// Merge copies entries from other that idx does not have yet.
func (idx ObjectIndex) Merge(other ObjectIndex) ObjectIndex {
	if idx == nil {
		idx = make(ObjectIndex, len(other))
	}
	for id, obj := range other {
		if _, ok := idx[id]; !ok {
			idx[id] = obj
		}
	}
	return idx
}

// MissingIDs lists object ids referenced by transactions without a name, in first-seen order.
func (idx ObjectIndex) MissingIDs(transactions []Transaction, limit int) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, tx := range transactions {
		if !tx.HasObject() {
			continue
		}
		if _, ok := idx.Name(tx.ObjectID); ok {
			continue
		}
		if _, ok := seen[tx.ObjectID]; ok {
			continue
		}
		seen[tx.ObjectID] = struct{}{}
		ids = append(ids, tx.ObjectID)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids
}
