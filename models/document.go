package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fields every stored document carries.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

func stringField(doc bson.M, key string) string {
	s, _ := doc[key].(string)
	return s
}

func requiredString(doc bson.M, key string) (string, error) {
	s := stringField(doc, key)
	if s == "" {
		return "", fmt.Errorf("missing required field %q", key)
	}
	return s, nil
}

func floatField(doc bson.M, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func intField(doc bson.M, key string) int {
	return int(floatField(doc, key))
}

func boolField(doc bson.M, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func timeField(doc bson.M, key string) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time()
	case string:
		t, _ := time.Parse(time.RFC3339, v)
		return t
	}
	return time.Time{}
}

func stringList(doc bson.M, key string) []string {
	items := listItems(doc[key])
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func listItems(v interface{}) []interface{} {
	switch list := v.(type) {
	case primitive.A:
		return list
	case []interface{}:
		return list
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return nil
}

// RefIDs normalizes a reference list to plain ids. An entry may be a raw id or,
// when the list was stored or returned with relations expanded, an embedded
// document carrying its id under "_id", "$id" or "id".
func RefIDs(v interface{}) []string {
	items := listItems(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if id := RefID(item); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// RefID returns the id a single reference entry points at, or "" if it has none.
func RefID(item interface{}) string {
	switch v := item.(type) {
	case string:
		return v
	case primitive.M:
		return firstID(map[string]interface{}(v))
	case map[string]interface{}:
		return firstID(v)
	case primitive.D:
		return firstID(v.Map())
	}
	return ""
}

func firstID(m map[string]interface{}) string {
	for _, key := range []string{FieldID, "$id", "id"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
