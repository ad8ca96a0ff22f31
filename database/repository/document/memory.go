package document

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"restate/models"

	"github.com/google/uuid"
)

// MemoryStore is a Store held in process memory. It backs local development
// runs without a database and the repository tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) collection(name string) map[string]Document {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]Document)
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return clone(doc), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string, queries ...Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Compile validates the same way the Mongo store does.
	if _, _, err := Compile(queries); err != nil {
		return nil, fmt.Errorf("invalid query on %s: %w", collection, err)
	}

	s.mu.RLock()
	var matched []Document
	for _, doc := range s.collections[collection] {
		if matchesAll(doc, queries) {
			matched = append(matched, clone(doc))
		}
	}
	s.mu.RUnlock()

	limit, offset := DefaultPageSize, 0
	var orders []Query
	for _, q := range queries {
		switch q.kind {
		case kindLimit:
			limit = q.n
			if limit > MaxPageSize {
				limit = MaxPageSize
			}
		case kindOffset:
			offset = q.n
		case kindOrderAsc, kindOrderDesc:
			orders = append(orders, q)
		}
	}

	// Ties fall back to id so pages are stable.
	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range orders {
			c := compare(matched[i][o.field], matched[j][o.field])
			if c == 0 {
				continue
			}
			if o.kind == kindOrderDesc {
				return c > 0
			}
			return c < 0
		}
		return compare(matched[i][models.FieldID], matched[j][models.FieldID]) < 0
	})

	if offset >= len(matched) {
		return []Document{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, fields Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, exists := c[id]; exists {
		return nil, fmt.Errorf("failed to create %s/%s: duplicate id", collection, id)
	}
	doc := clone(fields)
	now := s.now()
	doc[models.FieldID] = id
	doc[models.FieldCreatedAt] = now
	doc[models.FieldUpdatedAt] = now
	c[id] = doc
	return clone(doc), nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range clone(fields) {
		if k == models.FieldID || k == models.FieldCreatedAt {
			continue
		}
		doc[k] = v
	}
	doc[models.FieldUpdatedAt] = s.now()
	return clone(doc), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) AddToSet(ctx context.Context, collection, id, field string, values ...string) error {
	return s.mutateArray(ctx, collection, id, func(current []interface{}) []interface{} {
		for _, v := range values {
			if !containsValue(current, v) {
				current = append(current, v)
			}
		}
		return current
	}, field)
}

func (s *MemoryStore) Pull(ctx context.Context, collection, id, field string, values ...string) error {
	return s.mutateArray(ctx, collection, id, func(current []interface{}) []interface{} {
		kept := current[:0]
		for _, item := range current {
			if containsString(values, models.RefID(item)) {
				continue
			}
			kept = append(kept, item)
		}
		return kept
	}, field)
}

func (s *MemoryStore) mutateArray(ctx context.Context, collection, id string, fn func([]interface{}) []interface{}, field string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	current := toInterfaces(doc[field])
	doc[field] = fn(current)
	doc[models.FieldUpdatedAt] = s.now()
	return nil
}

func matchesAll(doc Document, queries []Query) bool {
	for _, q := range queries {
		if q.isFilter() && !matches(doc, q) {
			return false
		}
	}
	return true
}

func matches(doc Document, q Query) bool {
	switch q.kind {
	case kindEqual:
		for _, v := range q.values {
			if compare(doc[q.field], v) == 0 {
				return true
			}
		}
		return false
	case kindLessThan:
		return compare(doc[q.field], q.values[0]) < 0
	case kindSearch:
		s, _ := doc[q.field].(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(q.term))
	case kindOr:
		for _, c := range q.children {
			if matches(doc, c) {
				return true
			}
		}
		return false
	}
	return true
}

// compare orders two scalar values of the same family. Mismatched or
// unsupported types compare equal only if their printed forms match.
func compare(a, b interface{}) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0
			}
			if !av {
				return -1
			}
			return 1
		}
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInterfaces(v interface{}) []interface{} {
	switch list := v.(type) {
	case []interface{}:
		return append([]interface{}(nil), list...)
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return []interface{}{}
}

// containsValue matches raw ids and embedded references alike.
func containsValue(list []interface{}, v string) bool {
	for _, item := range list {
		if models.RefID(item) == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// clone copies a document deep enough that callers cannot alias stored slices or maps.
func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case Document:
		return clone(t)
	case map[string]interface{}:
		return map[string]interface{}(clone(t))
	}
	return v
}
