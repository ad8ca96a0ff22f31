package document

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type queryKind int

const (
	kindEqual queryKind = iota
	kindLessThan
	kindSearch
	kindOr
	kindOrderDesc
	kindOrderAsc
	kindLimit
	kindOffset
)

// Query is one listing primitive: a filter, an ordering, or a page bound.
type Query struct {
	kind     queryKind
	field    string
	values   []interface{}
	term     string
	children []Query
	n        int
}

// Equal matches documents whose field equals any of values.
func Equal(field string, values ...interface{}) Query {
	return Query{kind: kindEqual, field: field, values: values}
}

// LessThan matches documents whose field is strictly below value.
func LessThan(field string, value interface{}) Query {
	return Query{kind: kindLessThan, field: field, values: []interface{}{value}}
}

// Search matches documents whose field contains term, case-insensitively.
func Search(field, term string) Query {
	return Query{kind: kindSearch, field: field, term: term}
}

// Or matches documents satisfying any of the given filters.
func Or(queries ...Query) Query {
	return Query{kind: kindOr, children: queries}
}

// OrderDesc sorts by field, newest/highest first.
func OrderDesc(field string) Query {
	return Query{kind: kindOrderDesc, field: field}
}

// OrderAsc sorts by field, oldest/lowest first.
func OrderAsc(field string) Query {
	return Query{kind: kindOrderAsc, field: field}
}

// Limit bounds the page size. Values above MaxPageSize are capped.
func Limit(n int) Query {
	return Query{kind: kindLimit, n: n}
}

// Offset skips the first n matches.
func Offset(n int) Query {
	return Query{kind: kindOffset, n: n}
}

func (q Query) isFilter() bool {
	switch q.kind {
	case kindEqual, kindLessThan, kindSearch, kindOr:
		return true
	}
	return false
}

// Compile translates queries into a Mongo filter and find options.
func Compile(queries []Query) (bson.M, *options.FindOptions, error) {
	var filters []bson.M
	sort := bson.D{}
	limit := DefaultPageSize
	offset := 0

	for _, q := range queries {
		switch q.kind {
		case kindOrderDesc:
			sort = append(sort, bson.E{Key: q.field, Value: -1})
		case kindOrderAsc:
			sort = append(sort, bson.E{Key: q.field, Value: 1})
		case kindLimit:
			if q.n <= 0 {
				return nil, nil, fmt.Errorf("limit must be positive, got %d", q.n)
			}
			limit = q.n
			if limit > MaxPageSize {
				limit = MaxPageSize
			}
		case kindOffset:
			if q.n < 0 {
				return nil, nil, fmt.Errorf("offset must not be negative, got %d", q.n)
			}
			offset = q.n
		default:
			f, err := compileFilter(q)
			if err != nil {
				return nil, nil, err
			}
			filters = append(filters, f)
		}
	}

	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset))
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	return combine(filters), opts, nil
}

func compileFilter(q Query) (bson.M, error) {
	switch q.kind {
	case kindEqual:
		if len(q.values) == 0 {
			return nil, fmt.Errorf("equal on %q needs at least one value", q.field)
		}
		if len(q.values) == 1 {
			return bson.M{q.field: q.values[0]}, nil
		}
		return bson.M{q.field: bson.M{"$in": q.values}}, nil
	case kindLessThan:
		return bson.M{q.field: bson.M{"$lt": q.values[0]}}, nil
	case kindSearch:
		return bson.M{q.field: bson.M{"$regex": regexp.QuoteMeta(q.term), "$options": "i"}}, nil
	case kindOr:
		if len(q.children) == 0 {
			return nil, fmt.Errorf("or needs at least one filter")
		}
		branches := make([]bson.M, 0, len(q.children))
		for _, c := range q.children {
			if !c.isFilter() {
				return nil, fmt.Errorf("or accepts filters only")
			}
			f, err := compileFilter(c)
			if err != nil {
				return nil, err
			}
			branches = append(branches, f)
		}
		return bson.M{"$or": branches}, nil
	}
	return nil, fmt.Errorf("unsupported query kind %d", q.kind)
}

func combine(filters []bson.M) bson.M {
	switch len(filters) {
	case 0:
		return bson.M{}
	case 1:
		return filters[0]
	}
	return bson.M{"$and": filters}
}
