// Package models holds the data model shared by the chirper client and hub:
// generic documents and live queries, and the Post / Account / Identity
// entities built on top of them.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/chirper/internal/common"
)

// FieldCreateTime addresses the server-assigned creation time of a document
// in filters and orderings.
const FieldCreateTime = "__createTime"

// Document is a single record of a collection. Fields hold JSON-compatible
// values only: string, float64, bool or nil.
type Document struct {
	Collection string
	ID         string
	Fields     map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// String returns the string value of a field, or "" when absent or not a string.
func (d *Document) String(field string) string {
	s, _ := d.Fields[field].(string)
	return s
}

func (d *Document) value(field string) (any, bool) {
	if field == FieldCreateTime {
		return d.CreateTime, true
	}
	v, ok := d.Fields[field]
	return v, ok
}

// Clone returns a deep enough copy for handing a document to another owner.
func (d *Document) Clone() *Document {
	c := *d
	c.Fields = make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	return &c
}

type Op string

const (
	OpEqual          Op = "=="
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field      string
	Descending bool
}

// Query selects documents of one collection. Filters are AND-ed. Without an
// Order, results are sorted by document id.
type Query struct {
	Collection string
	Filters    []Filter
	Order      *Order
	Limit      int
}

// Where appends an equality or range filter and returns the query.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sets the single ordering field.
func (q Query) OrderBy(field string, descending bool) Query {
	q.Order = &Order{Field: field, Descending: descending}
	return q
}

// Validate reports ErrInvalidQuery for an unusable query.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: empty collection", common.ErrInvalidQuery)
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: empty filter field", common.ErrInvalidQuery)
		}
		switch f.Op {
		case OpEqual, OpGreaterOrEqual, OpLessOrEqual:
		default:
			return fmt.Errorf("%w: unsupported operator %q", common.ErrInvalidQuery, f.Op)
		}
	}
	if q.Order != nil && q.Order.Field == "" {
		return fmt.Errorf("%w: empty order field", common.ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", common.ErrInvalidQuery)
	}
	return nil
}

// Matches reports whether d belongs to the result set of q. A document
// missing a filtered field never matches.
func (q Query) Matches(d *Document) bool {
	if d.Collection != q.Collection {
		return false
	}
	for _, f := range q.Filters {
		v, ok := d.value(f.Field)
		if !ok {
			return false
		}
		c, comparable := compareValues(v, f.Value)
		if !comparable {
			return false
		}
		switch f.Op {
		case OpEqual:
			if c != 0 {
				return false
			}
		case OpGreaterOrEqual:
			if c < 0 {
				return false
			}
		case OpLessOrEqual:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

// Apply filters, orders and limits docs according to q. The input slice is
// not modified.
func (q Query) Apply(docs []*Document) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d) {
			out = append(out, d)
		}
	}
	q.sort(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (q Query) sort(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if q.Order != nil {
			a, _ := docs[i].value(q.Order.Field)
			b, _ := docs[j].value(q.Order.Field)
			if c, ok := compareValues(a, b); ok && c != 0 {
				if q.Order.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
}

// compareValues orders two field values of the same kind. The second result
// is false when the values cannot be compared.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case nil:
		if b == nil {
			return 0, true
		}
		return 0, false
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
