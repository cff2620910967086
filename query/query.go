// Package query provides a fluent builder that accumulates filter, sort,
// projection and pagination intent for table reads without touching the
// network. A configured Query renders either into the parameter map the data
// layer sends on the wire (ToQueryParams) or into a SQL-like string used for
// logging only (ToSQLWhere).
package query

import (
	"fmt"
	"strings"
)

// Logical connectors between conditions.
const (
	LogicAnd = "AND"
	LogicOr  = "OR"
)

// Sort directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// Supported predicate operators.
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpLike         = "LIKE"
	OpNotLike      = "NOT LIKE"
	OpIn           = "IN"
	OpNotIn        = "NOT IN"
	OpIsNull       = "IS NULL"
	OpIsNotNull    = "IS NOT NULL"
)

// Condition is a single predicate clause. Logic connects the clause to the
// preceding one and is ignored for the first clause.
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
	Logic    string `json:"logic"`
}

// Order is a single sort clause. Multiple clauses yield a multi-key sort
// evaluated in insertion order.
type Order struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// Query accumulates read intent. The zero value is usable; chained calls
// mutate the same instance, use Clone for an independent copy.
type Query struct {
	conditions []Condition
	orders     []Order
	selects    []string
	limit      *int
	offset     *int
}

// New returns an empty Query.
func New() *Query {
	return &Query{}
}

func (q *Query) add(logic, column, operator string, value any) *Query {
	q.conditions = append(q.conditions, Condition{Column: column, Operator: operator, Value: value, Logic: logic})
	return q
}

// Where appends an AND-joined predicate.
func (q *Query) Where(column, operator string, value any) *Query {
	return q.add(LogicAnd, column, operator, value)
}

// OrWhere appends an OR-joined predicate.
func (q *Query) OrWhere(column, operator string, value any) *Query {
	return q.add(LogicOr, column, operator, value)
}

// WhereEquals is shorthand for Where(column, "=", value).
func (q *Query) WhereEquals(column string, value any) *Query {
	return q.Where(column, OpEqual, value)
}

// OrWhereEquals is shorthand for OrWhere(column, "=", value).
func (q *Query) OrWhereEquals(column string, value any) *Query {
	return q.OrWhere(column, OpEqual, value)
}

// WhereNotEquals appends a "!=" predicate.
func (q *Query) WhereNotEquals(column string, value any) *Query {
	return q.Where(column, OpNotEqual, value)
}

// WhereLike appends a LIKE predicate.
func (q *Query) WhereLike(column, pattern string) *Query {
	return q.Where(column, OpLike, pattern)
}

// WhereIn appends an IN predicate. values is expected to be non-empty.
func (q *Query) WhereIn(column string, values []any) *Query {
	return q.Where(column, OpIn, values)
}

// WhereNotIn appends a NOT IN predicate.
func (q *Query) WhereNotIn(column string, values []any) *Query {
	return q.Where(column, OpNotIn, values)
}

// WhereNull appends an IS NULL predicate. Any value is ignored.
func (q *Query) WhereNull(column string) *Query {
	return q.Where(column, OpIsNull, nil)
}

// WhereNotNull appends an IS NOT NULL predicate.
func (q *Query) WhereNotNull(column string) *Query {
	return q.Where(column, OpIsNotNull, nil)
}

// WhereGreaterThan appends a ">" predicate.
func (q *Query) WhereGreaterThan(column string, value any) *Query {
	return q.Where(column, OpGreater, value)
}

// WhereLessThan appends a "<" predicate.
func (q *Query) WhereLessThan(column string, value any) *Query {
	return q.Where(column, OpLess, value)
}

// OrderBy appends a sort clause. Direction should be Asc or Desc.
func (q *Query) OrderBy(column, direction string) *Query {
	if direction != Desc {
		direction = Asc
	}
	q.orders = append(q.orders, Order{Column: column, Direction: direction})
	return q
}

// OrderByDesc is shorthand for OrderBy(column, Desc).
func (q *Query) OrderByDesc(column string) *Query {
	return q.OrderBy(column, Desc)
}

// Select restricts the returned columns. Repeated calls append.
func (q *Query) Select(columns ...string) *Query {
	q.selects = append(q.selects, columns...)
	return q
}

// Take caps the number of returned rows. Limit is an alias.
func (q *Query) Take(n int) *Query {
	q.limit = &n
	return q
}

// Limit is an alias for Take.
func (q *Query) Limit(n int) *Query { return q.Take(n) }

// Skip sets the row offset. Offset is an alias.
func (q *Query) Skip(n int) *Query {
	q.offset = &n
	return q
}

// Offset is an alias for Skip.
func (q *Query) Offset(n int) *Query { return q.Skip(n) }

// Page sets both limit and offset from a 1-based page number and page size,
// overwriting any previously configured pagination.
func (q *Query) Page(page, size int) *Query {
	if page < 1 {
		page = 1
	}
	q.Take(size)
	q.Skip((page - 1) * size)
	return q
}

// ToQueryParams renders the accumulated intent into a parameter map
// containing only the dimensions that were configured. An untouched builder
// renders to an empty map.
func (q *Query) ToQueryParams() map[string]any {
	params := map[string]any{}
	if len(q.conditions) > 0 {
		params["where"] = q.conditions
	}
	if len(q.orders) > 0 {
		params["orderBy"] = q.orders
	}
	if len(q.selects) > 0 {
		params["select"] = q.selects
	}
	if q.limit != nil {
		params["take"] = *q.limit
	}
	if q.offset != nil {
		params["skip"] = *q.offset
	}
	return params
}

// ToSQLWhere renders the predicate list into a SQL-like string with naive
// quoting. It exists for logging and debugging only; values are not escaped
// and the output must never be executed against a database.
func (q *Query) ToSQLWhere() string {
	if len(q.conditions) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range q.conditions {
		if i > 0 {
			b.WriteString(" " + c.Logic + " ")
		}
		switch c.Operator {
		case OpIsNull, OpIsNotNull:
			fmt.Fprintf(&b, "%s %s", c.Column, c.Operator)
		case OpIn, OpNotIn:
			fmt.Fprintf(&b, "%s %s (%s)", c.Column, c.Operator, quoteList(c.Value))
		default:
			fmt.Fprintf(&b, "%s %s %s", c.Column, c.Operator, quote(c.Value))
		}
	}
	return b.String()
}

func quote(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + value + "'"
	default:
		return fmt.Sprintf("%v", value)
	}
}

func quoteList(v any) string {
	values, ok := v.([]any)
	if !ok {
		return quote(v)
	}
	parts := make([]string, 0, len(values))
	for _, item := range values {
		parts = append(parts, quote(item))
	}
	return strings.Join(parts, ", ")
}

// Clone returns a fully independent copy safe for reuse across requests.
func (q *Query) Clone() *Query {
	c := &Query{
		conditions: append([]Condition(nil), q.conditions...),
		orders:     append([]Order(nil), q.orders...),
		selects:    append([]string(nil), q.selects...),
	}
	if q.limit != nil {
		v := *q.limit
		c.limit = &v
	}
	if q.offset != nil {
		v := *q.offset
		c.offset = &v
	}
	return c
}

// Conditions exposes the accumulated predicate list in insertion order.
func (q *Query) Conditions() []Condition { return q.conditions }
