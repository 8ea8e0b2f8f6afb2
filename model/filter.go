package model

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

type FilterOp string

const (
	OpAnd FilterOp = "$and"
	OpOr  FilterOp = "$or"
	OpEq  FilterOp = "$eq"
	OpNe  FilterOp = "$ne"
	OpIn  FilterOp = "$in"
	OpNin FilterOp = "$nin"
)

const maxFilterDepth = 8

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidFilter is wrapped by every ParseFilter failure.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter is a boolean expression over string metadata fields. Combinators
// ($and, $or) carry Children; comparisons carry Field and Values.
type Filter struct {
	Op       FilterOp
	Field    string
	Values   []string
	Children []Filter
}

func Eq(field, value string) Filter {
	return Filter{Op: OpEq, Field: field, Values: []string{value}}
}

func Ne(field, value string) Filter {
	return Filter{Op: OpNe, Field: field, Values: []string{value}}
}

func In(field string, values ...string) Filter {
	return Filter{Op: OpIn, Field: field, Values: values}
}

func Nin(field string, values ...string) Filter {
	return Filter{Op: OpNin, Field: field, Values: values}
}

func And(children ...Filter) Filter {
	return Filter{Op: OpAnd, Children: children}
}

func Or(children ...Filter) Filter {
	return Filter{Op: OpOr, Children: children}
}

// Match evaluates the filter against a payload. A missing field compares as "".
func (f Filter) Match(md map[string]string) bool {
	switch f.Op {
	case OpAnd:
		for _, c := range f.Children {
			if !c.Match(md) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range f.Children {
			if c.Match(md) {
				return true
			}
		}
		return false
	case OpEq:
		return len(f.Values) == 1 && md[f.Field] == f.Values[0]
	case OpNe:
		return len(f.Values) == 1 && md[f.Field] != f.Values[0]
	case OpIn:
		return contains(f.Values, md[f.Field])
	case OpNin:
		return !contains(f.Values, md[f.Field])
	default:
		return false
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// String renders the filter in the JSON dialect it was parsed from.
func (f Filter) String() string {
	switch f.Op {
	case OpAnd, OpOr:
		s := "{" + strconv.Quote(string(f.Op)) + ":["
		for i, c := range f.Children {
			if i > 0 {
				s += ","
			}
			s += c.String()
		}
		return s + "]}"
	case OpEq, OpNe:
		return fmt.Sprintf("{%q:{%q:%q}}", f.Field, f.Op, f.Values[0])
	default:
		s := fmt.Sprintf("{%q:{%q:[", f.Field, f.Op)
		for i, v := range f.Values {
			if i > 0 {
				s += ","
			}
			s += strconv.Quote(v)
		}
		return s + "]}}"
	}
}

// ParseFilter converts a decoded JSON filter into a Filter. Accepted forms:
//
//	{"$and": [f, ...]}, {"$or": [f, ...]}
//	{"field": "v"}, {"field": {"$eq": "v"}}, {"field": {"$ne": "v"}}
//	{"field": {"$in": ["a", "b"]}}, {"field": {"$nin": ["a"]}}
//
// An object with several keys is the AND of each key. Scalars other than
// strings are compared through their JSON text.
func ParseFilter(raw map[string]any) (Filter, error) {
	return parseObject(raw, 0)
}

func parseObject(raw map[string]any, depth int) (Filter, error) {
	if depth > maxFilterDepth {
		return Filter{}, goerr.Wrap(ErrInvalidFilter, "filter is nested too deeply")
	}
	if len(raw) == 0 {
		return Filter{}, goerr.Wrap(ErrInvalidFilter, "filter object is empty")
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]Filter, 0, len(keys))
	for _, key := range keys {
		clause, err := parseKey(key, raw[key], depth)
		if err != nil {
			return Filter{}, err
		}
		clauses = append(clauses, clause)
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return And(clauses...), nil
}

func parseKey(key string, value any, depth int) (Filter, error) {
	switch FilterOp(key) {
	case OpAnd, OpOr:
		items, ok := value.([]any)
		if !ok || len(items) == 0 {
			return Filter{}, goerr.Wrap(ErrInvalidFilter, "combinator needs a non-empty array", goerr.V("operator", key))
		}
		children := make([]Filter, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return Filter{}, goerr.Wrap(ErrInvalidFilter, "combinator items must be objects", goerr.V("operator", key))
			}
			child, err := parseObject(obj, depth+1)
			if err != nil {
				return Filter{}, err
			}
			children = append(children, child)
		}
		return Filter{Op: FilterOp(key), Children: children}, nil
	}

	if !fieldNamePattern.MatchString(key) {
		return Filter{}, goerr.Wrap(ErrInvalidFilter, "invalid field name", goerr.V("field", key))
	}

	cond, ok := value.(map[string]any)
	if !ok {
		v, err := scalar(value)
		if err != nil {
			return Filter{}, goerr.Wrap(err, "invalid comparison value", goerr.V("field", key))
		}
		return Eq(key, v), nil
	}
	if len(cond) != 1 {
		return Filter{}, goerr.Wrap(ErrInvalidFilter, "comparison needs exactly one operator", goerr.V("field", key))
	}

	for op, operand := range cond {
		switch FilterOp(op) {
		case OpEq, OpNe:
			v, err := scalar(operand)
			if err != nil {
				return Filter{}, goerr.Wrap(err, "invalid comparison value", goerr.V("field", key))
			}
			return Filter{Op: FilterOp(op), Field: key, Values: []string{v}}, nil
		case OpIn, OpNin:
			items, ok := operand.([]any)
			if !ok || len(items) == 0 {
				return Filter{}, goerr.Wrap(ErrInvalidFilter, "set operator needs a non-empty array", goerr.V("field", key))
			}
			values := make([]string, 0, len(items))
			for _, item := range items {
				v, err := scalar(item)
				if err != nil {
					return Filter{}, goerr.Wrap(err, "invalid set member", goerr.V("field", key))
				}
				values = append(values, v)
			}
			return Filter{Op: FilterOp(op), Field: key, Values: values}, nil
		default:
			return Filter{}, goerr.Wrap(ErrInvalidFilter, "unsupported operator", goerr.V("operator", op))
		}
	}
	return Filter{}, goerr.Wrap(ErrInvalidFilter, "comparison needs exactly one operator", goerr.V("field", key))
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		return "", goerr.Wrap(ErrInvalidFilter, "unsupported value type", goerr.V("type", fmt.Sprintf("%T", v)))
	}
}
