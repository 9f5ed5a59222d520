// Package dataverse implements the remote query client for the
// Dataverse Web API: OData query-option composition, paginated fetches,
// bearer authentication, and a SQLite-backed snapshot store for offline
// replay.
package dataverse

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// QueryOptions composes the OData system query options for one request.
// Zero values are omitted from the encoded query string.
type QueryOptions struct {
	Select  []string
	Filter  string
	Expand  string
	OrderBy string
	Top     int
	// Count requests @odata.count in the response.
	Count bool
}

// Encode renders the options as a URL-encoded OData query string.
func (o QueryOptions) Encode() string {
	v := url.Values{}
	if len(o.Select) > 0 {
		v.Set("$select", strings.Join(o.Select, ","))
	}
	if o.Filter != "" {
		v.Set("$filter", o.Filter)
	}
	if o.Expand != "" {
		v.Set("$expand", o.Expand)
	}
	if o.OrderBy != "" {
		v.Set("$orderby", o.OrderBy)
	}
	if o.Top > 0 {
		v.Set("$top", strconv.Itoa(o.Top))
	}
	if o.Count {
		v.Set("$count", "true")
	}
	return v.Encode()
}

// Record is one loosely-typed row returned by the Web API.
type Record map[string]interface{}

// GetString returns the named field as a string, or "" when absent or
// not a string.
func (r Record) GetString(name string) string {
	if s, ok := r[name].(string); ok {
		return s
	}
	return ""
}

// GetInt returns the named field as an int. OData numbers decode as
// float64; both shapes are accepted.
func (r Record) GetInt(name string) int {
	switch n := r[name].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// GetRecords returns an expanded collection field as records; absent
// or differently-shaped fields return nil.
func (r Record) GetRecords(name string) []Record {
	raw, ok := r[name].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// GetRecord returns an expanded single-valued navigation field, or nil.
func (r Record) GetRecord(name string) Record {
	if m, ok := r[name].(map[string]interface{}); ok {
		return Record(m)
	}
	return nil
}

// GetBool returns the named field as a bool, or false.
func (r Record) GetBool(name string) bool {
	if b, ok := r[name].(bool); ok {
		return b
	}
	return false
}

// QueryResult is one complete (fully paginated) result set.
type QueryResult struct {
	Value []Record
	// Count is the @odata.count value when requested, -1 otherwise.
	Count int
}

// Client is the keyed request/response interface all discovery logic is
// written against. Implementations must return the complete result set
// (following pagination) or an error, never a partial set.
type Client interface {
	Query(ctx context.Context, entitySet string, opts QueryOptions) (*QueryResult, error)
}

// Eq builds an OData equality clause.
func Eq(field, value string) string {
	return fmt.Sprintf("%s eq %s", field, value)
}

// EqString builds an equality clause against a quoted string literal.
func EqString(field, value string) string {
	return fmt.Sprintf("%s eq '%s'", field, strings.ReplaceAll(value, "'", "''"))
}

// EqGUID builds an equality clause against an unquoted GUID literal.
// Dataverse rejects braces in filter literals, so the id is normalized
// first.
func EqGUID(field, id string) string {
	return fmt.Sprintf("%s eq %s", field, NormalizeID(id))
}

// OrGUIDs builds a single OR-disjunction matching the field against
// every given id, so one round trip can cover all requested containers.
// Returns "" for an empty id list.
func OrGUIDs(field string, ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	clauses := make([]string, 0, len(ids))
	for _, id := range ids {
		clauses = append(clauses, EqGUID(field, id))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, " or ") + ")"
}

// And joins non-empty clauses with "and".
func And(clauses ...string) string {
	parts := clauses[:0:0]
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " and ")
}

// NormalizeID lower-cases a GUID and strips surrounding braces. Raw ids
// arrive from different source fields with inconsistent casing and
// brace conventions; every comparison, set insertion, and filter
// literal goes through this function. Idempotent.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "{")
	id = strings.TrimSuffix(id, "}")
	return strings.ToLower(id)
}
