// Package qparams parses, validates and evaluates search requests passed as
// a JSON document in a query parameter (default "q").
//
// A search request combines nested filter groups (and/or), relational
// filters (eq, ne, gt, gte, lt, lte, like, in), ordering and pagination:
//
//	GET /api/users?q={"groups":{"op":"or","filters":[{"field":"role","op":"eq","value":"admin"},{"field":"role","op":"eq","value":"editor"}]},"order_by":[{"field":"name","direction":"asc"}],"limit":10}
//
// NewSearchHandler validates the document against the fields and operators a
// route allows and stores it in the request context; Apply evaluates it
// against an in-memory slice.
//
// Example usage:
//
//	search := qparams.NewSearchHandler(
//		qparams.WithFilterFields("id", "name", "role"),
//		qparams.WithOrderFields("id", "name"),
//		qparams.WithLimit(100),
//	)
//
//	mux.Handle("/api/users", search(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//		users := qparams.Apply(allUsers, qparams.GetSearchRequest(r), userField)
//		_ = json.NewEncoder(w).Encode(users)
//	})))
package qparams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// LogicalOperator defines how the members of a FilterGroup are combined.
type LogicalOperator string

const (
	// AndOperator requires every member to match.
	AndOperator LogicalOperator = "and"

	// OrOperator requires at least one member to match.
	OrOperator LogicalOperator = "or"
)

// RelationalOperator compares a field with the filter value.
type RelationalOperator string

const (
	// EqualsOperator matches equal values.
	EqualsOperator RelationalOperator = "eq"

	// NotEqualsOperator matches different values.
	NotEqualsOperator RelationalOperator = "ne"

	// GreaterThanOperator matches values greater than the filter value.
	GreaterThanOperator RelationalOperator = "gt"

	// GreaterThanEqualsOperator matches values greater than or equal to the filter value.
	GreaterThanEqualsOperator RelationalOperator = "gte"

	// LowerThanOperator matches values lower than the filter value.
	LowerThanOperator RelationalOperator = "lt"

	// LowerThanEqualsOperator matches values lower than or equal to the filter value.
	LowerThanEqualsOperator RelationalOperator = "lte"

	// LikeOperator matches a case-insensitive pattern where "%" stands for
	// any sequence of characters and "_" for a single character.
	LikeOperator RelationalOperator = "like"

	// InOperator matches any value of a comma separated list.
	InOperator RelationalOperator = "in"
)

var (
	allLogicalOperators = []LogicalOperator{AndOperator, OrOperator}

	allRelationalOperators = []RelationalOperator{
		EqualsOperator, NotEqualsOperator,
		GreaterThanOperator, GreaterThanEqualsOperator,
		LowerThanOperator, LowerThanEqualsOperator,
		LikeOperator, InOperator,
	}
)

// Filter is a single condition on a field.
//
// Example:
//
//	{ "field": "role", "op": "eq", "value": "admin" }
type Filter struct {
	Field string             `json:"field"`
	Op    RelationalOperator `json:"op"`
	Value string             `json:"value"`
}

// FilterGroup combines filters and nested groups with a logical operator.
//
// Example:
//
//	{ "op": "and", "filters": [...], "groups": [...] }
type FilterGroup struct {
	Op      LogicalOperator `json:"op"`
	Filters []Filter        `json:"filters,omitempty"`
	Groups  []FilterGroup   `json:"groups,omitempty"`
}

// OrderDirection is the direction of an OrderClause.
type OrderDirection string

const (
	// OrderAsc sorts in ascending order (default).
	OrderAsc OrderDirection = "asc"

	// OrderDesc sorts in descending order.
	OrderDesc OrderDirection = "desc"
)

// OrderClause sorts results by a field.
type OrderClause struct {
	Field     string         `json:"field"`
	Direction OrderDirection `json:"direction"`
}

// SearchRequest is the parsed search document.
type SearchRequest struct {
	// Groups is the root filter group. Nil matches everything.
	Groups *FilterGroup `json:"groups,omitempty"`

	// OrderBy lists sort keys, most significant first.
	OrderBy []OrderClause `json:"order_by,omitempty"`

	// Limit caps the number of results. Nil means no limit.
	Limit *int `json:"limit,omitempty"`

	// Offset skips results before the first one returned.
	Offset *int `json:"offset,omitempty"`
}

type contextKey struct{}

// ErrorHandler writes the response for a search document that failed to
// parse or validate.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrInvalidSearch wraps every parse and validation error.
var ErrInvalidSearch = errors.New("invalid search")

// DefaultErrorHandler answers 400 with {"error":"<reason>"}.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		slog.Default().ErrorContext(r.Context(), "failed to send response", slog.String("err", encErr.Error()))
	}
}

type config struct {
	queryParam          string
	mandatory           bool
	logicalOperators    map[LogicalOperator]struct{}
	relationalOperators map[RelationalOperator]struct{}
	filterFields        map[string]struct{}
	orderFields         map[string]struct{}
	limit               *int
	errorHandler        ErrorHandler
}

// Option configures a search handler.
type Option func(*config)

// WithQueryParam sets the query parameter holding the document. Default is "q".
func WithQueryParam(queryParam string) Option {
	return func(c *config) {
		c.queryParam = queryParam
	}
}

// WithSearchMandatory makes a missing document an error. Default is false.
func WithSearchMandatory(mandatory bool) Option {
	return func(c *config) {
		c.mandatory = mandatory
	}
}

// WithLogicalOperators restricts the allowed logical operators. All are allowed by default.
func WithLogicalOperators(operators ...LogicalOperator) Option {
	return func(c *config) {
		c.logicalOperators = toSet(operators)
	}
}

// WithRelationalOperators restricts the allowed relational operators. All are allowed by default.
func WithRelationalOperators(operators ...RelationalOperator) Option {
	return func(c *config) {
		c.relationalOperators = toSet(operators)
	}
}

// WithFilterFields sets the fields allowed in filters. None are allowed by default.
func WithFilterFields(fields ...string) Option {
	return func(c *config) {
		c.filterFields = toSet(fields)
	}
}

// WithOrderFields sets the fields allowed in order clauses. None are allowed by default.
func WithOrderFields(fields ...string) Option {
	return func(c *config) {
		c.orderFields = toSet(fields)
	}
}

// WithLimit sets the maximum limit. Requests without a limit get this one.
// Negative values mean no maximum.
func WithLimit(limit int) Option {
	return func(c *config) {
		if limit < 0 {
			c.limit = nil
			return
		}
		c.limit = &limit
	}
}

// WithErrorHandler overrides DefaultErrorHandler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		queryParam:          "q",
		logicalOperators:    toSet(allLogicalOperators),
		relationalOperators: toSet(allRelationalOperators),
		filterFields:        map[string]struct{}{},
		orderFields:         map[string]struct{}{},
		errorHandler:        DefaultErrorHandler,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Parse decodes and validates a search document using the same options as
// NewSearchHandler.
func Parse(raw string, opts ...Option) (*SearchRequest, error) {
	return parse(raw, newConfig(opts))
}

// NewSearchHandler creates a middleware that parses and validates the search
// document and stores it in the request context. Requests without a document
// get an empty SearchRequest carrying the configured limit, unless
// WithSearchMandatory(true) is set, in which case they are rejected.
func NewSearchHandler(opts ...Option) func(http.Handler) http.Handler {
	c := newConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			search, err := parse(r.URL.Query().Get(c.queryParam), c)
			if err != nil {
				c.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, search)))
		})
	}
}

// GetSearchRequest returns the SearchRequest stored by NewSearchHandler, or nil.
func GetSearchRequest(r *http.Request) *SearchRequest {
	s, _ := r.Context().Value(contextKey{}).(*SearchRequest)
	return s
}

func parse(raw string, c *config) (*SearchRequest, error) {
	if raw == "" {
		if c.mandatory {
			return nil, fmt.Errorf("%w: missing %q query parameter", ErrInvalidSearch, c.queryParam)
		}
		return &SearchRequest{Limit: c.limit}, nil
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.DisallowUnknownFields()

	var search SearchRequest
	if err := decoder.Decode(&search); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSearch, err)
	}

	if err := validate(&search, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSearch, err)
	}

	if search.Limit == nil {
		search.Limit = c.limit
	}

	return &search, nil
}

func validate(s *SearchRequest, c *config) error {
	if s.Limit != nil && *s.Limit < 0 {
		return errors.New("limit must be null or >= 0")
	}

	if c.limit != nil && s.Limit != nil && *s.Limit > *c.limit {
		return fmt.Errorf("limit must be between 0 and %d", *c.limit)
	}

	if s.Offset != nil && *s.Offset < 0 {
		return errors.New("offset must be null or >= 0")
	}

	for _, o := range s.OrderBy {
		if _, ok := c.orderFields[o.Field]; !ok {
			return fmt.Errorf("field %q not allowed in order by", o.Field)
		}
		if o.Direction != "" && o.Direction != OrderAsc && o.Direction != OrderDesc {
			return fmt.Errorf("order direction %q not allowed", o.Direction)
		}
	}

	return validateGroup(s.Groups, c)
}

func validateGroup(g *FilterGroup, c *config) error {
	if g == nil {
		return nil
	}

	if _, ok := c.logicalOperators[g.Op]; !ok {
		return fmt.Errorf("logical operator %q not allowed", g.Op)
	}

	for _, f := range g.Filters {
		if _, ok := c.filterFields[f.Field]; !ok {
			return fmt.Errorf("field %q not allowed in filters", f.Field)
		}

		if _, ok := c.relationalOperators[f.Op]; !ok {
			return fmt.Errorf("relational operator %q not allowed for field %q", f.Op, f.Field)
		}
	}

	for i := range g.Groups {
		if err := validateGroup(&g.Groups[i], c); err != nil {
			return err
		}
	}

	return nil
}

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
