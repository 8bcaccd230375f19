package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ParseIntParam parses an integer query parameter with a default value.
// Returns defaultVal if the parameter is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// Pagination holds the limit/offset window of a list request.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePagination extracts limit/offset query parameters, enforcing sensible
// defaults and a maximum limit to prevent unbounded queries.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := ParseIntParam(r.URL.Query().Get("limit"), defaultLimit)
	offset := ParseIntParam(r.URL.Query().Get("offset"), 0)

	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}
