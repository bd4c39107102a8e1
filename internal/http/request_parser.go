// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// report criteria and paging from query strings, and entry input from JSON or
// form bodies.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/report"
)

// MaxPageSize caps the page_size query parameter.
const MaxPageSize = 100

// maxBodyBytes bounds entry create bodies.
const maxBodyBytes = 64 << 10

// ParseCriteria reads range, start, end, kind and category from query and
// resolves the date bounds as seen on today. Bounds without a range imply a
// custom range.
func ParseCriteria(query url.Values, today core.Date) (report.FilterCriteria, error) {
	return report.NewCriteria(
		query.Get("range"),
		query.Get("start"),
		query.Get("end"),
		query.Get("kind"),
		sanitizeInput(query.Get("category")),
		today,
	)
}

// PageParams holds the paging parameters of a table request.
type PageParams struct {
	Page     int
	PageSize int
	// Key is the criteria fingerprint the client last saw.
	Key string
}

// ParsePageParams extracts page, page_size and key. Missing or invalid
// values fall back to page 1 and defaultSize; page_size is capped at
// MaxPageSize.
func ParsePageParams(query url.Values, defaultSize int) PageParams {
	p := PageParams{Page: 1, PageSize: defaultSize, Key: query.Get("key")}
	if p.PageSize <= 0 {
		p.PageSize = report.DefaultPageSize
	}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := strings.TrimSpace(query.Get("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.PageSize = min(n, MaxPageSize)
		}
	}

	return p
}

// ParseTopN reads the top query parameter, falling back to def.
func ParseTopN(query url.Values, def int) int {
	if v := strings.TrimSpace(query.Get("top")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseEntryInput builds an entry from a parsed body. The date defaults to
// today; "type" and "kind" are accepted for the entry kind. The result is
// validated.
func ParseEntryInput(p *RequestBodyParser, today core.Date) (core.Entry, error) {
	e := core.Entry{
		Date:        today,
		Description: p.Get("description"),
		Category:    p.Get("category"),
	}

	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Entry{}, err
		}
		e.Date = d
	}

	kind := p.Get("type")
	if kind == "" {
		kind = p.Get("kind")
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Entry{}, err
	}
	e.Kind = k

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Entry{}, err
	}
	e.Amount = amount

	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}
