// Package pagination provides offset-cursor pagination over in-memory result sets.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is used when the caller passes no limit.
	DefaultLimit = 20
	// MaxLimit caps a single page.
	MaxLimit = 200

	cursorPrefix = "off|"
)

// Info describes a page within a larger result set.
type Info struct {
	Total      int    `json:"total"`
	Returned   int    `json:"returned"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Encode returns an opaque cursor for the given offset.
func Encode(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// Decode parses an opaque cursor string. Empty input is offset 0.
func Decode(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor")
	}
	rest, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor")
	}
	offset, err := strconv.Atoi(rest)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor")
	}
	return offset, nil
}

// ClampLimit maps a requested limit onto [1, MaxLimit], using DefaultLimit for
// non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Page slices items starting at the cursor's offset. The full slice is
// expected to be in its final order; totals are computed before slicing.
func Page[T any](items []T, cursor string, limit int) ([]T, Info, error) {
	offset, err := Decode(cursor)
	if err != nil {
		return nil, Info{}, err
	}
	limit = ClampLimit(limit)

	info := Info{Total: len(items)}
	if offset >= len(items) {
		return []T{}, info, nil
	}

	end := min(offset+limit, len(items))
	page := items[offset:end]
	info.Returned = len(page)
	if end < len(items) {
		info.HasMore = true
		info.NextCursor = Encode(end)
	}
	return page, info, nil
}
