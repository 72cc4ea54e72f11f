package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// envelope covers the paged shapes the backend has been seen to return:
//
//	{"content": [...], "totalElements": n, "number": p, "size": s}
//	{"content": [...], "totalElements": n, "pageable": {"pageNumber": p, "pageSize": s}}
//	{"items": [...], "total": n}
type envelope struct {
	Content       json.RawMessage `json:"content"`
	Items         json.RawMessage `json:"items"`
	TotalElements *int            `json:"totalElements"`
	Total         *int            `json:"total"`
	Number        *int            `json:"number"`
	Size          *int            `json:"size"`
	Pageable      json.RawMessage `json:"pageable"`
}

type pageable struct {
	PageNumber *int `json:"pageNumber"`
	PageSize   *int `json:"pageSize"`
}

// decodePage normalizes a search response into a Page. A bare array is
// treated as the whole collection and cut down to the requested window.
func decodePage[T any](data []byte, query libadmin.Query) (*libadmin.Page[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", constants.ErrUnsupportedEnvelope)
	}

	switch trimmed[0] {
	case '[':
		return decodeArray[T](trimmed, query)
	case '{':
		return decodeEnvelope[T](trimmed, query)
	default:
		return nil, fmt.Errorf("%w: body is neither an object nor an array", constants.ErrUnsupportedEnvelope)
	}
}

func decodeArray[T any](data []byte, query libadmin.Query) (*libadmin.Page[T], error) {
	var all []T

	err := json.Unmarshal(data, &all)
	if err != nil {
		return nil, err
	}

	page := libadmin.Slice(filterByKeyword(all, query.Keyword), query.Page, query.Size)

	return &page, nil
}

func decodeEnvelope[T any](data []byte, query libadmin.Query) (*libadmin.Page[T], error) {
	var env envelope

	err := json.Unmarshal(data, &env)
	if err != nil {
		return nil, err
	}

	raw := env.Content
	if len(raw) == 0 {
		raw = env.Items
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: neither content nor items present", constants.ErrUnsupportedEnvelope)
	}

	content := []T{}

	err = json.Unmarshal(raw, &content)
	if err != nil {
		return nil, err
	}

	if content == nil {
		content = []T{}
	}

	page := &libadmin.Page[T]{
		Content:       content,
		TotalElements: firstInt(len(content), env.TotalElements, env.Total),
		PageNumber:    query.Page,
		PageSize:      query.Size,
	}

	// Unpaged responses carry "pageable": "INSTANCE", which is not an object.
	var paging pageable

	if len(env.Pageable) > 0 && env.Pageable[0] == '{' {
		err = json.Unmarshal(env.Pageable, &paging)
		if err != nil {
			return nil, err
		}
	}

	page.PageNumber = firstInt(page.PageNumber, env.Number, paging.PageNumber)
	page.PageSize = firstInt(page.PageSize, env.Size, paging.PageSize)

	return page, nil
}

func firstInt(fallback int, candidates ...*int) int {
	for _, candidate := range candidates {
		if candidate != nil {
			return *candidate
		}
	}

	return fallback
}

// filterByKeyword narrows a full listing for endpoints that ignore the keyword.
func filterByKeyword[T any](all []T, keyword string) []T {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return all
	}

	kept := make([]T, 0, len(all))

	for _, item := range all {
		labeled, ok := any(item).(libadmin.Labeled)
		if !ok {
			return all
		}

		if strings.Contains(strings.ToLower(labeled.Label()), keyword) {
			kept = append(kept, item)
		}
	}

	return kept
}
