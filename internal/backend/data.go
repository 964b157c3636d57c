package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// Resources lists the portal data screens that List serves.
var Resources = []string{"service-requests", "contracts", "customers"}

// IsResource reports whether name is one of Resources.
func IsResource(name string) bool {
	for _, r := range Resources {
		if r == name {
			return true
		}
	}
	return false
}

// List calls GET <data>/<resource>. The request carries no explicit token:
// the API client guard wrapping h.client attaches it and reacts to 401/403.
// The body may be a bare array or {"items": [...]} / {"data": [...]}.
func (h *HTTP) List(ctx context.Context, resource string) ([]map[string]any, error) {
	if !IsResource(resource) {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoints.Data+"/"+url.PathEscape(resource), nil, "")
	if err != nil {
		return nil, err
	}
	_, body, err := h.do("list "+resource, req)
	if err != nil {
		return nil, err
	}
	return decodeItems(body)
}

func decodeItems(body []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var env struct {
		Items []map[string]any `json:"items"`
		Data  []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if env.Items != nil {
		return env.Items, nil
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return []map[string]any{}, nil
}

// Tabulate flattens list items into columns, sorted by name with "id" first,
// and one row of strings per item.
func Tabulate(items []map[string]any) ([]string, [][]string) {
	seen := map[string]bool{}
	var cols []string
	for _, it := range items {
		for k := range it {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	// id first when present
	for i, c := range cols {
		if c == "id" && i > 0 {
			copy(cols[1:i+1], cols[:i])
			cols[0] = "id"
			break
		}
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := it[c]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return cols, rows
}
