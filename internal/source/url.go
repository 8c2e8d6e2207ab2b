package source

import (
	"errors"
	urlpkg "net/url"
	"strings"
)

var errNoItemID = errors.New("item id not found")

// ItemIDFromArg accepts either a bare numeric item ID or a Workshop URL
// carrying an id query parameter and returns the item ID.
func ItemIDFromArg(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errNoItemID
	}
	if isDigits(raw) {
		return raw, nil
	}
	u, err := urlpkg.Parse(raw)
	if err != nil {
		return "", err
	}
	id := u.Query().Get("id")
	if id == "" || !isDigits(id) {
		return "", errNoItemID
	}
	return id, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
