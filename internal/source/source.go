// Package source reads the list of Workshop item IDs a run operates on.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrSourceNotFound is returned when the source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrSourceFormatInvalid is returned when no WorkshopItems assignment is present.
	ErrSourceFormatInvalid = errors.New("no WorkshopItems assignment found")
)

// Key is the assignment name holding the item list.
const Key = "WorkshopItems"

var assignRE = regexp.MustCompile(`(?m)` + Key + `[ \t]*=[ \t]*([^\r\n]*)`)

// ReadItemIDs reads path and returns the item IDs of its WorkshopItems
// assignment in file order.
func ReadItemIDs(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	return ParseItemIDs(string(b))
}

// ParseItemIDs extracts the first WorkshopItems assignment from content.
// Tokens are split on ';', trimmed and empty tokens dropped.
func ParseItemIDs(content string) ([]string, error) {
	m := assignRE.FindStringSubmatch(content)
	if m == nil {
		return nil, ErrSourceFormatInvalid
	}
	return SplitIDs(m[1]), nil
}

// SplitIDs splits a ';'-separated value into trimmed, non-empty tokens.
func SplitIDs(value string) []string {
	ids := []string{}
	for _, tok := range strings.Split(value, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		ids = append(ids, tok)
	}
	return ids
}

// Format renders ids as a source file assignment line.
func Format(ids []string) string {
	return Key + "=" + strings.Join(ids, ";")
}

// Write truncates path and stores ids as a single assignment, creating the
// parent directory when needed.
func Write(path string, ids []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(Format(ids)+"\n"), 0o644)
}

// Seed creates path with an empty assignment when it does not exist yet.
// It reports whether a file was created.
func Seed(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(Key+"="), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// Merge adds ids missing from the source file at path to the end of its
// list and rewrites it. Existing entries keep their order. A missing file
// starts empty. It returns the IDs that were added.
func Merge(path string, ids []string) ([]string, error) {
	existing, err := ReadItemIDs(path)
	if errors.Is(err, ErrSourceNotFound) {
		existing, err = []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	added := []string{}
	for _, id := range ids {
		if known[id] {
			continue
		}
		known[id] = true
		added = append(added, id)
	}
	if len(added) == 0 {
		return added, nil
	}
	return added, Write(path, append(existing, added...))
}
