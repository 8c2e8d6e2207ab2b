package report

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Style selects the identifier file layout.
type Style int

const (
	// Compact writes "Mods=a;b".
	Compact Style = iota
	// Spaced writes "Mods= a;b".
	Spaced
)

// IdentifierLine renders ids in the given style.
func IdentifierLine(ids []string, style Style) string {
	prefix := "Mods="
	if style == Spaced {
		prefix = "Mods= "
	}
	return prefix + strings.Join(ids, ";")
}

// WriteMapping truncates path and writes lines joined by newlines.
func WriteMapping(path string, lines []string) error {
	return writeFile(path, strings.Join(lines, "\n"))
}

// WriteIdentifiers truncates path and writes the single identifier line.
func WriteIdentifiers(path string, ids []string, style Style) error {
	return writeFile(path, IdentifierLine(ids, style))
}

// Truncate empties every path, creating missing files and parent dirs.
func Truncate(paths ...string) error {
	for _, p := range paths {
		if err := writeFile(p, ""); err != nil {
			return err
		}
	}
	return nil
}

// ReparseMapping reads a mapping file back and returns the mod ID of each
// line that splits into exactly two parts on ':'. Other lines are skipped.
func ReparseMapping(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ids := []string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.Split(sc.Text(), ":")
		if len(parts) != 2 {
			continue
		}
		ids = append(ids, strings.TrimSpace(parts[1]))
	}
	return ids, sc.Err()
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
