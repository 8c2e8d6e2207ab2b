package source

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadServerINI collects item IDs from every line of a dedicated-server ini
// file that starts with "WorkshopItems=" (case-insensitive). Empty entries
// are dropped; order and duplicates are kept.
func ReadServerINI(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	prefix := strings.ToLower(Key + "=")
	ids := []string{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(strings.ToLower(line), prefix) {
			continue
		}
		ids = append(ids, SplitIDs(line[len(prefix):])...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
