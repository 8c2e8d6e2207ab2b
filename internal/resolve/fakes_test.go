package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"workshopmods/internal/steamcmd"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(page), nil
}

type runCall struct {
	dir  string
	args []string
}

type fakeRunner struct {
	results map[string]steamcmd.Result // keyed by item id
	err     error
	calls   []runCall
	// onRun lets a test materialize downloaded files.
	onRun func(itemID string)
}

func (f *fakeRunner) Run(_ context.Context, dir string, args []string) (steamcmd.Result, error) {
	f.calls = append(f.calls, runCall{dir: dir, args: args})
	if f.err != nil {
		return steamcmd.Result{}, f.err
	}
	itemID := itemFromArgs(args)
	if f.onRun != nil {
		f.onRun(itemID)
	}
	return f.results[itemID], nil
}

func itemFromArgs(args []string) string {
	for i, a := range args {
		if a == "+workshop_download_item" && i+2 < len(args) {
			return args[i+2]
		}
	}
	return ""
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
