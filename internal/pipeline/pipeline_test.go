package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopmods/internal/metrics"
	"workshopmods/internal/resolve"
	"workshopmods/internal/source"
	"workshopmods/internal/steam"
	"workshopmods/internal/steamcmd"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	page, ok := f.pages[url]
	if !ok {
		return nil, &steam.Error{Kind: steam.KindTransport, URL: url, Message: "connection refused"}
	}
	return []byte(page), nil
}

type fakeRunner struct {
	exit  map[string]int
	calls []string
	onRun func(itemID string)
}

func (f *fakeRunner) Run(_ context.Context, _ string, args []string) (steamcmd.Result, error) {
	var item string
	for i, a := range args {
		if a == "+workshop_download_item" {
			item = args[i+2]
		}
	}
	f.calls = append(f.calls, item)
	if f.onRun != nil {
		f.onRun(item)
	}
	return steamcmd.Result{ExitCode: f.exit[item]}, nil
}

type memRecorder struct {
	runs []*Run
}

func (m *memRecorder) Record(_ context.Context, run *Run) error {
	m.runs = append(m.runs, run)
	return nil
}

type workspace struct {
	dir     string
	source  string
	outputs Outputs
	log     bytes.Buffer
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	return &workspace{
		dir:    dir,
		source: filepath.Join(dir, "Saves_and_Output", "WorkshopID.txt"),
		outputs: Outputs{
			Mapping:     filepath.Join(dir, "Saves_and_Output", "Aufstellung.txt"),
			Identifiers: filepath.Join(dir, "Saves_and_Output", "ModID.txt"),
		},
	}
}

func (w *workspace) common() Common {
	return Common{
		Source:  w.source,
		Outputs: w.outputs,
		Log:     zerolog.New(&w.log),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWebPipelineEndToEnd(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, ws.source, "WorkshopItems=111;222")
	writeFile(t, ws.outputs.Mapping, "stale : entry\nold : one")
	f := &fakeFetcher{pages: map[string]string{
		steam.DetailURL("111"): "<p>Mod ID: abc-1</p>",
	}}
	m := metrics.New()
	rec := &memRecorder{}
	c := ws.common()
	c.Metrics = m
	c.Recorder = rec
	p := &WebPipeline{Common: c, Resolver: resolve.NewWeb(f, c.Log)}

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "111 : abc-1", readFile(t, ws.outputs.Mapping))
	assert.Equal(t, "Mods= abc-1", readFile(t, ws.outputs.Identifiers))
	assert.Equal(t, []string{"abc-1"}, run.ModIDs)
	assert.Equal(t, 2, run.Summary.Items)
	assert.Equal(t, 1, run.Summary.Found)
	assert.Equal(t, 1, run.Summary.Failed)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, run.ID, rec.runs[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsTotal.WithLabelValues("web", "error")))
	assert.Contains(t, ws.log.String(), `"event":"run_summary"`)
}

func TestWebPipelineAllItemsFailStillWrites(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, ws.source, "WorkshopItems=1;2")
	c := ws.common()
	p := &WebPipeline{Common: c, Resolver: resolve.NewWeb(&fakeFetcher{}, c.Log)}

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", readFile(t, ws.outputs.Mapping))
	assert.Equal(t, "Mods= ", readFile(t, ws.outputs.Identifiers))
}

func TestSourceMissingLeavesOutputsUntouched(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, ws.outputs.Mapping, "keep me")
	c := ws.common()
	p := &WebPipeline{Common: c, Resolver: resolve.NewWeb(&fakeFetcher{}, c.Log)}

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, source.ErrSourceNotFound)
	assert.Equal(t, "keep me", readFile(t, ws.outputs.Mapping))
	assert.NoFileExists(t, ws.outputs.Identifiers)
	assert.Contains(t, ws.log.String(), `"level":"error"`)
}

func TestSourceWithoutAssignmentAborts(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, ws.source, "Mods=abc")
	c := ws.common()
	p := &DownloadPipeline{Common: c, Resolver: resolve.NewDownload(&fakeRunner{}, resolve.OSFileSystem{}, resolve.DownloadConfig{OutputDir: ws.dir, AppID: "108600"}, c.Log)}

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, source.ErrSourceFormatInvalid)
	assert.NoFileExists(t, ws.outputs.Mapping)
}

func TestEmptyItemListAborts(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, ws.source, "WorkshopItems=;;")
	c := ws.common()
	p := &WebPipeline{Common: c, Resolver: resolve.NewWeb(&fakeFetcher{}, c.Log)}

	_, err := p.Run(context.Background())
	require.True(t, errors.Is(err, ErrNoItems))
	assert.NoFileExists(t, ws.outputs.Mapping)
}

func newDownloadPipeline(ws *workspace, r steamcmd.Runner) *DownloadPipeline {
	c := ws.common()
	cfg := resolve.DownloadConfig{
		OutputDir:     filepath.Join(ws.dir, "Workshop_Files"),
		AppID:         "108600",
		RateLimitKbps: 50000,
	}
	return &DownloadPipeline{Common: c, Resolver: resolve.NewDownload(r, resolve.OSFileSystem{}, cfg, c.Log)}
}

func TestDownloadPipelineEndToEnd(t *testing.T) {
	ws := newWorkspace(t)
	writeFile(t, ws.source, "WorkshopItems = 333")
	r := &fakeRunner{}
	p := newDownloadPipeline(ws, r)
	mods := filepath.Join(p.Resolver.ContentDir("333"), "mods")
	writeFile(t, filepath.Join(mods, "SubMod", "mod.info"), "name=A\nid=modA\n")
	writeFile(t, filepath.Join(mods, "Tools", "mod.info"), "name=B\nid=modB\n")

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, r.calls, "populated item must not be downloaded again")
	assert.Equal(t, "333 :\n  modA\n  modB", readFile(t, ws.outputs.Mapping))
	assert.Equal(t, "Mods=modA;modB", readFile(t, ws.outputs.Identifiers))
	require.Len(t, run.Results, 1)
	assert.Equal(t, resolve.DownloadSkipped, run.Results[0].Download)
}

// The download loop runs to completion before any extraction, and every item
// gets an extraction attempt whatever its download outcome. This ordering is
// intentional.
func TestDownloadPipelineTwoPhases(t *testing.T) {
	ws := newWorkspace(t)
	c := ws.common()
	c.Items = []string{"10", "20", "30"}
	var p *DownloadPipeline
	var extractedBeforeAllDownloads bool
	r := &fakeRunner{exit: map[string]int{"20": 8}}
	r.onRun = func(item string) {
		if _, err := os.Stat(ws.outputs.Mapping); err == nil {
			extractedBeforeAllDownloads = true
		}
		switch item {
		case "10":
			writeFile(t, filepath.Join(p.Resolver.ContentDir("10"), "mods", "A", "mod.info"), "id=fresh")
		case "20":
			// failed download leaves content from an earlier run behind
			writeFile(t, filepath.Join(p.Resolver.ContentDir("20"), "mods", "B", "mod.info"), "id=leftover")
		}
	}
	p = newDownloadPipeline(ws, r)
	p.Common = c

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, extractedBeforeAllDownloads)
	assert.Equal(t, []string{"10", "20", "30"}, r.calls)
	require.Len(t, run.Results, 3)
	assert.Equal(t, resolve.DownloadDone, run.Results[0].Download)
	assert.Equal(t, resolve.DownloadFailed, run.Results[1].Download)
	assert.Equal(t, []string{"leftover"}, run.Results[1].ModIDs)
	assert.Equal(t, resolve.DownloadDone, run.Results[2].Download)
	assert.Equal(t, "10 :\n  fresh\n20 :\n  leftover\n30 : Fehler beim Auslesen", readFile(t, ws.outputs.Mapping))
	assert.Equal(t, "Mods=fresh;leftover", readFile(t, ws.outputs.Identifiers))
}

func TestDownloadMappingAndIdentifiersAgree(t *testing.T) {
	ws := newWorkspace(t)
	c := ws.common()
	c.Items = []string{"1", "2", "3"}
	p := newDownloadPipeline(ws, &fakeRunner{})
	p.Common = c
	for item, ids := range map[string][]string{"1": {"x1", "x2"}, "3": {"y1"}} {
		for _, id := range ids {
			writeFile(t, filepath.Join(p.Resolver.ContentDir(item), "mods", id, "mod.info"), "id="+id)
		}
	}

	run, err := p.Run(context.Background())
	require.NoError(t, err)

	var fromMapping []string
	for _, line := range strings.Split(readFile(t, ws.outputs.Mapping), "\n") {
		if id, ok := strings.CutPrefix(line, "  "); ok && id != "" {
			fromMapping = append(fromMapping, id)
		}
	}
	assert.Equal(t, []string{"x1", "x2", "y1"}, fromMapping)
	assert.Equal(t, fromMapping, run.ModIDs)
	assert.Equal(t, "Mods=x1;x2;y1", readFile(t, ws.outputs.Identifiers))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("download")
	require.NoError(t, err)
	assert.Equal(t, VariantDownload, v)
	_, err = ParseVariant("ftp")
	require.Error(t, err)
}
