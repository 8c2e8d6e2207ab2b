package resolve

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopmods/internal/steam"
)

func TestWebResolveFound(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		steam.DetailURL("111"): `<div class="workshopItemTitle">Alpha</div>Mod ID: abc-1<br>Mod ID: other`,
	}}
	var buf bytes.Buffer
	w := NewWeb(f, zerolog.New(&buf))

	got := w.Resolve(context.Background(), "111")
	assert.Equal(t, []string{"abc-1"}, got.ModIDs)
	assert.Equal(t, StatusFound, got.Status)
	assert.Equal(t, "Alpha", got.Title)
	assert.True(t, got.Found())
	assert.Equal(t, []string{"https://steamcommunity.com/sharedfiles/filedetails/?id=111"}, f.calls)
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestWebResolveNoModID(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{steam.DetailURL("222"): "<html>collection page</html>"}}
	var buf bytes.Buffer
	got := NewWeb(f, zerolog.New(&buf)).Resolve(context.Background(), "222")

	assert.Empty(t, got.ModIDs)
	assert.Equal(t, StatusNotFound, got.Status)
	require.ErrorIs(t, got.Err, ErrModIDMissing)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestWebResolveFetchFailure(t *testing.T) {
	var buf bytes.Buffer
	got := NewWeb(&fakeFetcher{}, zerolog.New(&buf)).Resolve(context.Background(), "333")

	assert.Empty(t, got.ModIDs)
	assert.Equal(t, StatusError, got.Status)
	require.Error(t, got.Err)
	assert.Contains(t, buf.String(), `"level":"error"`)
}
