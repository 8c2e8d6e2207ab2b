package resolve

import (
	"context"

	"github.com/rs/zerolog"

	"workshopmods/internal/extract"
	"workshopmods/internal/steam"
)

// Fetcher retrieves the body behind url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Web resolves items by scraping their detail pages.
type Web struct {
	fetch Fetcher
	log   zerolog.Logger
}

// NewWeb returns a Web resolver using f.
func NewWeb(f Fetcher, l zerolog.Logger) *Web {
	return &Web{fetch: f, log: l}
}

// Resolve fetches the detail page of itemID once and extracts the first Mod ID.
func (w *Web) Resolve(ctx context.Context, itemID string) Result {
	url := steam.DetailURL(itemID)
	body, err := w.fetch.Fetch(ctx, url)
	if err != nil {
		w.log.Error().Err(err).Str("item", itemID).Str("url", url).Msg("fetch workshop page")
		return Result{ItemID: itemID, Status: StatusError, Err: err}
	}
	page := string(body)
	title := extract.ItemTitle(page)
	modID, ok := extract.PageModID(page)
	if !ok {
		w.log.Warn().Str("item", itemID).Str("title", title).Msg("no mod id on workshop page")
		return Result{ItemID: itemID, Title: title, Status: StatusNotFound, Err: ErrModIDMissing}
	}
	w.log.Info().Str("item", itemID).Str("mod", modID).Str("title", title).Msg("mod id found")
	return Result{ItemID: itemID, ModIDs: []string{modID}, Title: title, Status: StatusFound}
}
