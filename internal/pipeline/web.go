package pipeline

import (
	"context"

	"workshopmods/internal/report"
	"workshopmods/internal/resolve"
)

// WebPipeline resolves items from their Workshop detail pages.
type WebPipeline struct {
	Common
	Resolver *resolve.Web
}

// Run reads the item list, truncates both outputs, resolves every item once,
// writes the mapping file and derives the identifier file from it.
// Only source problems abort; per-item failures end up in the results.
func (p *WebPipeline) Run(ctx context.Context) (*Run, error) {
	run := newRun(VariantWeb)
	ids, err := p.loadItems()
	if err != nil {
		p.abort(VariantWeb, run.StartedAt)
		return nil, err
	}
	if err := report.Truncate(p.Outputs.Mapping, p.Outputs.Identifiers); err != nil {
		p.abort(VariantWeb, run.StartedAt)
		return nil, err
	}
	p.Log.Info().Int("items", len(ids)).Msg("resolving mod ids from workshop pages")

	var agg report.Aggregator
	for _, id := range ids {
		r := p.Resolver.Resolve(ctx, id)
		run.Results = append(run.Results, r)
		agg.AddWeb(r)
		p.Metrics.Item(string(VariantWeb), string(r.Status))
	}

	if err := report.WriteMapping(p.Outputs.Mapping, agg.Lines()); err != nil {
		p.Log.Error().Err(err).Str("path", p.Outputs.Mapping).Msg("write mapping")
		return run, err
	}
	modIDs, err := report.ReparseMapping(p.Outputs.Mapping)
	if err != nil {
		p.Log.Error().Err(err).Str("path", p.Outputs.Mapping).Msg("mapping file missing, identifiers not written")
		return run, err
	}
	if err := report.WriteIdentifiers(p.Outputs.Identifiers, modIDs, report.Spaced); err != nil {
		p.Log.Error().Err(err).Str("path", p.Outputs.Identifiers).Msg("write identifiers")
		return run, err
	}
	run.ModIDs = modIDs
	p.Log.Info().Str("path", p.Outputs.Identifiers).Int("mods", len(modIDs)).Msg("mod ids saved")
	p.finish(ctx, run)
	return run, nil
}
