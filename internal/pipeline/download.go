package pipeline

import (
	"context"

	"workshopmods/internal/report"
	"workshopmods/internal/resolve"
)

// DownloadPipeline resolves items from content downloaded by SteamCMD.
type DownloadPipeline struct {
	Common
	Resolver *resolve.Download
}

// Run downloads every item first and extracts every item afterwards. The
// extraction loop covers all items, including ones whose download failed,
// so content left behind by earlier runs is still read.
func (p *DownloadPipeline) Run(ctx context.Context) (*Run, error) {
	run := newRun(VariantDownload)
	ids, err := p.loadItems()
	if err != nil {
		p.abort(VariantDownload, run.StartedAt)
		return nil, err
	}
	p.Log.Info().Int("items", len(ids)).Msg("downloading workshop items")

	states := make([]resolve.DownloadState, len(ids))
	for i, id := range ids {
		state, _ := p.Resolver.Fetch(ctx, id)
		states[i] = state
		p.Metrics.Download(string(state))
	}

	var agg report.Aggregator
	for i, id := range ids {
		r := p.Resolver.Extract(id)
		r.Download = states[i]
		run.Results = append(run.Results, r)
		agg.AddDownload(r)
		p.Metrics.Item(string(VariantDownload), string(r.Status))
	}

	if err := report.WriteMapping(p.Outputs.Mapping, agg.Lines()); err != nil {
		p.Log.Error().Err(err).Str("path", p.Outputs.Mapping).Msg("write mapping")
		return run, err
	}
	p.Log.Info().Str("path", p.Outputs.Mapping).Msg("results saved")
	run.ModIDs = agg.ModIDs()
	if err := report.WriteIdentifiers(p.Outputs.Identifiers, run.ModIDs, report.Compact); err != nil {
		p.Log.Error().Err(err).Str("path", p.Outputs.Identifiers).Msg("write identifiers")
		return run, err
	}
	p.Log.Info().Str("path", p.Outputs.Identifiers).Int("mods", len(run.ModIDs)).Msg("mod ids saved")
	p.finish(ctx, run)
	return run, nil
}
