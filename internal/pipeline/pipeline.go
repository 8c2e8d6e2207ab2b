// Package pipeline wires source reading, resolution and report writing into
// the two extraction runs.
package pipeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"workshopmods/internal/metrics"
	"workshopmods/internal/resolve"
	"workshopmods/internal/source"
	"workshopmods/internal/summary"
	"workshopmods/internal/telemetry"
)

// Variant names a pipeline.
type Variant string

const (
	VariantWeb      Variant = "web"
	VariantDownload Variant = "download"
)

// ParseVariant validates s as a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantWeb, VariantDownload:
		return Variant(s), nil
	}
	return "", errors.New("unknown variant " + strconv.Quote(s))
}

// ErrNoItems is returned when the item list is empty.
var ErrNoItems = errors.New("no workshop ids found")

// Run is the record of one pipeline execution.
type Run struct {
	ID         string           `json:"id"`
	Variant    Variant          `json:"variant"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []resolve.Result `json:"-"`
	ModIDs     []string         `json:"mod_ids"`
	Summary    summary.Summary  `json:"summary"`
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

// Outputs names the two files a run writes.
type Outputs struct {
	Mapping     string
	Identifiers string
}

// Common holds the dependencies shared by both pipelines.
type Common struct {
	// Source is the item list file. Ignored when Items is set.
	Source string
	// Items overrides the source file.
	Items   []string
	Outputs Outputs
	Log     zerolog.Logger
	Metrics *metrics.Metrics
	// Recorder is optional.
	Recorder Recorder
}

func (c *Common) loadItems() ([]string, error) {
	if len(c.Items) > 0 {
		return append([]string(nil), c.Items...), nil
	}
	ids, err := source.ReadItemIDs(c.Source)
	if err != nil {
		c.Log.Error().Err(err).Str("path", c.Source).Msg("read workshop ids")
		return nil, err
	}
	if len(ids) == 0 {
		c.Log.Error().Str("path", c.Source).Msg("no workshop ids found, stopping")
		return nil, ErrNoItems
	}
	return ids, nil
}

func newRun(v Variant) *Run {
	return &Run{ID: uuid.NewString(), Variant: v, StartedAt: time.Now().UTC()}
}

func (c *Common) finish(ctx context.Context, run *Run) {
	run.FinishedAt = time.Now().UTC()
	run.Summary = summary.Summarize(run.Results)
	c.Metrics.Run(string(run.Variant), "ok", run.FinishedAt.Sub(run.StartedAt))
	telemetry.Event(c.Log, "run_summary", map[string]string{
		"run_id":    run.ID,
		"variant":   string(run.Variant),
		"items":     strconv.Itoa(run.Summary.Items),
		"found":     strconv.Itoa(run.Summary.Found),
		"not_found": strconv.Itoa(run.Summary.NotFound),
		"failed":    strconv.Itoa(run.Summary.Failed),
		"mod_ids":   strconv.Itoa(run.Summary.ModIDs),
	})
	if c.Recorder == nil {
		return
	}
	if err := c.Recorder.Record(ctx, run); err != nil {
		c.Log.Error().Err(err).Str("run_id", run.ID).Msg("record run")
	}
}

func (c *Common) abort(v Variant, started time.Time) {
	c.Metrics.Run(string(v), "aborted", time.Since(started))
}
