package resolve

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"workshopmods/internal/extract"
	"workshopmods/internal/logx"
	"workshopmods/internal/steamcmd"
)

// MetadataFile is the per-mod metadata file name, matched case-insensitively.
const MetadataFile = "mod.info"

// DownloadConfig holds the fixed parameters of every tool invocation.
type DownloadConfig struct {
	// OutputDir is passed as force_install_dir and used as working directory.
	OutputDir     string
	AppID         string
	RateLimitKbps int
	Login         steamcmd.Login
}

// Download resolves items from content fetched by SteamCMD. Callers run
// Fetch for every item first and Extract for every item afterwards.
type Download struct {
	run steamcmd.Runner
	fs  FileSystem
	cfg DownloadConfig
	log zerolog.Logger
}

// NewDownload returns a Download resolver.
func NewDownload(r steamcmd.Runner, fsys FileSystem, cfg DownloadConfig, l zerolog.Logger) *Download {
	return &Download{run: r, fs: fsys, cfg: cfg, log: l}
}

// ContentDir is where SteamCMD places the files of itemID.
func (d *Download) ContentDir(itemID string) string {
	return filepath.Join(d.cfg.OutputDir, "steamapps", "workshop", "content", d.cfg.AppID, itemID)
}

// Fetch downloads itemID unless its content directory already has entries.
// A failed download is logged and reported through the returned state and
// error; it does not stop extraction.
func (d *Download) Fetch(ctx context.Context, itemID string) (DownloadState, error) {
	if d.fs.DirNonEmpty(d.ContentDir(itemID)) {
		d.log.Info().Str("item", itemID).Msg("already downloaded, skipping download")
		return DownloadSkipped, nil
	}
	if err := d.fs.MkdirAll(d.cfg.OutputDir); err != nil {
		d.log.Error().Err(err).Str("item", itemID).Str("dir", d.cfg.OutputDir).Msg("create output dir")
		return DownloadFailed, err
	}
	args := steamcmd.DownloadArgs(d.cfg.Login, d.cfg.RateLimitKbps, d.cfg.OutputDir, d.cfg.AppID, itemID)
	ev := d.log.Info().Str("item", itemID).Strs("args", steamcmd.MaskArgs(args, d.cfg.Login.Password))
	if d.cfg.Login.Password != "" {
		ev = ev.Str("login", d.cfg.Login.User).Str("auth", logx.Secret(d.cfg.Login.Password))
	}
	ev.Msg("starting download")

	res, err := d.run.Run(ctx, d.cfg.OutputDir, args)
	if err != nil {
		d.log.Error().Err(err).Str("item", itemID).Msg("run steamcmd")
		return DownloadFailed, err
	}
	if res.ExitCode != 0 {
		exitErr := &steamcmd.ExitError{Code: res.ExitCode, Stderr: res.Stderr}
		d.log.Error().Str("item", itemID).Int("exit_code", res.ExitCode).Str("stderr", res.Stderr).Msg("download failed")
		return DownloadFailed, exitErr
	}
	d.log.Info().Str("item", itemID).Msg("download finished")
	return DownloadDone, nil
}

// Extract scans the mods directory of itemID for mod.info files. Each file
// contributes at most its first id= token.
func (d *Download) Extract(itemID string) Result {
	modsDir := filepath.Join(d.ContentDir(itemID), "mods")
	if !d.fs.Exists(modsDir) {
		d.log.Warn().Str("item", itemID).Str("dir", modsDir).Msg("mods directory not found")
		return Result{ItemID: itemID, Status: StatusNotFound, Err: ErrMetadataMissing}
	}
	files, err := d.fs.ListFiles(modsDir)
	if err != nil {
		if files == nil {
			d.log.Error().Err(err).Str("item", itemID).Str("dir", modsDir).Msg("scan mods directory")
			return Result{ItemID: itemID, Status: StatusError, Err: err}
		}
		d.log.Warn().Err(err).Str("item", itemID).Str("dir", modsDir).Msg("parts of mods directory unreadable, skipped")
	}

	var ids []string
	for _, f := range files {
		if !strings.EqualFold(filepath.Base(f), MetadataFile) {
			continue
		}
		b, err := d.fs.ReadFile(f)
		if err != nil {
			d.log.Warn().Err(err).Str("item", itemID).Str("file", f).Msg("read mod.info")
			continue
		}
		if id, ok := extract.InfoModID(string(b)); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		d.log.Warn().Str("item", itemID).Msg("no valid mod id in mod.info files")
		return Result{ItemID: itemID, Status: StatusNotFound, Err: ErrMetadataEmpty}
	}
	d.log.Info().Str("item", itemID).Strs("mods", ids).Msg("mod ids extracted")
	return Result{ItemID: itemID, ModIDs: ids, Status: StatusFound}
}
