package cli

import (
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"workshopmods/internal/config"
	"workshopmods/internal/logx"
	"workshopmods/internal/metrics"
	"workshopmods/internal/pipeline"
	"workshopmods/internal/resolve"
	"workshopmods/internal/steam"
	"workshopmods/internal/steamcmd"
	"workshopmods/internal/store"
)

// Swapped in tests.
var (
	newFetcher = func(l zerolog.Logger) resolve.Fetcher { return steam.NewClient(l) }
	newRunner  = func(path string) steamcmd.Runner { return steamcmd.ExecRunner{Path: path} }
)

func loadConfig(g *globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func logLevel(cfg config.Config) zerolog.Level {
	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// consoleLogger is used by commands that do not keep a log file.
func consoleLogger(g *globalFlags, cfg config.Config) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: g.console, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
	return zerolog.New(logx.NewRedactor(cw, cfg.Download.Password)).Level(logLevel(cfg)).With().Timestamp().Logger()
}

// app holds what a pipeline run needs beyond its own configuration.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	store   *store.Store

	closers []io.Closer
}

// logFile picks the log file of a command from the configuration.
type logFile func(config.Config) string

func webLog(c config.Config) string      { return c.Web.LogFile }
func downloadLog(c config.Config) string { return c.Download.LogFile }
func serveLog(c config.Config) string    { return c.Serve.LogFile }

// newApp opens the command's log file and, when configured, the run store.
func newApp(g *globalFlags, file logFile) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	l, closer, err := logx.Setup(cfg.Log.Dir, file(cfg), g.console, logLevel(cfg), cfg.Download.Password)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: l, metrics: metrics.New(), closers: []io.Closer{closer}}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = st
		a.closers = append(a.closers, st)
	}
	return a, nil
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *app) common(outputs pipeline.Outputs, items []string) pipeline.Common {
	c := pipeline.Common{
		Source:  a.cfg.SourceFile,
		Items:   items,
		Outputs: outputs,
		Log:     a.log,
		Metrics: a.metrics,
	}
	if a.store != nil {
		c.Recorder = a.store
	}
	return c
}

func (a *app) webPipeline(items []string) *pipeline.WebPipeline {
	return &pipeline.WebPipeline{
		Common: a.common(pipeline.Outputs{
			Mapping:     a.cfg.Web.MappingFile,
			Identifiers: a.cfg.Web.IdentifierFile,
		}, items),
		Resolver: resolve.NewWeb(newFetcher(a.log), a.log),
	}
}

// downloadPipeline resolves the tool and output paths to absolute ones since
// the tool runs inside the output directory.
func (a *app) downloadPipeline(items []string) (*pipeline.DownloadPipeline, error) {
	d := a.cfg.Download
	tool, err := filepath.Abs(d.SteamCMD)
	if err != nil {
		return nil, err
	}
	out, err := filepath.Abs(d.OutputDir)
	if err != nil {
		return nil, err
	}
	return &pipeline.DownloadPipeline{
		Common: a.common(pipeline.Outputs{
			Mapping:     d.MappingFile,
			Identifiers: d.IdentifierFile,
		}, items),
		Resolver: resolve.NewDownload(newRunner(tool), resolve.OSFileSystem{}, resolve.DownloadConfig{
			OutputDir:     out,
			AppID:         d.AppID,
			RateLimitKbps: d.RateLimitKbps,
			Login:         steamcmd.Login{User: d.Login, Password: d.Password},
		}, a.log),
	}, nil
}
