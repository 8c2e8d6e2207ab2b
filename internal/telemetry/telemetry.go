package telemetry

import "github.com/rs/zerolog"

// Event logs a telemetry event with optional fields. Sensitive values should be omitted by callers.
func Event(l zerolog.Logger, name string, fields map[string]string) {
	e := l.Info().Str("event", name)
	for k, v := range fields {
		e = e.Str(k, v)
	}
	e.Msg("telemetry")
}
