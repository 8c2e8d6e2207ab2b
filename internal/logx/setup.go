package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// RotateLayout is the suffix layout appended to a previous log file.
const RotateLayout = "20060102_150405"

// now is swapped in tests.
var now = time.Now

// Setup creates dir, moves an existing dir/name aside with a timestamp suffix
// and returns a logger that writes JSON lines to the fresh file and a
// human-readable rendering to console. Both sinks mask sensitive fields and
// the given secret values. The returned closer releases the file.
func Setup(dir, name string, console io.Writer, level zerolog.Level, secrets ...string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if _, err := Rotate(path); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	var sinks []io.Writer
	sinks = append(sinks, NewRedactor(f, secrets...))
	if console != nil {
		cw := zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
		sinks = append(sinks, NewRedactor(cw, secrets...))
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(level).
		With().Timestamp().Logger()
	return logger, f, nil
}

// Rotate renames path to path.<timestamp> when it exists and returns the new
// name. It returns "" when there was nothing to rotate.
func Rotate(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	dst := path + "." + now().Format(RotateLayout)
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("rotate log: %w", err)
	}
	return dst, nil
}
