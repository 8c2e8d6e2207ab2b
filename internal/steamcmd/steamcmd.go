// Package steamcmd drives the external SteamCMD tool that downloads
// Workshop content.
package steamcmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// AnonymousLogin is the login name SteamCMD uses for public content.
const AnonymousLogin = "anonymous"

// Result holds the outcome of a finished tool invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner invokes the download tool with args, using dir as working directory.
// A non-zero exit is reported through Result, not as an error; the error is
// reserved for failures to start or wait for the process.
type Runner interface {
	Run(ctx context.Context, dir string, args []string) (Result, error)
}

// ExecRunner runs the executable at Path. A relative Path is resolved
// against the working directory passed to Run, so callers pass it absolute.
type ExecRunner struct {
	Path string
}

// Run executes the tool synchronously and captures both output streams.
func (r ExecRunner) Run(ctx context.Context, dir string, args []string) (Result, error) {
	// #nosec G204 -- args come from DownloadArgs
	cmd := exec.CommandContext(ctx, r.Path, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", r.Path, err)
	}
	return res, nil
}

// Login identifies the Steam account used by the tool.
type Login struct {
	User     string
	Password string
}

// DownloadArgs builds the argument list that downloads itemID of appID into
// installDir with the given client rate limit.
func DownloadArgs(login Login, rateKbps int, installDir, appID, itemID string) []string {
	user := login.User
	if user == "" {
		user = AnonymousLogin
	}
	args := []string{"+login", user}
	if user != AnonymousLogin && login.Password != "" {
		args = append(args, login.Password)
	}
	return append(args,
		"+@nCSClientRateLimitKbps", strconv.Itoa(rateKbps),
		"+force_install_dir", installDir,
		"+workshop_download_item", appID, itemID,
		"validate",
		"+quit",
	)
}

// MaskArgs returns a copy of args with secret replaced, for logging.
func MaskArgs(args []string, secret string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if secret != "" && a == secret {
			a = "***"
		}
		out[i] = a
	}
	return out
}

// ExitError reports a tool run that exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := "steamcmd exited with code " + strconv.Itoa(e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}
