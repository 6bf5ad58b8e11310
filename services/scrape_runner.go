package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/copaaglo/Ticket-Prices-Web-Scraper/models"
	"github.com/copaaglo/Ticket-Prices-Web-Scraper/utils"
)

const (
	outputTailBytes = 4000
	// waitDelay bounds how long Run waits for output pipes after a kill.
	waitDelay = 5 * time.Second
)

// ScrapeRunner launches the scrape collaborator as a child process and
// waits for it.
type ScrapeRunner struct {
	Binary  string
	Args    []string
	Dir     string
	Timeout time.Duration
	logger  *utils.Logger
}

// NewScrapeRunner configures a runner. The artist is appended to args as
// "-artist <name>" on every run.
func NewScrapeRunner(binary string, args []string, dir string, timeout time.Duration, logger *utils.Logger) *ScrapeRunner {
	return &ScrapeRunner{
		Binary:  binary,
		Args:    args,
		Dir:     dir,
		Timeout: timeout,
		logger:  logger,
	}
}

// Run executes one scrape for artist. Failures are reported in the result,
// never as a Go error.
func (r *ScrapeRunner) Run(ctx context.Context, artist string) *models.ScrapeResult {
	bin, err := r.resolveBinary()
	if err != nil {
		return &models.ScrapeResult{OK: false, Artist: artist, Error: err.Error()}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.Args...), "-artist", artist)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("[scrape] Starting %s for %q", bin, artist)
	start := time.Now()
	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.logger.Error("[scrape] %q timed out after %v", artist, r.Timeout)
		return &models.ScrapeResult{
			OK:     false,
			Artist: artist,
			Error:  fmt.Sprintf("Scraper timed out after %ds", int(r.Timeout.Seconds())),
		}
	}

	result := &models.ScrapeResult{
		Artist: artist,
		Stdout: tail(stdout.String(), outputTailBytes),
		Stderr: tail(stderr.String(), outputTailBytes),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.OK = true
	case errors.As(err, &exitErr):
		result.ReturnCode = exitErr.ExitCode()
	default:
		result.ReturnCode = -1
		result.Error = err.Error()
	}

	r.logger.Info("[scrape] %q finished in %v (exit %d)", artist, time.Since(start).Round(time.Millisecond), result.ReturnCode)
	return result
}

// resolveBinary finds the executable Run starts. Paths with a separator are
// relative to Dir and come back absolute, so cmd.Dir cannot apply twice.
func (r *ScrapeRunner) resolveBinary() (string, error) {
	if r.Binary == "" {
		return "", errors.New("Scraper binary not configured")
	}
	if !strings.ContainsRune(r.Binary, os.PathSeparator) {
		path, err := exec.LookPath(r.Binary)
		if err != nil {
			return "", fmt.Errorf("Scraper not found at: %s", r.Binary)
		}
		return path, nil
	}
	path := r.Binary
	if r.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.Dir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("Scraper not found at: %s", path)
	}
	return filepath.Abs(path)
}

// tail keeps the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
