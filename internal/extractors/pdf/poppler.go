package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Poppler shells out to pdfinfo and pdftotext, one call per page. Pages are
// extracted by up to Workers concurrent pdftotext processes.
type Poppler struct {
	InfoTimeout time.Duration
	PageTimeout time.Duration
	Workers     int
	Logger      *slog.Logger
}

func (p Poppler) Method() string { return "poppler" }

func (p Poppler) withDefaults() Poppler {
	out := p
	if out.InfoTimeout <= 0 {
		out.InfoTimeout = 5 * time.Second
	}
	if out.PageTimeout <= 0 {
		out.PageTimeout = 10 * time.Second
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}

func (p Poppler) Pages(ctx context.Context, path string) ([]string, error) {
	p = p.withDefaults()

	info, err := p.info(ctx, path)
	if err != nil {
		return nil, err
	}
	if info.Encrypted {
		return nil, fmt.Errorf("PDF is password protected")
	}

	pages := make([]string, info.Pages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := range pages {
		i := i
		g.Go(func() error {
			text, err := p.textForPage(gctx, path, i+1)
			if err != nil {
				return err
			}
			pages[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

type pdfInfo struct {
	Pages     int
	Encrypted bool
}

var (
	pageCountRegex = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)
	encryptedRegex = regexp.MustCompile(`(?mi)^Encrypted:\s+yes`)
)

func (p Poppler) info(ctx context.Context, path string) (pdfInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.InfoTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdfinfo", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return pdfInfo{}, p.classify("pdfinfo", err, ctx, stderr.String(), 0)
	}

	out := stdout.String()
	pages, err := parsePages(out)
	if err != nil {
		return pdfInfo{}, err
	}
	return pdfInfo{Pages: pages, Encrypted: encryptedRegex.MatchString(out)}, nil
}

// Per-page output is capped so a hostile PDF cannot exhaust memory.
const maxPerPageBytes = 10<<20 + 1

func (p Poppler) textForPage(ctx context.Context, path string, page int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.PageTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx,
		"pdftotext",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-nopgbrk",
		"-enc", "UTF-8",
		path,
		"-",
	)

	text, stderrStr, err := runCommandCaptureLimited(cmd, maxPerPageBytes)
	if err != nil {
		return "", p.classify("pdftotext", err, ctx, stderrStr, page)
	}
	return text, nil
}

func parsePages(pdfinfoOut string) (int, error) {
	if m := pageCountRegex.FindStringSubmatch(pdfinfoOut); len(m) == 2 {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: invalid page count: %w", err)
		}
		return validatePages(n)
	}

	// Some builds pad or reorder fields.
	sc := bufio.NewScanner(strings.NewReader(pdfinfoOut))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(strings.ToLower(line), "pages:") {
			continue
		}
		fields := strings.Fields(line[len("pages:"):])
		if len(fields) == 0 {
			break
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: invalid page count: %w", err)
		}
		return validatePages(n)
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("pdfinfo: scan failed: %w", err)
	}
	return 0, fmt.Errorf("pdfinfo: pages field not found in output")
}

func validatePages(count int) (int, error) {
	if count < 0 || count > 50000 {
		return 0, fmt.Errorf("pdfinfo: unreasonable page count: %d", count)
	}
	return count, nil
}

// runCommandCaptureLimited captures stdout up to maxBytes and stderr in full.
func runCommandCaptureLimited(cmd *exec.Cmd, maxBytes int64) (stdoutText string, stderrText string, err error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", fmt.Errorf("stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("start: %w", err)
	}

	outBytes, readErr := io.ReadAll(io.LimitReader(stdoutPipe, maxBytes))
	if readErr != nil || int64(len(outBytes)) >= maxBytes {
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()
	stderrStr := strings.TrimSpace(stderr.String())

	if readErr != nil {
		return "", stderrStr, fmt.Errorf("read stdout: %w", readErr)
	}
	if int64(len(outBytes)) >= maxBytes {
		return "", stderrStr, errOutputTooLarge
	}
	if waitErr != nil {
		return "", stderrStr, waitErr
	}
	return string(outBytes), stderrStr, nil
}

var errOutputTooLarge = errors.New("output exceeds limit")

func (p Poppler) classify(tool string, err error, ctx context.Context, stderr string, page int) error {
	where := tool
	if page > 0 {
		where = fmt.Sprintf("%s page %d", tool, page)
	}

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timeout", where)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s not installed: %w", tool, err)
	}
	if errors.Is(err, errOutputTooLarge) {
		return fmt.Errorf("%s: extracted text too large", where)
	}

	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%s failed: %w", where, err)
	}

	p.Logger.Warn("poppler error", slog.String("tool", tool), slog.Int("page", page), slog.String("stderr", truncate(stderr, 500)))

	// Usage dumps mention the same keywords as real errors.
	if isHelpOrUsageOutput(stderr) {
		return fmt.Errorf("%s failed (bad invocation)", where)
	}
	if containsAny(stderr, "Incorrect password") {
		return fmt.Errorf("PDF is password protected")
	}
	if containsAny(stderr, "PDF file is damaged", "Syntax Error", "Couldn't find trailer dictionary", "May not be a PDF file") {
		return fmt.Errorf("PDF file is damaged or corrupted")
	}
	if strings.Contains(stderr, "I/O Error") && strings.Contains(stderr, "Couldn't open file") {
		return fmt.Errorf("unable to open PDF")
	}
	return fmt.Errorf("%s failed: %s", where, truncate(stderr, 200))
}

func isHelpOrUsageOutput(stderr string) bool {
	return strings.Contains(stderr, "version ") && strings.Contains(stderr, "Usage:")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
