package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Counter dispatches a document to the extractor for its extension and
// confines every failure to the returned Result.
type Counter struct {
	registry     *Registry
	maxFileBytes int64
	onResult     func(Result)
}

func NewCounter(registry *Registry, maxFileBytes int64) *Counter {
	return &Counter{registry: registry, maxFileBytes: maxFileBytes}
}

// SetResultHook registers a callback invoked after every count, successful or not.
func (c *Counter) SetResultHook(fn func(Result)) {
	c.onResult = fn
}

// Count never aborts on a bad document: the error is returned alongside a
// Result that already carries a zero count and the message for display.
func (c *Counter) Count(ctx context.Context, job Job) (Result, error) {
	res, err := c.count(ctx, job)
	if c.onResult != nil {
		c.onResult(res)
	}
	return res, err
}

func (c *Counter) count(ctx context.Context, job Job) (Result, error) {
	ext := strings.ToLower(filepath.Ext(job.FileName))
	extractor, err := c.registry.Resolve(job.MIMEType, ext)
	if err != nil {
		msg := err.Error()
		return Result{Success: false, FileType: "unsupported", Label: "Unsupported", MIMEType: job.MIMEType, Error: &msg}, err
	}

	if max := extractor.MaxFileSize(); max > 0 && job.FileSize > max {
		err := fmt.Errorf("file exceeds extractor limit (%dMB)", max/(1<<20))
		return Failed(extractor, job, err), err
	}
	if c.maxFileBytes > 0 && job.FileSize > c.maxFileBytes {
		err := fmt.Errorf("file exceeds %dMB limit", c.maxFileBytes/(1<<20))
		return Failed(extractor, job, err), err
	}

	res, err := extractor.Extract(ctx, job)
	if err != nil {
		return Failed(extractor, job, err), err
	}

	res.Success = true
	if res.MIMEType == "" {
		res.MIMEType = job.MIMEType
	}
	return res, nil
}

// CountFile counts a document already on disk.
func (c *Counter) CountFile(ctx context.Context, path string) (Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("file not found: %s", path)
		}
		msg := err.Error()
		return Result{Success: false, FileType: "unknown", Label: "Unknown", Preview: msg, Error: &msg}, err
	}

	return c.Count(ctx, Job{
		LocalPath: path,
		FileName:  filepath.Base(path),
		MIMEType:  sniffMIMEType(path),
		FileSize:  st.Size(),
	})
}
