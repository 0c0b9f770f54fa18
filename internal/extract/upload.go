package extract

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// StagedFile is an uploaded document written to a private temp dir.
type StagedFile struct {
	TempDir  string
	Path     string
	FileName string
	MIMEType string
	Size     int64
}

func (s StagedFile) Cleanup() {
	if s.TempDir != "" {
		_ = os.RemoveAll(s.TempDir)
	}
}

func (s StagedFile) Job() Job {
	return Job{LocalPath: s.Path, FileName: s.FileName, MIMEType: s.MIMEType, FileSize: s.Size}
}

// SaveBodyToTemp writes an io.Reader (e.g. a multipart file part) to a temp
// file and sniffs its MIME type.
func SaveBodyToTemp(body io.Reader, fileName string, maxBytes int64) (StagedFile, error) {
	tmpDir, err := os.MkdirTemp("", "officetools-*")
	if err != nil {
		return StagedFile{}, fmt.Errorf("temp dir: %w", err)
	}

	safeName := filepath.Base(strings.TrimSpace(fileName))
	if safeName == "" || safeName == "." || safeName == string(filepath.Separator) {
		safeName = "input.bin"
	}
	outPath := filepath.Join(tmpDir, safeName)

	f, err := os.Create(outPath)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return StagedFile{}, fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	lr := &io.LimitedReader{R: body, N: maxBytes + 1}
	n, err := io.Copy(f, lr)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return StagedFile{}, fmt.Errorf("write: %w", err)
	}
	if n > maxBytes {
		_ = os.RemoveAll(tmpDir)
		return StagedFile{}, fmt.Errorf("file exceeds %dMB limit", maxBytes/(1<<20))
	}

	if err := f.Sync(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return StagedFile{}, fmt.Errorf("sync: %w", err)
	}

	return StagedFile{
		TempDir:  tmpDir,
		Path:     outPath,
		FileName: safeName,
		MIMEType: sniffMIMEType(outPath),
		Size:     n,
	}, nil
}

func sniffMIMEType(path string) string {
	m, err := mimetype.DetectFile(path)
	if err == nil && m != nil {
		return strings.ToLower(strings.TrimSpace(m.String()))
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n <= 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(http.DetectContentType(buf[:n])))
}
