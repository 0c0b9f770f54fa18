package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/toricodesthings/officetools/internal/column"
	"github.com/toricodesthings/officetools/internal/extract"
	"github.com/toricodesthings/officetools/internal/report"
	"github.com/toricodesthings/officetools/internal/session"
	"github.com/toricodesthings/officetools/internal/sheets"
)

const (
	sessionCookie  = "officetools_session"
	previewRecords = 5
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active := s.active.Load()
	status := "healthy"
	code := http.StatusOK

	ratio := s.cfg.HealthDegradeRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}

	if active >= int64(float64(s.cfg.MaxConcurrentRequests)*ratio) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"active": active,
	})
}

// ---------- Column Extractor ----------

func (s *server) handleColumn(w http.ResponseWriter, r *http.Request) {
	f, _, ok := s.openWorkbook(w, r)
	if !ok {
		return
	}
	defer f.Close()

	keywords := column.ParseKeywords(r.FormValue("keywords"))
	if len(keywords) == 0 {
		keywords = s.cfg.File.Column.Keywords
	}

	res, err := column.Extract(f, keywords)
	switch {
	case errors.Is(err, column.ErrKeywordNotFound):
		writeErr(w, http.StatusNotFound, "keyword_not_found", "No cell matches any of: "+strings.Join(keywords, ", "))
	case errors.Is(err, column.ErrNoData):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"code":    "no_data",
			"error":   "No data below " + res.Cell,
			"result":  res,
		})
	case err != nil:
		writeErr(w, http.StatusBadRequest, "invalid_workbook", sanitizeError(err))
	default:
		s.logger.Debug("column extracted", slog.String("cell", res.Cell), slog.Int("values", len(res.Values)))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
	}
}

// ---------- Sheet Splitter ----------

func (s *server) handleSplit(w http.ResponseWriter, r *http.Request) {
	f, fileName, ok := s.openWorkbook(w, r)
	if !ok {
		return
	}
	defer f.Close()

	res, err := sheets.Split(f, fileName, s.cfg.SplitOutputRoot)
	if errors.Is(err, sheets.ErrNoSheets) {
		writeErr(w, http.StatusUnprocessableEntity, "no_sheets", err.Error())
		return
	}
	if err != nil {
		s.logger.Error("split failed", slog.String("file", sanitizeLogString(fileName)), slog.Any("error", err))
		writeErr(w, http.StatusInternalServerError, "split_failed", sanitizeError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

// openWorkbook reads the multipart "file" field as an xlsx workbook.
func (s *server) openWorkbook(w http.ResponseWriter, r *http.Request) (*excelize.File, string, bool) {
	file, hdr, ok := s.formFile(w, r, s.cfg.MaxSpreadsheetBytes)
	if !ok {
		return nil, "", false
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(hdr.Filename), ".xlsx") {
		writeErr(w, http.StatusUnsupportedMediaType, "unsupported", "Only .xlsx workbooks are accepted")
		return nil, "", false
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_workbook", sanitizeError(err))
		return nil, "", false
	}
	return f, filepath.Base(hdr.Filename), true
}

// ---------- Document Word Counter ----------

// handleWordCount always answers 200 for a recognised format: a document the
// extractor cannot read is reported inline with a zero count.
func (s *server) handleWordCount(w http.ResponseWriter, r *http.Request) {
	file, hdr, ok := s.formFile(w, r, s.cfg.MaxUploadBytes)
	if !ok {
		return
	}
	defer file.Close()

	staged, err := extract.SaveBodyToTemp(file, hdr.Filename, s.cfg.MaxUploadBytes)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}
	defer staged.Cleanup()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	res, err := s.counter.Count(ctx, staged.Job())
	if err != nil {
		msg := sanitizeError(err)
		res.Error = &msg
		if errors.Is(err, extract.ErrUnsupported) {
			writeJSON(w, http.StatusUnsupportedMediaType, res)
			return
		}
		res.Preview = res.Label + " processing failed: " + msg
		s.logger.Warn("word count failed", slog.String("file", sanitizeLogString(staged.FileName)), slog.String("error", msg))
	}
	writeJSON(w, http.StatusOK, res)
}

// ---------- Inline Word Counter ----------

type inlineRequest struct {
	Text string `json:"text"`
}

func (s *server) handleInlineGet(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"wordCount": sess.WordCount()})
}

func (s *server) handleInlinePost(w http.ResponseWriter, r *http.Request) {
	text, err := s.readInlineText(w, r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}

	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"wordCount": sess.Update(text)})
}

func (s *server) readInlineText(w http.ResponseWriter, r *http.Request) (string, error) {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(ct, "application/json"):
		req, err := parseJSON[inlineRequest](r, s.cfg.MaxTextBytes)
		return req.Text, err
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTextBytes)
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.PostForm.Get("text"), nil
	default:
		b, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxTextBytes+1))
		if err != nil {
			return "", err
		}
		if int64(len(b)) > s.cfg.MaxTextBytes {
			return "", fmt.Errorf("text exceeds %d bytes", s.cfg.MaxTextBytes)
		}
		return string(b), nil
	}
}

// session resolves the caller's inline counter from its cookie, issuing a new
// one when the cookie is missing or unknown.
func (s *server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/wordcount/inline",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// ---------- Report Summarizer ----------

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summarize(w, r)
	if !ok {
		return
	}

	book, err := sum.Workbook()
	if err != nil {
		s.logger.Error("workbook", slog.Any("error", err))
		writeErr(w, http.StatusInternalServerError, "internal_error", sanitizeError(err))
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.DefaultFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, book); err != nil {
		s.logger.Warn("write workbook", slog.Any("error", err))
	}
}

func (s *server) handleReportPreview(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summarize(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"records":    sum.Preview(previewRecords),
		"rowCount":   len(sum.Records),
		"aggregates": sum.Aggregates,
	})
}

func (s *server) summarize(w http.ResponseWriter, r *http.Request) (*report.Summary, bool) {
	file, _, ok := s.formFile(w, r, s.cfg.MaxUploadBytes)
	if !ok {
		return nil, false
	}
	defer file.Close()

	sum, err := s.summarizer.Summarize(file)
	if err != nil {
		code := "invalid_csv"
		if errors.Is(err, report.ErrEmptyInput) {
			code = "empty_input"
		}
		writeErr(w, http.StatusBadRequest, code, sanitizeError(err))
		return nil, false
	}
	return sum, true
}

// ---------- Helpers ----------

func (s *server) formFile(w http.ResponseWriter, r *http.Request, limit int64) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("Upload exceeds %dMB limit", limit/(1<<20)))
			return nil, nil, false
		}
		writeErr(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" required")
		return nil, nil, false
	}
	if hdr.Size > limit {
		file.Close()
		writeErr(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("Upload exceeds %dMB limit", limit/(1<<20)))
		return nil, nil, false
	}
	return file, hdr, true
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func parseJSON[T any](r *http.Request, limit int64) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&out); err != nil {
		return out, err
	}

	if err := dec.Decode(new(any)); err != io.EOF {
		if err == nil {
			return out, fmt.Errorf("unexpected trailing data")
		}
		return out, err
	}

	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
