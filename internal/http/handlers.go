package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"recuento/internal/core"
	"recuento/internal/report"
	"recuento/internal/schema"
	"recuento/internal/services"
)

const maxUploadBytes = 32 << 20 // 32MB per request

// handleUpload runs the extraction collaborator over the uploaded receipt
// images and returns one raw record per file for the editing UI.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	docs := make([]services.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		docs = append(docs, services.Document{Filename: fh.Filename, Data: data})
	}

	records := s.processor.ExtractBatch(r.Context(), docs)
	writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

type saveRequest struct {
	Entries []map[string]any `json:"entries"`
}

// handleSave persists the user-edited records into their day ledger files
// and names the files touched.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	dec.UseNumber()
	var req saveRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	raws := make([]core.RawRecord, len(req.Entries))
	for i, entry := range req.Entries {
		raws[i] = toRawRecord(entry)
	}

	result, err := s.processor.Save(r.Context(), raws)
	if err != nil {
		slog.ErrorContext(r.Context(), "Save batch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	status := "guardado"
	if len(result.Failures) > 0 {
		status = "guardado parcial"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"files":    result.Files,
		"failures": result.Failures,
		"issues":   result.Issues,
	})
}

// toRawRecord flattens JSON values to strings; numbers keep their literal
// representation thanks to json.Number.
func toRawRecord(entry map[string]any) core.RawRecord {
	rec := make(core.RawRecord, len(entry))
	for key, value := range entry {
		switch v := value.(type) {
		case nil:
			rec[key] = ""
		case string:
			rec[key] = v
		case json.Number:
			rec[key] = v.String()
		default:
			rec[key] = fmt.Sprint(v)
		}
	}
	return rec
}

// handleBaseline stores an uploaded baseline workbook and pins its header
// row as the expected column schema.
func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer f.Close()

	name := strings.ToLower(fh.Filename)
	if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
		writeError(w, http.StatusBadRequest, "solo se aceptan archivos Excel (.xlsx, .xls)")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload failed")
		return
	}

	sheets, err := schema.ReadWorkbookSchema(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid workbook: %v", err))
		return
	}

	if err := writeFileAtomic(s.baselinePath, data); err != nil {
		slog.ErrorContext(r.Context(), "Baseline save failed", "error", err, "path", s.baselinePath)
		writeError(w, http.StatusInternalServerError, "baseline save failed")
		return
	}
	s.registry.SetBaseline(sheets, filepath.Base(s.baselinePath))

	slog.InfoContext(r.Context(), "Baseline replaced",
		"file", fh.Filename, "sheets", len(sheets))
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "baseline guardada",
		"file":   filepath.Base(s.baselinePath),
	})
}

func (s *Server) handleBaselineStatus(w http.ResponseWriter, r *http.Request) {
	status := s.registry.Status()
	resp := map[string]any{"available": status.Available}
	if status.Available {
		resp["file"] = status.File
		resp["columns"] = status.Columns
		resp["set_at"] = status.SetAt
		if st, err := os.Stat(s.baselinePath); err == nil {
			resp["bytes"] = st.Size()
			resp["modified"] = st.ModTime().Unix()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBaselineSchema(w http.ResponseWriter, r *http.Request) {
	sheets := s.registry.Sheets()
	writeJSON(w, http.StatusOK, map[string]any{
		"available": len(sheets) > 0,
		"sheets":    sheets,
	})
}

// handleMonthlyReport builds the monthly workbook and streams it as an
// attachment. A month without ledger files is an empty-result condition,
// reported as 404.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		writeError(w, http.StatusBadRequest, "year debe ser un año válido")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month debe ser 1-12")
		return
	}

	wb, err := s.reports.BuildMonthly(r.Context(), year, month)
	if err != nil {
		var re *report.ReportError
		if errors.As(err, &re) {
			writeError(w, http.StatusNotFound, re.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Report build failed",
			"error", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "report build failed")
		return
	}

	filename := fmt.Sprintf("reporte_%04d_%02d.xlsx", year, month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := wb.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "Report streaming failed", "error", err)
	}
}

// writeFileAtomic writes data to a temp file and renames it into place, the
// same discipline the ledger store uses.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
