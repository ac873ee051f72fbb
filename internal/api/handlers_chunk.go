package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dgallion1/legalchunk/internal/chunker"
	"github.com/dgallion1/legalchunk/internal/export"
	"github.com/dgallion1/legalchunk/internal/metadata"
	"github.com/dgallion1/legalchunk/internal/parser"
)

type chunkRow struct {
	Content       string            `json:"content"`
	ContentLength int               `json:"content_length"`
	Chapter       string            `json:"chapter"`
	Article       string            `json:"article"`
	Metadata      []metaField `json:"metadata,omitempty"`
}

// metaField is one metadata entry; a list keeps the document's key order.
type metaField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type chunkResponse struct {
	DocID      string     `json:"doc_id"`
	Filename   string     `json:"filename"`
	Profile    string     `json:"profile"`
	ChunkCount int        `json:"chunk_count"`
	Chunks     []chunkRow `json:"chunks"`
}

// handleChunk decodes an uploaded document, chunks it and returns the rows
// as JSON (default), CSV or JSON lines.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	docID := uuid.NewString()
	log := s.log.With("request_id", middleware.GetReqID(r.Context()), "doc_id", docID)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	format, err := parseResponseFormat(r.FormValue("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := s.requestProfile(r.FormValue("profile"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	meta := metadata.New()
	if raw := r.FormValue("metadata"); strings.TrimSpace(raw) != "" {
		if meta, err = metadata.Parse(strings.NewReader(raw)); err != nil {
			jsonError(w, "invalid metadata: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	p, err := parser.Detect(data, filename)
	if err != nil {
		s.deps.Metrics.ObserveDocument(kind, "unsupported", time.Since(start))
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}
	paragraphs, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		log.Warn("decode failed", "filename", filename, "error", err)
		s.deps.Metrics.ObserveDocument(kind, "undecodable", time.Since(start))
		jsonError(w, "could not decode document: "+err.Error(), http.StatusBadRequest)
		return
	}

	engine := chunker.New(profile,
		chunker.WithThreshold(s.cfg.ChunkThreshold),
		chunker.WithObserver(chunker.Observers(
			chunker.LogObserver{Log: log},
			s.deps.Metrics.Observer(),
		)),
	)
	chunks, err := engine.Run(paragraphs)
	switch {
	case errors.Is(err, chunker.ErrNoLines):
		s.deps.Metrics.ObserveDocument(kind, "no_lines", time.Since(start))
		jsonError(w, "document has no text content", http.StatusBadRequest)
		return
	case errors.Is(err, chunker.ErrNoArticles):
		s.deps.Metrics.ObserveDocument(kind, "no_articles", time.Since(start))
		jsonError(w, fmt.Sprintf("no %q headers found at line start", profile.ArticleKeyword), http.StatusBadRequest)
		return
	case err != nil:
		s.deps.Metrics.ObserveDocument(kind, "error", time.Since(start))
		log.Error("chunking failed", "error", err)
		jsonError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.deps.Metrics.ObserveDocument(kind, "ok", time.Since(start))
	log.Info("document chunked", "filename", filename, "profile", profile.Name,
		"paragraphs", len(paragraphs), "chunks", len(chunks), "duration_ms", time.Since(start).Milliseconds())

	w.Header().Set("X-Document-ID", docID)
	switch format {
	case "csv", "jsonl":
		s.writeExport(w, export.Format(format), filename, chunks, meta)
	default:
		writeJSON(w, http.StatusOK, chunkResponse{
			DocID:      docID,
			Filename:   filename,
			Profile:    profile.Name,
			ChunkCount: len(chunks),
			Chunks:     chunkRows(chunks, meta),
		})
	}
}

func parseResponseFormat(v string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(v)); f {
	case "", "json":
		return "json", nil
	case "csv", "jsonl":
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, csv or jsonl)", v)
}

// requestProfile resolves a per-request profile. Uploads may only pick a
// built-in profile; the configured default may also be a file.
func (s *Server) requestProfile(name string) (chunker.Profile, error) {
	if name == "" {
		return chunker.LookupProfile(s.cfg.ChunkProfile)
	}
	p, ok := chunker.BuiltinProfile(name)
	if !ok {
		return chunker.Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

func (s *Server) writeExport(w http.ResponseWriter, f export.Format, filename string, chunks []chunker.Chunk, meta *metadata.Metadata) {
	contentType, ext := "text/csv; charset=utf-8", ".csv"
	if f == export.FormatJSONL {
		contentType, ext = "application/x-ndjson", ".jsonl"
	}
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stem+"_chunks"+ext))
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, f, chunks, meta); err != nil {
		s.log.Error("write export", "error", err)
	}
}

func chunkRows(chunks []chunker.Chunk, meta *metadata.Metadata) []chunkRow {
	var m []metaField
	for _, k := range meta.Keys() {
		v, _ := meta.Get(k)
		m = append(m, metaField{Key: k, Value: v})
	}
	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = chunkRow{
			Content:       c.Content,
			ContentLength: len([]rune(c.Content)),
			Chapter:       c.Chapter,
			Article:       c.Article,
			Metadata:      m,
		}
	}
	return rows
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
