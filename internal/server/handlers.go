package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/metcalfc/pacer/internal/extract"
	"github.com/metcalfc/pacer/internal/reader"
	"github.com/metcalfc/pacer/internal/source"
	"go.uber.org/zap"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// ExtractResponse is the body of a successful extraction.
type ExtractResponse struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	limit := s.config.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	src := source.StreamSource{
		Name:   header.Filename,
		MIME:   header.Header.Get("Content-Type"),
		Reader: file,
		Limit:  limit,
	}
	doc, err := src.FetchBytes(r.Context())
	if err == nil {
		err = source.Accept(doc)
	}
	var text string
	if err == nil {
		text, err = s.extractor.Extract(r.Context(), doc)
	}
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("extraction failed",
			zap.String("source", header.Filename),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
		s.respondError(w, status, err.Error())
		return
	}

	words := reader.Tokenize(text).Len()
	s.logger.Debug("extracted upload",
		zap.String("source", doc.Name),
		zap.Stringer("media_type", doc.MediaType),
		zap.Int("words", words),
	)
	s.respondJSON(w, http.StatusOK, ExtractResponse{
		Name:      doc.Name,
		MediaType: doc.MediaType.MIME(),
		Text:      text,
		WordCount: words,
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]string{
		"formats":    extract.SupportedFormats(),
		"mime_types": source.AcceptedMIMETypes,
		"extensions": source.AcceptedExtensions,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps the source and extraction error taxonomy to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, source.ErrUnsupportedSelection), errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrDecodeFailed), errors.Is(err, extract.ErrParseFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
