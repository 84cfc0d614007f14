package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/webmark/internal/outline"
	"github.com/dgallion1/webmark/internal/page"
	"github.com/dgallion1/webmark/internal/parser"
)

type convertResponse struct {
	*page.Result
	Outline []*outline.Section `json:"outline,omitempty"`
}

// handleConvert converts the raw HTML in the request body.
//
// Query parameters: url (used for the header line), header (bool),
// entities (bool), match (top|deep), outline (bool).
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	opts := s.cfg.Page()
	opts.URLHeader = queryBool(q.Get("header"), opts.URLHeader)
	opts.NamedEntities = queryBool(q.Get("entities"), opts.NamedEntities)
	if m := q.Get("match"); m != "" {
		opts.Policy = parser.ParseMatchPolicy(m)
	}

	res, err := s.converter(opts).Convert(page.FromBytes(q.Get("url"), data))
	if err != nil {
		if errors.Is(err, page.ErrNoContent) || errors.Is(err, parser.ErrNoAnchor) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := convertResponse{Result: res}
	if queryBool(q.Get("outline"), false) {
		resp.Outline = outline.Build([]byte(res.Markdown))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func queryBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
