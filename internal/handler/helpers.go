package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageLimit is the page size when ?limit is absent.
	DefaultPageLimit = 6
	maxPageLimit     = 100
	maxBodyBytes     = 16 << 20
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON")
	}
	return nil
}

// queryFlag reads boolean query parameters written as 1/0 or true/false.
func queryFlag(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true":
		return true
	}
	return false
}

// pageRequest is a parsed ?page=&limit= pair. Page starts at 1.
type pageRequest struct {
	Page  int
	Limit int
}

func (p pageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

func parsePage(r *http.Request) (pageRequest, error) {
	p := pageRequest{Page: 1, Limit: DefaultPageLimit}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, errors.New("invalid page")
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, errors.New("invalid limit")
		}
		p.Limit = min(n, maxPageLimit)
	}
	return p, nil
}

// page is the paginated list envelope.
type page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// newPage builds the envelope with absolute next/previous links derived
// from the current request. Other query parameters are preserved.
func newPage(baseURL string, r *http.Request, p pageRequest, count int, results any) page {
	out := page{Count: count, Results: results}
	if p.Offset()+p.Limit < count {
		next := pageURL(baseURL, r, p.Page+1)
		out.Next = &next
	}
	if p.Page > 1 {
		prev := pageURL(baseURL, r, p.Page-1)
		out.Previous = &prev
	}
	return out
}

func pageURL(baseURL string, r *http.Request, n int) string {
	q := r.URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return strings.TrimRight(baseURL, "/") + u.String()
}

// pageOutOfRange reports whether p starts past the last result.
func pageOutOfRange(p pageRequest, count int) bool {
	return p.Page > 1 && p.Offset() >= count
}
