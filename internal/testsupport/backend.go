package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"quill/internal/catalog"
	"quill/internal/services/workapi"
)

// RecordedRequest is one request seen by the fake backend.
type RecordedRequest struct {
	Method string
	Path   string
	// Work is the decoded "work" multipart part, when present.
	Work *workapi.WorkPayload
	// Files maps multipart file part names to their filenames.
	Files map[string]string
	// Fields holds plain multipart form fields.
	Fields map[string]string
	// Body is the raw body of JSON requests.
	Body []byte
}

// Backend is a recording stand-in for the works API, mounted under /api.
type Backend struct {
	Server *httptest.Server
	Token  string

	mu          sync.Mutex
	requests    []RecordedRequest
	works       map[int64]workapi.WorkDTO
	nextID      int64
	catalogs    map[catalog.Kind][]catalog.Entry
	suggestions []string
	coverURL    string
	failures    map[string]failure
}

type failure struct {
	status  int
	message string
}

// NewBackend starts a fake backend that accepts token. It is closed when the
// test ends.
func NewBackend(t testing.TB, token string) *Backend {
	t.Helper()

	b := &Backend{
		Token:    token,
		works:    make(map[int64]workapi.WorkDTO),
		nextID:   100,
		catalogs: DefaultCatalog(),
		failures: make(map[string]failure),
		coverURL: "https://cdn.example.com/generated/cover.png",
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(b.requireToken)
		r.Post("/works/create", b.handleCreate)
		r.Get("/works/{id}", b.handleGetWork)
		r.Patch("/works/{id}/cover", b.handleMultipart)
		r.Patch("/works/{id}/banner", b.handleMultipart)
		r.Put("/manage-work/{id}", b.handleSave)
		r.Post("/ai/suggest-tags", b.handleSuggest)
		r.Post("/ai/generate-cover", b.handleGenerate)
		r.Get("/catalog/{kind}", b.handleCatalog)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// BaseURL returns the api.base_url for configs pointing at this backend.
func (b *Backend) BaseURL() string {
	return b.Server.URL + "/api"
}

// DefaultCatalog returns small reference lists for every catalog kind.
func DefaultCatalog() map[catalog.Kind][]catalog.Entry {
	return map[catalog.Kind][]catalog.Entry{
		catalog.KindCategories:     {{ID: 1, Name: "Drama"}, {ID: 2, Name: "Romance"}, {ID: 3, Name: "Fantasía"}},
		catalog.KindFormats:        {{ID: 1, Name: "Novela"}, {ID: 2, Name: "Cuento"}},
		catalog.KindLanguages:      {{ID: 1, Name: "Español"}, {ID: 2, Name: "English"}},
		catalog.KindArtisticStyles: {{ID: 1, Name: "Acuarela"}, {ID: 2, Name: "Óleo"}},
		catalog.KindColorPalettes:  {{ID: 1, Name: "Cálida"}, {ID: 2, Name: "Fría"}},
		catalog.KindCompositions:   {{ID: 1, Name: "Retrato"}, {ID: 2, Name: "Paisaje"}},
	}
}

// AddWork registers a work for GET /works/{id}.
func (b *Backend) AddWork(dto workapi.WorkDTO) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.works[dto.ID] = dto
}

// SetSuggestions sets the tags returned by suggest-tags.
func (b *Backend) SetSuggestions(tags ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suggestions = tags
}

// SetCoverURL sets the URL returned by generate-cover.
func (b *Backend) SetCoverURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.coverURL = url
}

// Fail makes every request whose "METHOD /path" starts with prefix answer
// status with a JSON message body.
func (b *Backend) Fail(prefix string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[prefix] = failure{status: status, message: message}
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestsTo returns the recorded requests for method and path.
func (b *Backend) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, req := range b.Requests() {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		if f, ok := b.failureFor(r); ok {
			b.record(RecordedRequest{Method: r.Method, Path: r.URL.Path})
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) failureFor(r *http.Request) (failure, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	for prefix, f := range b.failures {
		if strings.HasPrefix(key, prefix) {
			return f, true
		}
	}
	return failure{}, false
}

func (b *Backend) record(req RecordedRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, err := readMultipart(r)
	if err != nil || rec.Work == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "work part required"})
		return
	}
	b.record(rec)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.works[id] = workapi.WorkDTO{
		ID:                 id,
		Title:              rec.Work.Title,
		Description:        rec.Work.Description,
		FormatID:           rec.Work.FormatID,
		OriginalLanguageID: rec.Work.OriginalLanguageID,
		Tags:               rec.Work.TagIDs,
		Price:              rec.Work.Price,
		State:              "draft",
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (b *Backend) handleGetWork(w http.ResponseWriter, r *http.Request) {
	b.record(RecordedRequest{Method: r.Method, Path: r.URL.Path})
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	b.mu.Lock()
	dto, ok := b.works[id]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "work not found"})
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (b *Backend) handleMultipart(w http.ResponseWriter, r *http.Request) {
	rec, err := readMultipart(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.record(rec)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleSave(w http.ResponseWriter, r *http.Request) {
	b.recordJSON(r)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleSuggest(w http.ResponseWriter, r *http.Request) {
	b.recordJSON(r)
	b.mu.Lock()
	suggestions := append([]string{}, b.suggestions...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (b *Backend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	b.recordJSON(r)
	b.mu.Lock()
	url := b.coverURL
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (b *Backend) handleCatalog(w http.ResponseWriter, r *http.Request) {
	b.record(RecordedRequest{Method: r.Method, Path: r.URL.Path})
	b.mu.Lock()
	entries, ok := b.catalogs[catalog.Kind(chi.URLParam(r, "kind"))]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown catalog"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (b *Backend) recordJSON(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.record(RecordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
}

func readMultipart(r *http.Request) (RecordedRequest, error) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Files:  map[string]string{},
		Fields: map[string]string{},
	}
	reader, err := r.MultipartReader()
	if err != nil {
		return rec, err
	}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return rec, nil
		}
		if err != nil {
			return rec, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return rec, err
		}
		switch name := part.FormName(); {
		case name == "work":
			var payload workapi.WorkPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return rec, err
			}
			rec.Work = &payload
		case part.FileName() != "":
			rec.Files[name] = part.FileName()
		default:
			rec.Fields[name] = string(data)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
