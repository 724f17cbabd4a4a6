// Package fmctest provides an in-memory FMC appliance for tests.
package fmctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Default credentials accepted by the server.
const (
	Username   = "api"
	Password   = "secret"
	DomainUUID = "e276abec-e0f2-11e3-8169-6d9ed49b625f"
	Version    = "6.2.3 (build 84)"
)

type collection struct {
	order   []string
	records map[string]*fmc.Record
}

type fault struct {
	method string
	suffix string
	status int
	body   string
}

// Server is a fake FMC. All exported methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	username string
	password string
	pageSize int

	collections map[string]*collection
	tokens      map[string]bool
	refreshes   map[string]bool

	requests []string
	faults   []fault

	ignoreRenames bool
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials changes the accepted credentials.
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithPageSize sets the default page size of listings.
func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// New starts a server that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		username:    Username,
		password:    Password,
		pageSize:    25,
		collections: make(map[string]*collection),
		tokens:      make(map[string]bool),
		refreshes:   make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)

	r.Route("/api/fmc_platform/v1", func(r chi.Router) {
		r.Post("/auth/generatetoken", s.generateToken)
		r.Post("/auth/refreshtoken", s.refreshToken)
		r.Post("/auth/revokeaccess", s.revokeAccess)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/info/serverversion", s.serverVersion)
			r.Get("/domain/{domain}/{resource}/{type}", s.list)
			r.Get("/domain/{domain}/{resource}/{type}/{id}", s.get)
		})
	})

	r.Route("/api/fmc_config/v1/domain/{domain}/{resource}/{type}", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.delete)
		r.Get("/{id}/{sub}", s.list)
	})

	return r
}

// record counts requests and applies injected faults.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())

		for i, f := range s.faults {
			if f.method == r.Method && strings.HasSuffix(r.URL.Path, f.suffix) {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
				s.mu.Unlock()

				w.WriteHeader(f.status)
				_, _ = w.Write([]byte(f.body))

				return
			}
		}

		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-auth-access-token")

		s.mu.Lock()
		ok := s.tokens[token]
		s.mu.Unlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "Access token invalid.")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) issue(w http.ResponseWriter) {
	access := uuid.NewString()
	refresh := uuid.NewString()

	s.tokens[access] = true
	s.refreshes[refresh] = true

	w.Header().Set("X-auth-access-token", access)
	w.Header().Set("X-auth-refresh-token", refresh)
	w.Header().Set("DOMAIN_UUID", DomainUUID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateToken(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != s.username || pass != s.password {
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.issue(w)
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refresh := r.Header.Get("X-auth-refresh-token")
	if !s.refreshes[refresh] {
		writeError(w, http.StatusUnauthorized, "Refresh token invalid.")

		return
	}

	delete(s.tokens, r.Header.Get("X-auth-access-token"))
	delete(s.refreshes, refresh)
	s.issue(w)
}

func (s *Server) revokeAccess(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.tokens, r.Header.Get("X-auth-access-token"))
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serverVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": []map[string]string{{
			"serverVersion": Version,
			"geoVersion":    "2018-03-22-001",
			"vdbVersion":    "build 294 ( 2018-03-08 16:57:24 )",
			"type":          "ServerVersion",
		}},
		"paging": map[string]int{"offset": 0, "limit": 1, "count": 1, "pages": 1},
	})
}

func key(r *http.Request) string {
	k := chi.URLParam(r, "resource") + "/" + chi.URLParam(r, "type")
	if sub := chi.URLParam(r, "sub"); sub != "" {
		k += "/" + chi.URLParam(r, "id") + "/" + sub
	}

	return k
}

func (s *Server) selfURL(r *http.Request, id string) string {
	base := "/api/fmc_config/v1"
	if strings.HasPrefix(r.URL.Path, "/api/fmc_platform/") {
		base = "/api/fmc_platform/v1"
	}

	return fmt.Sprintf("%s%s/domain/%s/%s/%s/%s", s.URL, base,
		chi.URLParam(r, "domain"), chi.URLParam(r, "resource"), chi.URLParam(r, "type"), id)
}

// view renders a record with current child names, the way FMC resolves
// references at read time.
func (s *Server) view(rec *fmc.Record) *fmc.Record {
	out := rec.Clone()

	for i, ref := range out.Objects {
		if child := s.findByID(ref.ID); child != nil {
			out.Objects[i].Name = child.Name
		}
	}

	return out
}

func (s *Server) findByID(id string) *fmc.Record {
	for _, c := range s.collections {
		if rec, ok := c.records[id]; ok {
			return rec
		}
	}

	return nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset, _ := strconv.Atoi(query.Get("offset"))

	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = s.pageSize
	}

	expanded := query.Get("expanded") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[key(r)]

	total := 0
	if c != nil {
		total = len(c.order)
	}

	body := map[string]interface{}{
		"links": map[string]string{"self": s.URL + r.URL.RequestURI()},
	}

	if total == 0 || offset >= total {
		body["paging"] = fmc.Paging{Offset: offset, Limit: 0, Count: 0, Pages: 0}
		writeJSON(w, http.StatusOK, body)

		return
	}

	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]*fmc.Record, 0, end-offset)

	for _, id := range c.order[offset:end] {
		rec := s.view(c.records[id])
		if !expanded {
			rec = &fmc.Record{ID: rec.ID, Name: rec.Name, Type: rec.Type, Links: rec.Links}
		}

		items = append(items, rec)
	}

	paging := fmc.Paging{
		Offset: offset,
		Limit:  limit,
		Count:  total,
		Pages:  (total + limit - 1) / limit,
	}

	if end < total {
		// FMC drops expanded=true from continuation links.
		next := url.Values{}
		next.Set("offset", strconv.Itoa(end))
		next.Set("limit", strconv.Itoa(limit))
		paging.Next = []string{s.URL + r.URL.Path + "?" + next.Encode()}
	}

	body["items"] = items
	body["paging"] = paging

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[key(r)]
	if c == nil || c.records[chi.URLParam(r, "id")] == nil {
		writeError(w, http.StatusNotFound, "UUID "+chi.URLParam(r, "id")+" not found.")

		return
	}

	writeJSON(w, http.StatusOK, s.view(c.records[chi.URLParam(r, "id")]))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*fmc.Record, bool) {
	var rec fmc.Record

	err := json.NewDecoder(r.Body).Decode(&rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload.")

		return nil, false
	}

	if rec.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required.")

		return nil, false
	}

	for _, ref := range rec.Objects {
		if s.findByID(ref.ID) == nil {
			writeError(w, http.StatusBadRequest, "Referenced object "+ref.ID+" not found.")

			return nil, false
		}
	}

	return &rec, true
}

func (c *collection) nameTaken(name, exceptID string) bool {
	for id, rec := range c.records {
		if rec.Name == name && id != exceptID {
			return true
		}
	}

	return false
}

func (s *Server) collection(k string) *collection {
	c := s.collections[k]
	if c == nil {
		c = &collection{records: make(map[string]*fmc.Record)}
		s.collections[k] = c
	}

	return c
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.decode(w, r)
	if !ok {
		return
	}

	c := s.collection(key(r))
	if c.nameTaken(rec.Name, "") {
		writeError(w, http.StatusBadRequest, "The object name "+rec.Name+" already exists. Enter a new name.")

		return
	}

	rec.ID = uuid.NewString()
	rec.Links = &fmc.Links{Self: s.selfURL(r, rec.ID)}
	rec.Metadata = json.RawMessage(`{"readOnly":{"state":false}}`)

	c.order = append(c.order, rec.ID)
	c.records[rec.ID] = rec

	writeJSON(w, http.StatusCreated, s.view(rec))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")

	c := s.collections[key(r)]
	if c == nil || c.records[id] == nil {
		writeError(w, http.StatusNotFound, "UUID "+id+" not found.")

		return
	}

	rec, ok := s.decode(w, r)
	if !ok {
		return
	}

	if c.nameTaken(rec.Name, id) {
		writeError(w, http.StatusBadRequest, "The object name "+rec.Name+" already exists. Enter a new name.")

		return
	}

	current := c.records[id]
	if s.ignoreRenames {
		rec.Name = current.Name
	}

	rec.ID = id
	rec.Links = current.Links
	rec.Metadata = current.Metadata
	c.records[id] = rec

	writeJSON(w, http.StatusOK, s.view(rec))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")

	c := s.collections[key(r)]
	if c == nil || c.records[id] == nil {
		writeError(w, http.StatusNotFound, "UUID "+id+" not found.")

		return
	}

	for _, other := range s.collections {
		for _, rec := range other.records {
			for _, ref := range rec.Objects {
				if ref.ID == id {
					writeError(w, http.StatusBadRequest, "Cannot delete the object as it is being used by "+rec.Name+".")

					return
				}
			}
		}
	}

	rec := c.records[id]
	delete(c.records, id)

	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"category": "FRAMEWORK",
			"messages": []map[string]string{{"description": description}},
			"severity": "ERROR",
		},
	})
}
