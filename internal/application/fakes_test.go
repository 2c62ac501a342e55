package application_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/openkraft/headeraudit/internal/domain"
)

const pageURLTemplate = "https://pages.example.org/ph/{id}"

func pageURL(id string) string { return "https://pages.example.org/ph/" + id }

// fakeManifest returns a fixed manifest.
type fakeManifest struct {
	manifest *domain.Manifest
	err      error
}

func (f *fakeManifest) Read(path string) (*domain.Manifest, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := *f.manifest
	m.Source = path
	return &m, nil
}

// fakeExistence answers from a status table; unknown URLs are 200.
type fakeExistence struct {
	mu      sync.Mutex
	status  map[string]int
	failing map[string]error
	calls   map[string]int
	closed  int
}

func newFakeExistence() *fakeExistence {
	return &fakeExistence{
		status:  map[string]int{},
		failing: map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeExistence) CheckExists(_ context.Context, url string) domain.ExistenceResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.failing[url]; ok {
		return domain.ExistenceResult{Err: err}
	}
	code, ok := f.status[url]
	if !ok {
		code = 200
	}
	return domain.ExistenceResult{Reachable: code == 200, StatusCode: code}
}

func (f *fakeExistence) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

func (f *fakeExistence) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// fakeSources serves raw markup by ID.
type fakeSources struct {
	docs map[string]string
	errs map[string]error
}

func (f *fakeSources) Lookup(id string) (*domain.SourceDocument, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	content, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	return &domain.SourceDocument{Path: id + ".html", Content: content}, nil
}

// page is what the fake browser shows for a URL.
type page struct {
	anchor   []string
	noAnchor bool
	markers  map[domain.Variant]bool
	navErr   error
	panicNav bool
}

// fakeSession is a single-threaded render session. It fails loudly if two
// rows use it at the same time.
type fakeSession struct {
	mu       sync.Mutex
	pages    map[string]page
	current  string
	inFlight bool
	overlap  bool
	visited  []string
	waits    []time.Duration
	closes   int
}

func (s *fakeSession) enter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		s.overlap = true
	}
	s.inFlight = true
}

func (s *fakeSession) leave() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.enter()
	defer s.leave()
	if s.closes > 0 {
		return domain.ErrSessionClosed
	}
	p := s.pages[url]
	if p.panicNav {
		panic("renderer crashed")
	}
	if p.navErr != nil {
		return p.navErr
	}
	s.current = url
	s.visited = append(s.visited, url)
	return nil
}

func (s *fakeSession) ReadMarkerClass(_ context.Context, _ string) ([]string, error) {
	s.enter()
	defer s.leave()
	p := s.pages[s.current]
	if p.noAnchor {
		return nil, domain.ErrAnchorNotFound
	}
	return p.anchor, nil
}

func (s *fakeSession) WaitForMarker(_ context.Context, marker domain.Variant, timeout time.Duration) (bool, error) {
	s.enter()
	defer s.leave()
	s.waits = append(s.waits, timeout)
	return s.pages[s.current].markers[marker], nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// fakeRenderer hands out one session and remembers how it was primed.
type fakeRenderer struct {
	session *fakeSession
	err     error
	opened  int
	origin  string
	cookies []domain.Cookie
}

func (r *fakeRenderer) Open(_ context.Context, origin string, cookies []domain.Cookie) (domain.RenderSession, error) {
	r.opened++
	if r.err != nil {
		return nil, r.err
	}
	r.origin = origin
	r.cookies = cookies
	return r.session, nil
}

type fakeGit struct {
	repo bool
	hash string
}

func (g fakeGit) IsGitRepo(string) bool { return g.repo }

func (g fakeGit) CommitHash(string) (string, error) {
	if g.hash == "" {
		return "", errors.New("no HEAD")
	}
	return g.hash, nil
}
