package engine

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
	"github.com/larkls/go-lark-lsp/internal/ast"
	"github.com/larkls/go-lark-lsp/internal/parser"
)

// Document is the committed analysis state of one open grammar file.
// Every field is populated together by a single analysis pass; readers
// always observe a consistent version/text/result triple.
type Document struct {
	URI     string
	Version int32
	Text    string

	Grammar     *ast.Grammar
	SyntaxErrs  []*parser.SyntaxError
	Table       *analysis.SymbolTable
	Diagnostics []protocol.Diagnostic
}

// slot holds the per-document state. Text application and analysis for
// one URI run strictly sequentially under mu; versionMu guards the
// version counter and the cancel handle for the in-flight analysis so
// that a newer edit can interrupt an older one without waiting for it.
// The committed document sits behind its own lock: snapshot readers,
// including the import loader resolving a cycle back into a document
// that is being analyzed, must never wait on an in-flight analysis.
type slot struct {
	mu      sync.Mutex
	opened  bool
	text    string // applied text, guarded by mu
	version int32  // applied version, guarded by mu

	versionMu     sync.Mutex
	latestVersion int32
	cancel        func()

	docMu sync.Mutex
	doc   *Document
}

// documentStore tracks slots for open documents.
type documentStore struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

func newDocumentStore() *documentStore {
	return &documentStore{slots: make(map[string]*slot)}
}

// get returns the slot for an open document.
func (s *documentStore) get(uri string) (*slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[uri]
	return sl, ok
}

// open returns the slot for the URI, creating it if needed. The second
// result reports whether the slot already existed.
func (s *documentStore) open(uri string) (*slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[uri]; ok {
		return sl, true
	}
	sl := &slot{}
	s.slots[uri] = sl
	return sl, false
}

// close removes the slot and returns it for final cleanup.
func (s *documentStore) close(uri string) (*slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[uri]
	if ok {
		delete(s.slots, uri)
	}
	return sl, ok
}

// uris returns the URIs of all open documents.
func (s *documentStore) uris() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.slots))
	for uri := range s.slots {
		uris = append(uris, uri)
	}
	return uris
}

// snapshot returns the committed document for the slot. It takes only
// the commit lock, so it cannot block on an analysis in progress.
func (sl *slot) snapshot() (*Document, bool) {
	sl.docMu.Lock()
	defer sl.docMu.Unlock()
	if sl.doc == nil {
		return nil, false
	}
	return sl.doc, true
}

// commit installs a newly analyzed document.
func (sl *slot) commit(doc *Document) {
	sl.docMu.Lock()
	sl.doc = doc
	sl.docMu.Unlock()
}
