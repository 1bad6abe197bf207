// Package engine drives grammar analysis for the language server. It
// owns the open-document store, runs the parse/resolve pipeline on every
// edit, and serves the feature providers from the committed results.
package engine

import (
	"context"
	"errors"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/analysis"
	"github.com/larkls/go-lark-lsp/internal/document"
	"github.com/larkls/go-lark-lsp/internal/parser"
)

var (
	// ErrUnknownDocument is returned for operations on a URI that is not
	// open in the store.
	ErrUnknownDocument = errors.New("document not open")

	// ErrStaleVersion is returned when a change carries a version at or
	// below the latest one already accepted for the document.
	ErrStaleVersion = errors.New("stale document version")

	// ErrNoDefinition is returned when the symbol under the cursor has no
	// definition anywhere in the analysis unit.
	ErrNoDefinition = errors.New("no definition for symbol")
)

// ImportResolver locates the grammar file an %import statement refers
// to. Implementations map the dotted module path to a URI relative to
// the importing document (and any configured search roots) and read its
// content when the file is not open in the editor.
type ImportResolver interface {
	Resolve(fromURI, modulePath string) (uri string, ok bool)
	ReadFile(uri string) (string, error)
}

// Engine analyzes Lark grammar documents. All exported methods are safe
// for concurrent use; operations on the same document are serialized,
// operations on different documents run independently.
type Engine struct {
	log      commonlog.Logger
	store    *documentStore
	resolver ImportResolver
}

// New creates an engine. resolver may be nil, in which case every
// %import that names a file is reported as unresolvable.
func New(resolver ImportResolver) *Engine {
	return &Engine{
		log:      commonlog.GetLogger("engine"),
		store:    newDocumentStore(),
		resolver: resolver,
	}
}

// Open registers a document and analyzes it. Reopening an already open
// URI behaves like a change to the given version and text.
func (e *Engine) Open(ctx context.Context, uri string, version int32, text string) (*Document, error) {
	sl, existed := e.store.open(uri)
	if existed {
		e.log.Debugf("reopening %s at version %d", uri, version)
	}

	// An open (or reopen) always wins: clients may restart version
	// numbering when a file is closed and opened again.
	actx, _ := sl.begin(ctx, version, false)

	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.opened = true
	sl.text = text
	sl.version = version
	return e.commitLocked(actx, sl, uri, version, text)
}

// Change applies content changes at the given version and re-analyzes
// the document. A version at or below the latest accepted one is
// rejected with ErrStaleVersion. A newer change arriving while an older
// analysis is still running cancels the older one; the older change's
// text is still applied, only its analysis results are discarded.
func (e *Engine) Change(ctx context.Context, uri string, version int32, changes []protocol.TextDocumentContentChangeEvent) (*Document, error) {
	sl, ok := e.store.get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	actx, ok := sl.begin(ctx, version, true)
	if !ok {
		return nil, ErrStaleVersion
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.opened {
		return nil, ErrUnknownDocument
	}
	// Re-check against the applied version: a newer change may have won
	// the slot lock first, and applying these edits on top of its text
	// would corrupt the document.
	if version <= sl.version {
		return nil, ErrStaleVersion
	}

	text := sl.text
	for _, change := range changes {
		next, err := document.ApplyContentChange(text, change)
		if err != nil {
			return nil, err
		}
		text = next
	}
	sl.text = text
	sl.version = version

	return e.commitLocked(actx, sl, uri, version, text)
}

// Close removes the document from the store and cancels any in-flight
// analysis for it.
func (e *Engine) Close(uri string) error {
	sl, ok := e.store.close(uri)
	if !ok {
		return ErrUnknownDocument
	}
	sl.versionMu.Lock()
	if sl.cancel != nil {
		sl.cancel()
	}
	sl.versionMu.Unlock()
	return nil
}

// Get returns the committed analysis state for an open document.
func (e *Engine) Get(uri string) (*Document, bool) {
	sl, ok := e.store.get(uri)
	if !ok {
		return nil, false
	}
	return sl.snapshot()
}

// Diagnostics returns the committed diagnostics for an open document.
func (e *Engine) Diagnostics(uri string) ([]protocol.Diagnostic, error) {
	doc, ok := e.Get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}
	return doc.Diagnostics, nil
}

// URIs returns the URIs of all open documents.
func (e *Engine) URIs() []string {
	return e.store.uris()
}

// Refresh re-analyzes an open document without changing its text or
// version. It is used when files the document imports change on disk.
func (e *Engine) Refresh(ctx context.Context, uri string) (*Document, error) {
	sl, ok := e.store.get(uri)
	if !ok {
		return nil, ErrUnknownDocument
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if !sl.opened {
		return nil, ErrUnknownDocument
	}
	return e.commitLocked(ctx, sl, uri, sl.version, sl.text)
}

// begin registers intent to analyze at the given version: it rejects
// stale versions, cancels the previous in-flight analysis and returns
// the context for the new one.
func (sl *slot) begin(ctx context.Context, version int32, enforce bool) (context.Context, bool) {
	sl.versionMu.Lock()
	defer sl.versionMu.Unlock()

	if enforce && version <= sl.latestVersion {
		return nil, false
	}
	sl.latestVersion = version
	if sl.cancel != nil {
		sl.cancel()
	}
	actx, cancel := context.WithCancel(ctx)
	sl.cancel = cancel
	return actx, true
}

// latest reports whether version is still the newest accepted one.
func (sl *slot) latest(version int32) bool {
	sl.versionMu.Lock()
	defer sl.versionMu.Unlock()
	return sl.latestVersion == version
}

// commitLocked runs the full pipeline and installs the result, unless a
// newer version was accepted while the analysis ran. The applied text
// lives in the slot, not the committed document, so a superseded
// analysis is discarded wholesale and the committed snapshot always
// pairs a text with its own results. Callers hold sl.mu.
func (e *Engine) commitLocked(ctx context.Context, sl *slot, uri string, version int32, text string) (*Document, error) {
	doc := e.analyze(ctx, uri, version, text)

	if !sl.latest(version) {
		e.log.Debugf("discarding superseded analysis of %s version %d", uri, version)
		return nil, context.Canceled
	}

	sl.commit(doc)
	return doc, nil
}

// analyze parses the text and resolves its analysis unit. It always
// produces a usable document; a cancelled context only means the result
// may be partial, and the caller discards it.
func (e *Engine) analyze(ctx context.Context, uri string, version int32, text string) *Document {
	grammar, syntaxErrs := parser.Parse(text)

	root := analysis.Snapshot{URI: uri, Grammar: grammar}
	result := analysis.Resolve(ctx, root, e.loader())

	return &Document{
		URI:         uri,
		Version:     version,
		Text:        text,
		Grammar:     grammar,
		SyntaxErrs:  syntaxErrs,
		Table:       result.Table,
		Diagnostics: analysis.Diagnose(syntaxErrs, result),
	}
}

// loader builds the import loader for one resolve pass. Open documents
// are served from their committed snapshots; everything else is read
// through the workspace resolver and parsed on the fly.
func (e *Engine) loader() analysis.Loader {
	if e.resolver == nil {
		return nil
	}
	return func(ctx context.Context, fromURI, modulePath string) (analysis.Snapshot, bool) {
		target, ok := e.resolver.Resolve(fromURI, modulePath)
		if !ok {
			return analysis.Snapshot{}, false
		}

		if doc, open := e.Get(target); open {
			return analysis.Snapshot{URI: target, Grammar: doc.Grammar}, true
		}

		text, err := e.resolver.ReadFile(target)
		if err != nil {
			e.log.Warningf("cannot read import %s: %v", target, err)
			return analysis.Snapshot{}, false
		}
		grammar, _ := parser.Parse(text)
		return analysis.Snapshot{URI: target, Grammar: grammar}, true
	}
}
