// Package server provides the core LSP server state and management.
package server

import (
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/engine"
	"github.com/larkls/go-lark-lsp/internal/workspace"
)

// Server holds the state of the LSP server.
type Server struct {
	// engine analyzes open grammar documents
	engine *engine.Engine

	// resolver maps %import module paths to files in the workspace
	resolver *workspace.Resolver

	// watcher re-triggers analysis when grammar files change on disk
	watcher *workspace.Watcher

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	// config holds server configuration
	config *Config

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// Config holds server configuration options.
type Config struct {
	// MaxProblems limits the number of diagnostics reported per document
	MaxProblems int

	// WatchDebounce is the quiet period before file changes trigger
	// re-analysis
	WatchDebounce time.Duration

	// Trace is the client's trace level, set via $/setTrace
	Trace string
}

// New creates a new LSP server instance.
func New() *Server {
	resolver := workspace.NewResolver()
	return &Server{
		engine:   engine.New(resolver),
		resolver: resolver,
		config: &Config{
			MaxProblems:   100,
			WatchDebounce: 250 * time.Millisecond,
			Trace:         "off",
		},
	}
}

// Engine returns the analysis engine.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Resolver returns the workspace import resolver.
func (s *Server) Resolver() *workspace.Resolver {
	return s.resolver
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig updates the server configuration atomically.
// The update function is called with the current config under a write lock.
func (s *Server) UpdateConfig(update func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(s.config)
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// StartWatching begins watching the workspace folders for grammar file
// changes. onChange receives the URIs of changed files, debounced.
func (s *Server) StartWatching(onChange func(changedURIs []string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	watcher, err := workspace.NewWatcher(s.config.WatchDebounce, onChange)
	if err != nil {
		return err
	}
	for _, root := range s.resolver.Roots() {
		if err := watcher.Watch(root); err != nil {
			watcher.Close()
			return err
		}
	}
	s.watcher = watcher
	return nil
}

// StopWatching stops the workspace watcher.
func (s *Server) StopWatching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
