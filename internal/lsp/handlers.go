// Package lsp implements the LSP protocol handlers: lifecycle, text
// document synchronization and the language features served by the
// analysis engine.
package lsp

import (
	"github.com/tliron/commonlog"

	"github.com/larkls/go-lark-lsp/internal/server"
)

var log = commonlog.GetLogger("lsp")

// serverInstance holds the global server instance.
// This is set by SetServer and accessed by handlers.
var serverInstance interface{}

// SetServer sets the global server instance for handlers to access.
func SetServer(srv interface{}) {
	serverInstance = srv
}

// getServer returns the configured server instance, or nil when the
// handlers run without one (some tests).
func getServer() *server.Server {
	srv, ok := serverInstance.(*server.Server)
	if !ok {
		return nil
	}
	return srv
}
