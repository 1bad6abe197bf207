package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/server"
)

// SetTrace handles the $/setTrace notification, applying the client's
// requested trace level and recording it in the server config.
func SetTrace(glspContext *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	if srv := getServer(); srv != nil {
		srv.UpdateConfig(func(c *server.Config) {
			c.Trace = string(params.Value)
		})
	}
	return nil
}
