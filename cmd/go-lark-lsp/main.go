package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/larkls/go-lark-lsp/internal/lsp"
	"github.com/larkls/go-lark-lsp/internal/server"
)

var (
	tcpMode  bool
	tcpPort  int
	logLevel string
	logFile  string
)

func init() {
	flag.BoolVar(&tcpMode, "tcp", false, "Run server in TCP mode (for debugging)")
	flag.IntVar(&tcpPort, "port", 8765, "TCP port to listen on (used with -tcp)")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warning, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s version %s\n\n", lsp.ServerName, lsp.ServerVersion)
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", lsp.ServerName)
	fmt.Fprintf(os.Stderr, "Language Server Protocol implementation for Lark grammars\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("%s version %s\n", lsp.ServerName, lsp.ServerVersion)
		os.Exit(0)
	}

	setupLogging()
	log := commonlog.GetLogger(lsp.ServerName)

	srv := server.New()
	lsp.SetServer(srv)

	handler := protocol.Handler{
		Initialize:  lsp.Initialize,
		Initialized: lsp.Initialized,
		Shutdown:    lsp.Shutdown,
		SetTrace:    lsp.SetTrace,

		TextDocumentDidOpen:   lsp.DidOpen,
		TextDocumentDidChange: lsp.DidChange,
		TextDocumentDidClose:  lsp.DidClose,

		TextDocumentCompletion:     lsp.Completion,
		TextDocumentHover:          lsp.Hover,
		TextDocumentDefinition:     lsp.Definition,
		TextDocumentReferences:     lsp.References,
		TextDocumentDocumentSymbol: lsp.DocumentSymbol,
		TextDocumentRename:         lsp.Rename,
	}

	glspServer := glspserver.NewServer(&handler, lsp.ServerName, false)

	if tcpMode {
		log.Noticef("starting TCP server on port %d", tcpPort)
		if err := glspServer.RunTCP(fmt.Sprintf("127.0.0.1:%d", tcpPort)); err != nil {
			log.Criticalf("TCP server error: %v", err)
			os.Exit(1)
		}
	} else {
		log.Notice("starting STDIO server")
		if err := glspServer.RunStdio(); err != nil {
			log.Criticalf("STDIO server error: %v", err)
			os.Exit(1)
		}
	}
}

// setupLogging configures commonlog from the command-line flags.
func setupLogging() {
	verbosity := 0
	switch logLevel {
	case "debug":
		verbosity = 2
	case "info":
		verbosity = 1
	case "warning", "warn":
		verbosity = 0
	case "error":
		verbosity = -1
	}

	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbosity, path)
}
