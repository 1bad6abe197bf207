// Package workspace maps %import module paths to grammar files on disk
// and watches them for changes.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// GrammarExtension is the file extension of Lark grammar files.
const GrammarExtension = ".lark"

// Resolver locates imported grammar files. A module path like
// "grammars.base" maps to grammars/base.lark, searched relative to the
// importing file and then under each workspace folder. Leading dots make
// the path relative: one dot anchors at the importing file's directory,
// each further dot climbs one directory up.
type Resolver struct {
	log commonlog.Logger

	mu    sync.RWMutex
	roots []string
}

// NewResolver creates a resolver with no workspace folders.
func NewResolver() *Resolver {
	return &Resolver{log: commonlog.GetLogger("workspace")}
}

// SetFolders installs the workspace folders reported by the client.
func (r *Resolver) SetFolders(folders []protocol.WorkspaceFolder) {
	roots := make([]string, 0, len(folders))
	for _, folder := range folders {
		if path := URIToPath(folder.URI); path != "" {
			roots = append(roots, path)
		}
	}

	r.mu.Lock()
	r.roots = roots
	r.mu.Unlock()
	r.log.Infof("workspace folders: %v", roots)
}

// Roots returns the configured workspace folder paths.
func (r *Resolver) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.roots...)
}

// Resolve maps an %import module path to the URI of an existing grammar
// file, searched relative to the importing document and then under the
// workspace folders.
func (r *Resolver) Resolve(fromURI, modulePath string) (string, bool) {
	fromDir := filepath.Dir(URIToPath(fromURI))

	dots := 0
	for dots < len(modulePath) && modulePath[dots] == '.' {
		dots++
	}
	parts := strings.Split(modulePath[dots:], ".")
	if len(parts) == 0 || parts[0] == "" {
		return "", false
	}
	rel := filepath.Join(parts...) + GrammarExtension

	if dots > 0 {
		dir := fromDir
		for i := 1; i < dots; i++ {
			dir = filepath.Dir(dir)
		}
		return r.checkFile(filepath.Join(dir, rel))
	}

	if uri, ok := r.checkFile(filepath.Join(fromDir, rel)); ok {
		return uri, true
	}
	for _, root := range r.Roots() {
		if uri, ok := r.checkFile(filepath.Join(root, rel)); ok {
			return uri, true
		}
	}
	return "", false
}

// ReadFile reads a grammar file by URI.
func (r *Resolver) ReadFile(uri string) (string, error) {
	path := URIToPath(uri)
	if path == "" {
		return "", fmt.Errorf("not a file URI: %s", uri)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (r *Resolver) checkFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return PathToURI(path), true
}

// URIToPath converts a file URI to a file system path.
func URIToPath(uri string) string {
	if after, ok := strings.CutPrefix(uri, "file://"); ok {
		path := after
		// Windows URIs look like file:///C:/path.
		if len(path) > 2 && path[0] == '/' && path[2] == ':' {
			path = path[1:]
		}
		return path
	}
	return uri
}

// PathToURI converts a file system path to a file URI.
func PathToURI(path string) string {
	path = filepath.ToSlash(path)
	if len(path) > 1 && path[1] == ':' {
		return "file:///" + path
	}
	return "file://" + path
}
