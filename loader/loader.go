// Package loader resolves a logical SQL template path to its source text,
// the external collaborator spec.md §6 describes: "a caller-provided
// function (logical_path, dialect?) -> text" used by %include and by the
// high-level façade.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shibukawa/sqlyway/dialect"
	"github.com/shibukawa/sqlyway/twoway"
)

// Loader reads ".sql" template files rooted at baseDir, preferring a
// dialect-suffixed variant when one exists, and caches the text of each
// resolved file keyed by its resolved absolute path (recording its content
// hash alongside) so a repeated %include of the same path across many Parse
// calls costs one disk read.
type Loader struct {
	baseDir string

	mu    sync.RWMutex
	cache map[string]cacheEntry // key: resolved absolute path
}

type cacheEntry struct {
	hash string
	text string
}

// New builds a Loader rooted at baseDir. A relative baseDir is resolved
// against the current working directory at construction time.
func New(baseDir string) *Loader {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = baseDir
	}
	return &Loader{baseDir: abs, cache: make(map[string]cacheEntry)}
}

// Load resolves logicalPath to file text, preferring "path.{dialect}.sql"
// over "path" when dialectID is non-empty, per spec §6's resolution order.
// A path that would escape baseDir, or that resolves to no file under
// either candidate, fails with twoway.ErrSqlFileNotFound.
func (l *Loader) Load(logicalPath string, dialectID dialect.ID) (string, error) {
	candidates := []string{logicalPath}
	if dialectID != "" {
		candidates = []string{dialectSuffixed(logicalPath, dialectID), logicalPath}
	}

	var lastErr error
	for _, c := range candidates {
		text, err := l.loadOne(c)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// AsResolver adapts Load to twoway.IncludeResolver for wiring into Options.
func (l *Loader) AsResolver() twoway.IncludeResolver {
	return l.Load
}

func (l *Loader) loadOne(logicalPath string) (string, error) {
	resolved, err := l.resolve(logicalPath)
	if err != nil {
		return "", err
	}

	l.mu.RLock()
	if entry, ok := l.cache[resolved]; ok {
		l.mu.RUnlock()
		return entry.text, nil
	}
	l.mu.RUnlock()

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", twoway.NewSqlFileNotFoundError(logicalPath)
	}
	text := string(data)
	hash := contentHash(data)

	l.mu.Lock()
	l.cache[resolved] = cacheEntry{hash: hash, text: text}
	l.mu.Unlock()

	return text, nil
}

// resolve joins logicalPath onto baseDir and rejects any result that
// escapes baseDir, the same containment check a filesystem-backed loader
// needs against a path like "../../etc/passwd".
func (l *Loader) resolve(logicalPath string) (string, error) {
	joined := filepath.Join(l.baseDir, logicalPath)
	if joined != l.baseDir && !strings.HasPrefix(joined, l.baseDir+string(filepath.Separator)) {
		return "", twoway.NewSqlFileNotFoundError(logicalPath)
	}
	return joined, nil
}

// dialectSuffixed rewrites "dir/name.sql" into "dir/name.{dialect}.sql",
// resolving spec §9b's two competing conventions in favor of this one.
func dialectSuffixed(path string, d dialect.ID) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s.%s%s", base, d, ext)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
