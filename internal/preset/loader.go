package preset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/logging"
)

// FileExtension is the extension of preset files (matched case-insensitively).
const FileExtension = ".json"

var utf8BOM = []byte("\xef\xbb\xbf")

// Loader reads user presets from a directory and merges them with the
// built-in catalogue.
type Loader struct {
	logger logging.Logger
}

// NewLoader creates a loader that reports skipped files and entries to logger.
func NewLoader(logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{logger: logger}
}

// Load returns the merged preset view for dir together with the modification
// times of everything it looked at, keyed by absolute path. The directory's
// own mtime is included so that added or removed files are noticed.
//
// Load never fails: a missing directory yields the built-ins alone, and
// unreadable or invalid files are skipped with a warning.
func (l *Loader) Load(dir string) ([]PropertyPreset, map[string]time.Time) {
	ctx := context.Background()
	mtimes := make(map[string]time.Time)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = filepath.Clean(dir)
	}

	info, err := os.Stat(absDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.logger.Debug(ctx, "Preset directory does not exist, using built-in presets only", "dir", absDir)
		return Builtins(), mtimes
	case err != nil:
		l.logger.Warn(ctx, err, "Cannot stat preset directory, using built-in presets only", "dir", absDir)
		return Builtins(), mtimes
	case !info.IsDir():
		l.logger.Warn(ctx, nil, "Preset path is not a directory, using built-in presets only", "dir", absDir)
		return Builtins(), mtimes
	}
	mtimes[absDir] = info.ModTime()

	entries, err := os.ReadDir(absDir)
	if err != nil {
		l.logger.Warn(ctx, err, "Cannot read preset directory, using built-in presets only", "dir", absDir)
		return Builtins(), mtimes
	}

	var users []PropertyPreset
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), FileExtension) {
			continue
		}
		path := filepath.Join(absDir, entry.Name())
		users = append(users, l.loadFile(ctx, path, mtimes)...)
	}

	return l.merge(ctx, dedupeByName(users)), mtimes
}

func (l *Loader) loadFile(ctx context.Context, path string, mtimes map[string]time.Time) []PropertyPreset {
	st, err := os.Stat(path)
	if err != nil {
		l.logger.Warn(ctx, err, "Skipping preset file", "file", path)
		return nil
	}
	if !st.Mode().IsRegular() {
		return nil
	}
	// Recorded before parsing so that fixing a broken file is noticed.
	mtimes[path] = st.ModTime()

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn(ctx, apperrors.NewIOError(apperrors.ErrCodePresetRead, "cannot read preset file", err),
			"Skipping unreadable preset file", "file", path)
		return nil
	}

	candidates, err := decodeCandidates(data)
	if err != nil {
		l.logger.Warn(ctx, err, "Skipping malformed preset file", "file", path)
		return nil
	}

	presets := make([]PropertyPreset, 0, len(candidates))
	for i, c := range candidates {
		res := Validate(c)
		for _, d := range res.Dropped {
			l.logger.Debug(ctx, "Dropped invalid property", "file", path, "index", i, "reason", d)
		}
		if !res.OK() {
			l.logger.Warn(ctx, nil, "Skipping invalid preset", "file", path, "index", i, "reason", res.Reason)
			continue
		}
		presets = append(presets, *res.Preset)
	}
	return presets
}

// merge lays the built-ins down first and applies user presets over them.
// A user preset replacing a built-in keeps the built-in's slot, so the cap
// only ever cuts user presets.
func (l *Loader) merge(ctx context.Context, users []PropertyPreset) []PropertyPreset {
	view := Builtins()
	index := make(map[string]int, len(view)+len(users))
	for i, p := range view {
		index[p.Name] = i
	}

	truncated := 0
	for _, u := range users {
		if i, ok := index[u.Name]; ok {
			view[i] = u
			continue
		}
		if len(view) >= MaxPresets {
			truncated++
			continue
		}
		index[u.Name] = len(view)
		view = append(view, u)
	}
	if truncated > 0 {
		l.logger.Warn(ctx, nil, "Too many presets, ignoring the rest",
			"max", MaxPresets, "ignored", truncated)
	}
	return view
}

// decodeCandidates parses a preset file whose root is either one preset
// object or an array of them. A leading UTF-8 BOM is ignored.
func decodeCandidates(data []byte) ([]interface{}, error) {
	var root interface{}
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &root); err != nil {
		return nil, err
	}
	switch v := root.(type) {
	case map[string]interface{}:
		return []interface{}{v}, nil
	case []interface{}:
		return v, nil
	default:
		return nil, fmt.Errorf("root must be an object or an array, got %s", jsonKind(root))
	}
}

// dedupeByName keeps the position of a name's first occurrence and the value
// of its last.
func dedupeByName(presets []PropertyPreset) []PropertyPreset {
	index := make(map[string]int, len(presets))
	out := make([]PropertyPreset, 0, len(presets))
	for _, p := range presets {
		if i, ok := index[p.Name]; ok {
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}
