// Package loader reads and writes the persisted penalty document. The
// document is a Lua file evaluated in a sandboxed VM; the VM is discarded
// after each load. Saving writes the document back as a Lua table.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/deathpenalty/types"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	penalty *lua.LTable
	calls   int
}

// FileStore persists the document at Path. It keeps no copy of the
// document between calls.
type FileStore struct {
	Path string
	Log  zerolog.Logger

	warned string // source of the last document whose warnings were logged
}

// NewFileStore creates a store for path.
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{Path: path, Log: log}
}

// SetLogger replaces the logger used for warnings.
func (s *FileStore) SetLogger(log zerolog.Logger) {
	s.Log = log
}

// Load reads the document. A missing file, or one that never calls
// DeathPenalty{}, is replaced with the defaults.
func (s *FileStore) Load() (*types.Document, error) {
	src, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.writeDefaults()
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	doc, err := Parse(string(src))
	if errors.Is(err, errNoDocument) {
		return s.writeDefaults()
	}
	var ve *ValidationError
	if errors.As(err, &ve) && len(ve.Errors) == 0 {
		s.logWarnings(string(src), ve.Warnings)
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.Path, err)
	}
	return doc, nil
}

// Save writes doc to Path, replacing the file atomically.
func (s *FileStore) Save(doc *types.Document) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("saving %s: %w", s.Path, err)
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(Encode(doc)), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", s.Path, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("saving %s: %w", s.Path, err)
	}
	return nil
}

func (s *FileStore) writeDefaults() (*types.Document, error) {
	doc := &types.Document{Penalty: DefaultPenalty()}
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	s.Log.Info().Str("path", s.Path).Msg("wrote default config")
	return doc, nil
}

// logWarnings logs each warning once per distinct document source.
func (s *FileStore) logWarnings(src string, warnings []string) {
	if src == s.warned {
		return
	}
	s.warned = src
	for _, w := range warnings {
		s.Log.Warn().Str("path", s.Path).Msg("Config: " + w)
	}
}

var errNoDocument = errors.New("no DeathPenalty{} definition found")

// Parse evaluates Lua source and compiles the document. Validation
// problems that only produce warnings are returned as a *ValidationError
// alongside a usable document.
func Parse(src string) (*types.Document, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("executing config: %w", err)
	}
	if coll.penalty == nil {
		return nil, errNoDocument
	}

	doc, ve := compile(coll.penalty)
	if coll.calls > 1 {
		ve.Errors = append(ve.Errors, "DeathPenalty{} defined more than once")
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}
	if len(ve.Warnings) > 0 {
		return doc, ve
	}
	return doc, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the document.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
}
