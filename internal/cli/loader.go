package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/booklore-app/booklore/internal/book"
	"github.com/booklore-app/booklore/internal/compiler"
)

// CatalogFile is the file name import reads books from.
const CatalogFile = "books.yaml"

// LoadMode controls how errors are handled during shelf loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the magic shelves compiled from a directory.
type LoadResult struct {
	Shelves   []book.MagicShelf
	FileCount int // number of CUE files found
}

// LoadError represents an error that occurred while loading input files.
type LoadError struct {
	Code    string
	Shelf   string // shelf label, when the error belongs to one
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Shelf != "" {
		msg = fmt.Sprintf("shelf %q: %s", e.Shelf, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Catalog is the content of books.yaml.
type Catalog struct {
	Libraries    []book.Library    `yaml:"libraries,omitempty"`
	Shelves      []book.Shelf      `yaml:"shelves,omitempty"`
	MagicShelves []book.MagicShelf `yaml:"magic_shelves,omitempty"` // stored verbatim
	Books        []book.Book       `yaml:"books,omitempty"`

	SortPreferences []CatalogSortPreference `yaml:"sort_preferences,omitempty"`
	Settings        CatalogSettings         `yaml:"settings,omitempty"`
}

// CatalogSortPreference is a stored sort preference. Scope is "global" or
// a scope string such as "shelf:2".
type CatalogSortPreference struct {
	Scope     string `yaml:"scope"`
	SortKey   string `yaml:"sort_key"`
	Direction string `yaml:"direction"`
}

// CatalogSettings are the browse settings stored with the collection.
type CatalogSettings struct {
	FacetSort      string `yaml:"facet_sort,omitempty"`
	CollapseSeries *bool  `yaml:"collapse_series,omitempty"`
}

// LoadCatalog reads a catalog file. Unknown keys are rejected.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading catalog: %v", err)}
	}

	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", filepath.Base(path), err)}
	}
	return &c, nil
}

// LoadShelves compiles every `shelf: <name>: {...}` in the CUE files of dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadShelves(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("shelves directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing shelves directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	shelvesVal := value.LookupPath(cue.ParsePath("shelf"))
	if !shelvesVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no shelves found: expected a top-level shelf struct"}}
	}

	iter, err := shelvesVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating shelves: %v", err)}}
	}

	var errs []error
	seen := make(map[string]bool)
	for iter.Next() {
		label := iter.Selector().Unquoted()
		ms, err := compiler.CompileShelf(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, label))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if seen[ms.Name] {
			errs = append(errs, &LoadError{
				Code:    ErrCodeShelfName,
				Shelf:   label,
				Message: fmt.Sprintf("duplicate shelf name %q", ms.Name),
				Pos:     iter.Value().Pos(),
			})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		seen[ms.Name] = true
		result.Shelves = append(result.Shelves, *ms)
	}

	if len(result.Shelves) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no shelves found: shelf struct is empty"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, shelf string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Shelf:   shelf,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Shelf:   shelf,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Database write error
	ErrCodeParseFailed = "E008" // YAML parse error

	// Shelf compile errors
	ErrCodeShelfName     = "E101" // Missing or duplicate name
	ErrCodeShelfRules    = "E102" // Missing rules or no valid rule
	ErrCodeRuleKey       = "E103" // Rule without field or operator
	ErrCodeShelfJoin     = "E104" // Join is not and/or
	ErrCodeRuleValue     = "E105" // Value of an unsupported CUE kind
	ErrCodeCUEConstraint = "E106" // CUE evaluation error inside a shelf
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "name":
		return ErrCodeShelfName
	case "rules":
		return ErrCodeShelfRules
	case "field", "operator":
		return ErrCodeRuleKey
	case "join":
		return ErrCodeShelfJoin
	case "value", "valueStart", "valueEnd":
		return ErrCodeRuleValue
	case "cue":
		return ErrCodeCUEConstraint
	default:
		return ErrCodeGeneric
	}
}
