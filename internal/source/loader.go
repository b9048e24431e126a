package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/dtable/internal/compiler"
	"github.com/roach88/dtable/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Bundle    ir.Bundle
	FileCount int // Number of spec files found
}

// Source yields table and command definitions. Load is called again
// whenever a session re-parses its tables.
type Source interface {
	Load() (*ir.Bundle, error)
}

// Dir is a Source reading a specs directory in fail-fast mode.
type Dir string

// Load reads the directory.
func (d Dir) Load() (*ir.Bundle, error) {
	res, errs := Load(string(d), LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return &res.Bundle, nil
}

// Static is a Source over an already built bundle.
type Static ir.Bundle

// Load returns a copy of the bundle.
func (s Static) Load() (*ir.Bundle, error) {
	b := ir.Bundle{
		Tables:   slices.Clone(s.Tables),
		Commands: slices.Clone(s.Commands),
	}
	return &b, nil
}

// Load reads every spec file under dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func Load(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindSpecFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no spec files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	var cueDirs []string
	for _, path := range files {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			def, err := readFile(path, ReadTable)
			if err != nil {
				if fail(err) {
					return result, errs
				}
				continue
			}
			result.Bundle.Tables = append(result.Bundle.Tables, *def)

		case ".yaml", ".yml":
			defs, err := readFile(path, ReadCommands)
			if err != nil {
				if fail(err) {
					return result, errs
				}
				continue
			}
			result.Bundle.Commands = append(result.Bundle.Commands, defs...)

		case ".cue":
			if d := filepath.Dir(path); !slices.Contains(cueDirs, d) {
				cueDirs = append(cueDirs, d)
			}
		}
	}

	for _, d := range cueDirs {
		bundle, cueErrs := loadCUE(d, mode)
		result.Bundle.Tables = append(result.Bundle.Tables, bundle.Tables...)
		result.Bundle.Commands = append(result.Bundle.Commands, bundle.Commands...)
		for _, err := range cueErrs {
			if fail(err) {
				return result, errs
			}
		}
	}

	slog.Debug("loaded specs", "dir", dir, "files", len(files),
		"tables", len(result.Bundle.Tables), "commands", len(result.Bundle.Commands))
	return result, errs
}

// FindSpecFiles walks the directory and returns all spec file paths in
// lexical order.
func FindSpecFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "cue.mod" || d.Name() == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".yaml", ".yml", ".cue":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func readFile[T any](path string, parse func(io.Reader, string) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, &LoadError{Code: ErrCodeScanError, Message: err.Error(), File: path}
	}
	defer f.Close()
	return parse(f, path)
}

// loadCUE loads the CUE package in dir and compiles its "table" and
// "command" structs.
func loadCUE(dir string, mode LoadMode) (ir.Bundle, []error) {
	var bundle ir.Bundle
	var errs []error

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return bundle, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded", File: dir}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return bundle, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), File: dir}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return bundle, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), File: dir}}
	}

	each := func(field string, compile func(cue.Value) error) bool {
		v := value.LookupPath(cue.ParsePath(field))
		if !v.Exists() {
			return true
		}
		iter, err := v.Fields()
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", field, err), File: dir})
			return mode != LoadModeFailFast
		}
		for iter.Next() {
			if err := compile(iter.Value()); err != nil {
				errs = append(errs, convertCompileError(err, field+"."+iter.Selector().String()))
				if mode == LoadModeFailFast {
					return false
				}
			}
		}
		return true
	}

	ok := each("table", func(v cue.Value) error {
		def, err := compiler.CompileTable(v)
		if err != nil {
			return err
		}
		bundle.Tables = append(bundle.Tables, *def)
		return nil
	})
	if !ok {
		return bundle, errs
	}

	each("command", func(v cue.Value) error {
		def, err := compiler.CompileCommand(v)
		if err != nil {
			return err
		}
		bundle.Commands = append(bundle.Commands, *def)
		return nil
	})
	return bundle, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		le := &LoadError{
			Code:    ErrCodeBuildFailed,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
		}
		if compileErr.Pos.IsValid() {
			le.File = compileErr.Pos.Filename()
			le.Line = compileErr.Pos.Line()
		}
		return le
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
