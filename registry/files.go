package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	"github.com/yoheimuta/go-protoparser/v4/parser"
)

// collectFiles locates protoFile in ProtoDirectories, parses it and every
// file it transitively imports, and returns their paths with each file
// listed after its imports. Files parsed by earlier loads are reused.
func (r *Registry) collectFiles(protoFile string) ([]string, error) {
	root, err := r.locate(protoFile)
	if err != nil {
		return nil, err
	}

	var (
		order []string
		seen  = make(map[string]bool)
	)
	var walk func(path string) error
	walk = func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		if err := r.parseFile(path); err != nil {
			return err
		}
		for _, dep := range r.imports[path] {
			if err := walk(dep); err != nil {
				return err
			}
		}
		order = append(order, path)
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return order, nil
}

// parseFile parses path once and records the files it imports.
func (r *Registry) parseFile(path string) error {
	if _, done := r.parsed[path]; done {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	proto, err := protoparser.Parse(f, protoparser.WithFilename(path))
	if err != nil {
		return err
	}

	var deps []string
	for _, body := range proto.ProtoBody {
		imp, ok := body.(*parser.Import)
		if !ok {
			continue
		}
		name := strings.Trim(imp.Location, `"`)
		dep, err := r.locate(name)
		if err != nil {
			// Well-known types are not shipped with the schemas; their
			// references fail later only if actually used.
			if strings.HasPrefix(name, "google/protobuf/") {
				r.log.Debug().Str("file", path).Str("import", name).Msg("skipping well-known type import")
				continue
			}
			return err
		}
		deps = append(deps, dep)
	}
	r.parsed[path] = proto
	r.imports[path] = deps
	return nil
}

// locate returns the first ProtoDirectories entry containing name.
func (r *Registry) locate(name string) (string, error) {
	name = strings.Trim(name, `"`)
	if !strings.HasSuffix(name, ".proto") {
		return "", fmt.Errorf("file %s is not a .proto file", name)
	}
	for _, dir := range r.ProtoDirectories {
		candidate := filepath.Join(dir, filepath.FromSlash(name))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("path does not exist: %s in %v: %w", name, r.ProtoDirectories, ErrNotFound)
}
