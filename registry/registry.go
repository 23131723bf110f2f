package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protorun/schema"
)

// ErrNotFound is returned by the lookup methods.
var ErrNotFound = errors.New("not found")

// Registry allows us to store the schema of the protobuf messages. We look this up when we need to parse or marshal a message.
type Registry struct {
	// ProtoDirectories are searched in order for imports and for the files
	// passed to LoadSchemaFromFile.
	ProtoDirectories []string

	log zerolog.Logger

	repo     *schema.ProtoRepo
	parsed   map[string]*parser.Proto // file path -> AST
	imports  map[string][]string      // file path -> located import paths
	resolved map[string]bool

	messages   map[string]*schema.Message // fully qualified name -> message
	enums      map[string]*schema.Enum    // fully qualified name -> enum
	services   map[string]*schema.Service // fully qualified name -> service
	extensions map[string]*schema.Field   // fully qualified name -> extension
}

func NewRegistry(protoDirs ...string) *Registry {
	return &Registry{
		ProtoDirectories: protoDirs,
		log:              zerolog.Nop(),
	}
}

// SetLogger routes load diagnostics to l.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.log = l
}

func (r *Registry) init() {
	if r.repo == nil {
		r.repo = &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)}
	}
	if r.parsed == nil {
		r.parsed = make(map[string]*parser.Proto)
		r.imports = make(map[string][]string)
		r.resolved = make(map[string]bool)
	}
	if r.messages == nil {
		r.messages = make(map[string]*schema.Message)
	}
	if r.enums == nil {
		r.enums = make(map[string]*schema.Enum)
	}
	if r.services == nil {
		r.services = make(map[string]*schema.Service)
	}
	if r.extensions == nil {
		r.extensions = make(map[string]*schema.Field)
	}
}

// LoadSchemaFromFile loads protoFile, found in one of ProtoDirectories, along
// with everything it imports.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	r.init()
	files, err := r.collectFiles(protoFile)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", protoFile, err)
	}
	return r.addParsed(files)
}

// LoadSchema loads a single .proto file or, for a directory, every .proto
// file beneath it. The containing directory is added to ProtoDirectories so
// imports relative to it resolve.
func (r *Registry) LoadSchema(protoPath string) error {
	r.init()

	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		r.addDirectory(filepath.Dir(protoPath))
		return r.LoadSchemaFromFile(filepath.Base(protoPath))
	}

	r.addDirectory(protoPath)
	var files []string
	err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".proto") {
			return nil
		}
		rel, err := filepath.Rel(protoPath, path)
		if err != nil {
			return err
		}
		loaded, err := r.collectFiles(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("failed to load proto file %s: %w", path, err)
		}
		files = append(files, loaded...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}
	return r.addParsed(files)
}

func (r *Registry) addDirectory(dir string) {
	if !slices.Contains(r.ProtoDirectories, dir) {
		r.ProtoDirectories = append(r.ProtoDirectories, dir)
	}
}

// addParsed converts newly parsed files and rebuilds the symbol table.
func (r *Registry) addParsed(files []string) error {
	for _, path := range files {
		if _, ok := r.repo.ProtoFiles[path]; ok {
			continue
		}
		pf, err := convertProto(r.importName(path), r.parsed[path], r.log)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r.repo.ProtoFiles[path] = pf
	}
	if err := r.buildSymbolTable(); err != nil {
		return fmt.Errorf("failed to build symbol table: %w", err)
	}
	return nil
}

// importName returns path relative to the proto directory it was found in.
func (r *Registry) importName(path string) string {
	for _, dir := range r.ProtoDirectories {
		if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}

// LoadRepo registers already-built schema definitions. Type references are
// resolved the same way as for parsed files.
func (r *Registry) LoadRepo(repo *schema.ProtoRepo) error {
	r.init()
	for path, pf := range repo.ProtoFiles {
		if _, ok := r.repo.ProtoFiles[path]; ok {
			return fmt.Errorf("proto file %s already loaded", path)
		}
		r.repo.ProtoFiles[path] = pf
	}
	if err := r.buildSymbolTable(); err != nil {
		return fmt.Errorf("failed to build symbol table: %w", err)
	}
	return nil
}

// buildSymbolTable registers names for files not seen before, then resolves
// their type references against everything loaded so far.
func (r *Registry) buildSymbolTable() error {
	paths := slices.Sorted(maps.Keys(r.repo.ProtoFiles))

	// Pass 1: Register all message, enum and service names
	for _, path := range paths {
		if r.resolved[path] {
			continue
		}
		if err := r.registerNames(r.repo.ProtoFiles[path]); err != nil {
			return err
		}
	}

	entities := make(map[string]struct{}, len(r.messages)+len(r.enums))
	for name := range r.messages {
		entities[name] = struct{}{}
	}
	for name := range r.enums {
		entities[name] = struct{}{}
	}

	// Pass 2: Resolve field types, extensions and service methods
	for _, path := range paths {
		if r.resolved[path] {
			continue
		}
		pf := r.repo.ProtoFiles[path]
		if err := r.resolveFile(pf, entities); err != nil {
			return fmt.Errorf("%s: %w", pf.Name, err)
		}
		r.resolved[path] = true
	}
	return nil
}

// registerNames registers all message, enum, and service names
func (r *Registry) registerNames(protoFile *schema.ProtoFile) error {
	pkg := protoFile.Package
	for _, msg := range protoFile.Messages {
		if err := r.registerMessage(r.getFullName(pkg, msg.Name), msg); err != nil {
			return err
		}
	}
	for _, enum := range protoFile.Enums {
		if err := r.registerEnum(r.getFullName(pkg, enum.Name), enum); err != nil {
			return err
		}
	}
	for _, service := range protoFile.Services {
		r.services[r.getFullName(pkg, service.Name)] = service
	}
	return nil
}

func (r *Registry) registerMessage(fullName string, msg *schema.Message) error {
	if _, exists := r.messages[fullName]; exists {
		return fmt.Errorf("duplicate message %s", fullName)
	}
	msg.FullName = fullName
	r.messages[fullName] = msg

	for _, nested := range msg.NestedTypes {
		if err := r.registerMessage(fullName+"."+nested.Name, nested); err != nil {
			return err
		}
	}
	for _, nested := range msg.NestedEnums {
		if err := r.registerEnum(fullName+"."+nested.Name, nested); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) registerEnum(fullName string, enum *schema.Enum) error {
	if _, exists := r.enums[fullName]; exists {
		return fmt.Errorf("duplicate enum %s", fullName)
	}
	enum.FullName = fullName
	r.enums[fullName] = enum
	return nil
}

func (r *Registry) getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// lookup finds name exactly, then as a suffix of a registered full name.
func lookup[T any](kind string, entries map[string]T, name string) (T, error) {
	if v, exists := entries[name]; exists {
		return v, nil
	}
	for _, fullName := range slices.Sorted(maps.Keys(entries)) {
		if strings.HasSuffix(fullName, "."+name) {
			return entries[fullName], nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %s", ErrNotFound, kind, name)
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	return lookup("message", r.messages, strings.TrimPrefix(name, "."))
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	return lookup("enum", r.enums, strings.TrimPrefix(name, "."))
}

// GetService retrieves a service definition by name
func (r *Registry) GetService(name string) (*schema.Service, error) {
	return lookup("service", r.services, strings.TrimPrefix(name, "."))
}

// GetExtension retrieves an extension by its fully qualified name.
func (r *Registry) GetExtension(fullName string) (*schema.Field, error) {
	if f, ok := r.extensions[strings.TrimPrefix(fullName, ".")]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: extension %s", ErrNotFound, fullName)
}

// Extensions returns every registered extension ordered by full name.
func (r *Registry) Extensions() []*schema.Field {
	out := make([]*schema.Field, 0, len(r.extensions))
	for _, name := range slices.Sorted(maps.Keys(r.extensions)) {
		out = append(out, r.extensions[name])
	}
	return out
}

// ExtensionsOf returns the extensions of extendee ordered by field number.
func (r *Registry) ExtensionsOf(extendee string) []*schema.Field {
	var out []*schema.Field
	for _, f := range r.extensions {
		if f.Extendee == extendee {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b *schema.Field) int { return int(a.Number - b.Number) })
	return out
}

// ListMessages returns all registered message names
func (r *Registry) ListMessages() []string {
	return slices.Sorted(maps.Keys(r.messages))
}

// ListEnums returns all registered enum names
func (r *Registry) ListEnums() []string {
	return slices.Sorted(maps.Keys(r.enums))
}

// ListServices returns all registered service names
func (r *Registry) ListServices() []string {
	return slices.Sorted(maps.Keys(r.services))
}

// ListExtensions returns all registered extension names
func (r *Registry) ListExtensions() []string {
	return slices.Sorted(maps.Keys(r.extensions))
}

// Files returns the loaded files keyed by path.
func (r *Registry) Files() map[string]*schema.ProtoFile {
	if r.repo == nil {
		return nil
	}
	return r.repo.ProtoFiles
}

// GetOrCreateMapEntryMessage creates a synthetic message type for map entries
func (r *Registry) GetOrCreateMapEntryMessage(parent *schema.Message, field *schema.Field) *schema.Message {
	entryTypeName := parent.FullName + "." + mapEntryName(field.Name)

	if msg, exists := r.messages[entryTypeName]; exists {
		return msg
	}

	mapEntryMessage := &schema.Message{
		Name:     mapEntryName(field.Name),
		FullName: entryTypeName,
		MapEntry: true,
		Fields: []*schema.Field{
			{
				Name:       "key",
				Number:     1,
				Label:      schema.LabelOptional,
				Type:       *field.Type.MapKey,
				OneofIndex: -1,
			},
			{
				Name:       "value",
				Number:     2,
				Label:      schema.LabelOptional,
				Type:       *field.Type.MapValue,
				OneofIndex: -1,
			},
		},
	}

	r.messages[entryTypeName] = mapEntryMessage
	return mapEntryMessage
}

// mapEntryName turns "string_map" into "StringMapEntry".
func mapEntryName(fieldName string) string {
	var sb strings.Builder
	upper := true
	for _, c := range fieldName {
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		sb.WriteRune(c)
	}
	sb.WriteString("Entry")
	return sb.String()
}
