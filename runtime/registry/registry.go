// Package registry keeps the compiled mapping artifacts of entity types.
//
// A Registry has two phases. Populate extracts, synthesizes and compiles
// every new entity type and publishes the result as an immutable snapshot.
// Lookups read the current snapshot without locking, so after population the
// registry is safe for unsynchronized concurrent use.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"

	"github.com/satishbabariya/normgo/internal/debug"
	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/binding"
)

// Artifact is everything compiled for one entity type. Artifacts are
// immutable once published.
type Artifact struct {
	ID         int
	Type       reflect.Type
	Entity     *mapping.EntityDescriptor
	Dialect    sqlgen.Dialect
	Statements *sqlgen.Statements
	Plan       *binding.Plan
	Hazards    []string
}

// TableName returns the mapped table.
func (a *Artifact) TableName() string {
	return a.Entity.Table
}

// Statement returns the synthesized statement for op.
func (a *Artifact) Statement(op sqlgen.Op) *sqlgen.Statement {
	return a.Statements.Get(op)
}

// BindReader is the forward-reader binding routine of the type.
func (a *Artifact) BindReader(dst any, r binding.Reader) (any, error) {
	return a.Plan.BindReader(dst, r)
}

// BindRow is the materialized-row binding routine of the type.
func (a *Artifact) BindRow(dst any, src binding.Source) (any, error) {
	return a.Plan.BindRow(dst, src)
}

type snapshot struct {
	byType map[reflect.Type]*Artifact
	byID   []*Artifact
}

// Registry maps entity types to their artifacts.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]

	dialect    sqlgen.Dialect
	dialects   map[string]sqlgen.Dialect
	converters map[string]binding.Converter
	strictKeys bool
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithDialect sets the dialect used for entities whose connection has no
// dialect of its own.
func WithDialect(d sqlgen.Dialect) Option {
	return func(r *Registry) {
		r.dialect = d
	}
}

// WithConnectionDialect sets the dialect for entities bound to connection.
// Connection names are case-insensitive.
func WithConnectionDialect(connection string, d sqlgen.Dialect) Option {
	return func(r *Registry) {
		r.dialects[strings.ToLower(connection)] = d
	}
}

// WithConverter registers a named converter for column tags to reference.
func WithConverter(name string, fn binding.Converter) Option {
	return func(r *Registry) {
		r.converters[name] = fn
	}
}

// WithStrictKeys rejects entities whose UPDATE or DELETE would affect every
// row because they declare no primary key. Without it such entities are
// registered and the hazard is logged.
func WithStrictKeys(strict bool) Option {
	return func(r *Registry) {
		r.strictKeys = strict
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		dialect:    sqlgen.Ansi,
		dialects:   make(map[string]sqlgen.Dialect),
		converters: make(map[string]binding.Converter),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = debug.Logger()
	}
	r.snap.Store(&snapshot{byType: map[reflect.Type]*Artifact{}})
	return r
}

// Populate registers every entity type among prototypes. A prototype may be
// a value, a pointer or a reflect.Type. Non-entity types are skipped and
// types registered earlier keep their id and artifact.
//
// Population is all or nothing: if any new type fails to compile, nothing
// is published and the joined errors are returned.
func (r *Registry) Populate(prototypes ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	var fresh []*Artifact
	pending := make(map[reflect.Type]bool)
	var errs []error

	for _, proto := range prototypes {
		t := typeOf(proto)
		if t == nil {
			continue
		}
		if !mapping.IsEntity(t) {
			r.logger.Debug("skipping non-entity type", "type", t.String())
			continue
		}
		if _, ok := cur.byType[t]; ok || pending[t] {
			continue
		}
		pending[t] = true

		a, err := r.compile(t)
		if err != nil {
			errs = append(errs, fmt.Errorf("register %s: %w", t, err))
			continue
		}
		fresh = append(fresh, a)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if len(fresh) == 0 {
		return nil
	}

	next := &snapshot{
		byType: make(map[reflect.Type]*Artifact, len(cur.byType)+len(fresh)),
		byID:   make([]*Artifact, len(cur.byID), len(cur.byID)+len(fresh)),
	}
	for t, a := range cur.byType {
		next.byType[t] = a
	}
	copy(next.byID, cur.byID)
	for _, a := range fresh {
		a.ID = len(next.byID) + 1
		next.byType[a.Type] = a
		next.byID = append(next.byID, a)
		r.logger.Info("registered entity", "id", a.ID, "type", a.Type.String(), "table", a.Entity.Table, "dialect", a.Dialect.Name)
		for _, h := range a.Hazards {
			r.logger.Warn("statement hazard", "type", a.Type.String(), "hazard", h)
		}
	}
	r.snap.Store(next)
	return nil
}

func (r *Registry) compile(t reflect.Type) (*Artifact, error) {
	desc, err := mapping.Extract(t)
	if err != nil {
		return nil, err
	}
	if debug.Enabled() {
		r.logger.Debug("extracted descriptor", "type", t.String(), "descriptor", spew.Sdump(desc))
	}

	dialect, ok := r.dialects[strings.ToLower(desc.Connection)]
	if !ok {
		dialect = r.dialect
	}
	stmts, err := sqlgen.NewGenerator(dialect).Generate(desc)
	if err != nil {
		return nil, err
	}
	hazards := stmts.Hazards()
	if r.strictKeys && len(hazards) > 0 {
		return nil, mapping.Configf(desc.Name, "", "no primary key declared")
	}

	plan, err := binding.Compile(t, desc, r.converters)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Type:       t,
		Entity:     desc,
		Dialect:    dialect,
		Statements: stmts,
		Plan:       plan,
		Hazards:    hazards,
	}, nil
}

func typeOf(proto any) reflect.Type {
	var t reflect.Type
	switch p := proto.(type) {
	case nil:
		return nil
	case reflect.Type:
		t = p
	default:
		t = reflect.TypeOf(proto)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Lookup returns the artifact of t. t may be a pointer type.
func (r *Registry) Lookup(t reflect.Type) (*Artifact, error) {
	if t == nil {
		return nil, &NotRegisteredError{Type: "<nil>"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if a, ok := r.snap.Load().byType[t]; ok {
		return a, nil
	}
	return nil, &NotRegisteredError{Type: t.String()}
}

// LookupValue returns the artifact of the dynamic type of v.
func (r *Registry) LookupValue(v any) (*Artifact, error) {
	return r.Lookup(reflect.TypeOf(v))
}

// LookupOf returns the artifact of T.
func LookupOf[T any](r *Registry) (*Artifact, error) {
	return r.Lookup(reflect.TypeFor[T]())
}

// ID returns the registry id of t.
func (r *Registry) ID(t reflect.Type) (int, error) {
	a, err := r.Lookup(t)
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// ByID returns the artifact with the given registry id.
func (r *Registry) ByID(id int) (*Artifact, error) {
	s := r.snap.Load()
	if id < 1 || id > len(s.byID) {
		return nil, &NotRegisteredError{ID: id}
	}
	return s.byID[id-1], nil
}

// TableName returns the table of the type with the given registry id.
func (r *Registry) TableName(id int) (string, error) {
	a, err := r.ByID(id)
	if err != nil {
		return "", err
	}
	return a.TableName(), nil
}

// Statement returns the statement text of op for t.
func (r *Registry) Statement(t reflect.Type, op sqlgen.Op) (string, error) {
	a, err := r.Lookup(t)
	if err != nil {
		return "", err
	}
	st := a.Statement(op)
	if st == nil {
		return "", fmt.Errorf("unknown operation %v", op)
	}
	return st.Text, nil
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.snap.Load().byID)
}

// Artifacts returns the registered artifacts in id order.
func (r *Registry) Artifacts() []*Artifact {
	s := r.snap.Load()
	out := make([]*Artifact, len(s.byID))
	copy(out, s.byID)
	return out
}

// Tables returns the registered table names sorted alphabetically.
func (r *Registry) Tables() []string {
	s := r.snap.Load()
	out := make([]string, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.TableName())
	}
	sort.Strings(out)
	return out
}

// resolve finds the artifact for a bind destination. Types without the
// entity marker fail with a NotAnEntityError.
func (r *Registry) resolve(dst any) (*Artifact, error) {
	t := reflect.TypeOf(dst)
	if t == nil || !mapping.IsEntity(t) {
		name := "<nil>"
		if t != nil {
			name = t.String()
		}
		return nil, &mapping.NotAnEntityError{Type: name}
	}
	return r.Lookup(t)
}

// BindReader binds the current row of rd into dst, a pointer to a
// registered entity.
func (r *Registry) BindReader(dst any, rd binding.Reader) (any, error) {
	a, err := r.resolve(dst)
	if err != nil {
		return nil, err
	}
	return a.BindReader(dst, rd)
}

// BindRow binds a materialized row into dst, a pointer to a registered
// entity.
func (r *Registry) BindRow(dst any, src binding.Source) (any, error) {
	a, err := r.resolve(dst)
	if err != nil {
		return nil, err
	}
	return a.BindRow(dst, src)
}
