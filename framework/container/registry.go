package container

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/km-arc/go-beans/framework/beans"
)

// ── Registration ──────────────────────────────────────────────────────────────

// Register validates def and binds it to name.
//
// Re-registering a name replaces the old definition in place, keeping its
// position in the registration order, unless overriding is disabled.
//
//	f.Register("service", beans.NewRoot(reflect.TypeOf(&Service{})).
//	    WithProperty("name", "default"))
func (f *Factory) Register(name string, def *beans.Definition) error {
	if name == "" {
		return &DefinitionStoreError{Name: name, Cause: fmt.Errorf("bean name must not be empty")}
	}
	if def == nil {
		return &DefinitionStoreError{Name: name, Cause: fmt.Errorf("bean definition must not be nil")}
	}
	if err := def.Validate(); err != nil {
		return &DefinitionStoreError{Name: name, Resource: def.ResourceDescription(), Cause: err}
	}

	f.defMu.Lock()
	defer f.defMu.Unlock()

	if old, ok := f.definitions[name]; ok {
		if !f.allowOverriding {
			return &DefinitionConflictError{Name: name, Existing: old.String(), Incoming: def.String()}
		}
		f.log.WithField("bean", name).
			WithField("old", old.String()).
			WithField("new", def.String()).
			Info("overriding bean definition")
	} else {
		f.names = append(f.names, name)
	}
	f.definitions[name] = def
	return nil
}

// MustRegister is Register that panics on error, for static wiring code.
func (f *Factory) MustRegister(name string, def *beans.Definition) {
	if err := f.Register(name, def); err != nil {
		panic(err)
	}
}

// RegisterAlias binds alias to canonical. Aliases of aliases collapse onto
// the final canonical name.
//
//	f.RegisterAlias("svc", "service")
func (f *Factory) RegisterAlias(alias, canonical string) error {
	if alias == "" || canonical == "" {
		return &DefinitionStoreError{Name: alias, Cause: fmt.Errorf("alias and bean name must not be empty")}
	}

	f.aliasMu.Lock()
	defer f.aliasMu.Unlock()

	target := canonical
	if t, ok := f.aliases[canonical]; ok {
		target = t
	}
	if target == alias {
		return &AliasConflictError{Alias: alias, Existing: alias, Requested: canonical}
	}
	if existing, ok := f.aliases[alias]; ok && existing != target {
		return &AliasConflictError{Alias: alias, Existing: existing, Requested: target}
	}
	f.aliases[alias] = target
	return nil
}

// canonical resolves an alias to its canonical name.
func (f *Factory) canonical(name string) string {
	f.aliasMu.RLock()
	defer f.aliasMu.RUnlock()
	if target, ok := f.aliases[name]; ok {
		return target
	}
	return name
}

func (f *Factory) aliasesFor(name string) []string {
	f.aliasMu.RLock()
	defer f.aliasMu.RUnlock()
	var out []string
	for alias, target := range f.aliases {
		if target == name {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Definition returns the definition registered under name, unmerged.
func (f *Factory) Definition(name string) (*beans.Definition, error) {
	f.defMu.RLock()
	defer f.defMu.RUnlock()
	def, ok := f.definitions[name]
	if !ok {
		return nil, &NoSuchDefinitionError{Name: name}
	}
	return def, nil
}

// ContainsDefinition reports whether name is registered in this factory.
// Aliases and ancestors are not consulted.
func (f *Factory) ContainsDefinition(name string) bool {
	f.defMu.RLock()
	defer f.defMu.RUnlock()
	_, ok := f.definitions[name]
	return ok
}

// DefinitionCount returns the number of registered definitions.
func (f *Factory) DefinitionCount() int {
	f.defMu.RLock()
	defer f.defMu.RUnlock()
	return len(f.definitions)
}

// DefinitionNames returns every registered name in registration order.
func (f *Factory) DefinitionNames() []string {
	f.defMu.RLock()
	defer f.defMu.RUnlock()
	return append([]string(nil), f.names...)
}

// Names returns, in registration order, the names whose merged definition
// has a class assignable to t. A nil t matches every name.
func (f *Factory) Names(t reflect.Type) []string {
	names := f.DefinitionNames()
	if t == nil {
		return names
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		merged, err := f.MergedDefinition(name, false)
		if err != nil {
			continue
		}
		if merged.HasClass() && merged.Class().AssignableTo(t) {
			out = append(out, name)
		}
	}
	return out
}

// ── Merging ───────────────────────────────────────────────────────────────────

// MergedDefinition returns the root definition for name, merging a child
// over its resolved parent chain.
//
// With includingAncestors set, a name missing locally is looked up in the
// parent factory.
func (f *Factory) MergedDefinition(name string, includingAncestors bool) (*beans.Definition, error) {
	return f.mergedDefinition(name, includingAncestors, nil)
}

func (f *Factory) mergedDefinition(name string, includingAncestors bool, seen map[string]bool) (*beans.Definition, error) {
	def, err := f.Definition(name)
	if err != nil {
		if includingAncestors {
			if p, ok := f.parent.(mergedDefinitionSource); ok {
				return p.MergedDefinition(name, true)
			}
		}
		return nil, err
	}

	if def.Kind() == beans.KindRoot {
		return f.withResolvedClass(def), nil
	}

	parentName := def.ParentName()
	var parentDef *beans.Definition
	if parentName == name {
		p, ok := f.parent.(mergedDefinitionSource)
		if !ok {
			return nil, &NoSuchDefinitionError{Name: parentName,
				Reason: fmt.Sprintf("parent name '%s' is equal to bean name '%s': cannot be resolved without a parent factory", parentName, name)}
		}
		if parentDef, err = p.MergedDefinition(parentName, true); err != nil {
			return nil, err
		}
	} else {
		if seen == nil {
			seen = make(map[string]bool)
		}
		if seen[name] {
			return nil, &DefinitionStoreError{Name: name, Resource: def.ResourceDescription(),
				Cause: fmt.Errorf("circular parent reference through '%s'", parentName)}
		}
		seen[name] = true
		if parentDef, err = f.mergedDefinition(parentName, true, seen); err != nil {
			return nil, err
		}
	}

	return f.withResolvedClass(beans.Merge(parentDef, def)), nil
}

// withResolvedClass resolves a deferred class name through the strategy,
// when it can. A stored root is copied rather than mutated.
func (f *Factory) withResolvedClass(def *beans.Definition) *beans.Definition {
	if def.HasClass() || def.ClassName() == "" {
		return def
	}
	resolver, ok := f.strategy.(beans.ClassResolver)
	if !ok {
		return def
	}
	cp := def.Clone()
	if err := cp.ResolveClass(resolver); err != nil {
		f.log.WithField("class", def.ClassName()).WithError(err).Debug("class name not resolvable yet")
		return def
	}
	return cp
}

// CanonicalName resolves name through the alias table. Unknown names are
// returned unchanged.
func (f *Factory) CanonicalName(name string) string {
	return f.canonical(name)
}
