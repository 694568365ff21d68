package beans

// Clone returns a deep copy of d. Property and argument collections and
// nested definitions are copied; literal values are shared.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := *d
	out.properties = d.properties.clone()
	out.args = d.args.clone()
	out.dependsOn = append([]string(nil), d.dependsOn...)
	if d.lazyInit != nil {
		v := *d.lazyInit
		out.lazyInit = &v
	}
	if d.abstract != nil {
		v := *d.abstract
		out.abstract = &v
	}
	return &out
}

// Merge computes the effective root definition of child given its already
// resolved parent. The parent is deep-copied, then every field the child
// set explicitly is overlaid; child values win, unset fields inherit.
//
// Merge never mutates its arguments. Calling it with a root child returns
// a copy of the child.
func Merge(parent, child *Definition) *Definition {
	if child.kind == KindRoot {
		return child.Clone()
	}

	out := parent.Clone()
	out.kind = KindRoot
	out.parentName = ""

	if child.class != nil {
		out.class = child.class
		out.className = ""
	}
	if child.className != "" {
		out.className = child.className
		if child.class == nil {
			out.class = nil
		}
	}
	if child.scope != ScopeDefault {
		out.scope = child.scope
	}
	if child.lazyInit != nil {
		v := *child.lazyInit
		out.lazyInit = &v
	}
	if child.abstract != nil {
		v := *child.abstract
		out.abstract = &v
	}

	out.properties.AddAll(&child.properties)

	if len(child.args.Indexed) > 0 && out.args.Indexed == nil {
		out.args.Indexed = make(map[int]ArgValue, len(child.args.Indexed))
	}
	for i, v := range child.args.Indexed {
		out.args.Indexed[i] = ArgValue{Value: cloneValue(v.Value), Type: v.Type}
	}
	// generic args overlay position by position
	for i, v := range child.args.Generic {
		av := ArgValue{Value: cloneValue(v.Value), Type: v.Type}
		if i < len(out.args.Generic) {
			out.args.Generic[i] = av
		} else {
			out.args.Generic = append(out.args.Generic, av)
		}
	}

	if child.factoryMethod != "" {
		out.factoryMethod = child.factoryMethod
	}
	if child.factoryBean != "" {
		out.factoryBean = child.factoryBean
	}
	if child.initMethod != "" {
		out.initMethod = child.initMethod
	}
	if child.destroyMethod != "" {
		out.destroyMethod = child.destroyMethod
	}
	for _, dep := range child.dependsOn {
		if !containsString(out.dependsOn, dep) {
			out.dependsOn = append(out.dependsOn, dep)
		}
	}
	if child.resource != "" {
		out.resource = child.resource
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
