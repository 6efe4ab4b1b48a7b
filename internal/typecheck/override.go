package typecheck

// overridePass applies spec.md §4.3's override rule to every class method:
// a method whose name collides with an ancestor non-initializer method must
// carry `override`; `override` with no matching ancestor method is an
// error. Initializers are exempt both ways.
func (c *Checker) overridePass() {
	for _, ti := range c.types {
		if ti.Kind != KindClass || ti.Super == "" {
			continue
		}
		super, ok := c.types[ti.Super]
		if !ok {
			continue
		}
		for name, m := range ti.Methods {
			if m.IsInitializer {
				continue
			}
			ancestor, _ := c.lookupMethod(super, name)
			switch {
			case ancestor != nil && !ancestor.IsInitializer && !m.IsOverride:
				c.errorf(m.Decl.Line(), "method %q overrides %q.%q but is missing the \"override\" keyword", name, ti.Super, name)
			case ancestor == nil && m.IsOverride:
				c.errorf(m.Decl.Line(), "method %q is marked \"override\" but %q declares no such ancestor method", name, ti.Name)
			}
		}
	}
}
