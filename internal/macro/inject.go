package macro

import (
	"slices"
	"strings"

	"github.com/cmmoran/recordgen/internal/model"
)

// Injector attaches annotations to the members of a declaration. A fixed
// injector always carries a single annotation; a parameterized one carries
// whatever the invocation listed.
type Injector struct {
	Macro string
	Names []string
}

// FixedInjector returns an injector that always attaches name.
func FixedInjector(macro, name string) Injector {
	return Injector{Macro: macro, Names: []string{name}}
}

// ParameterizedInjector returns an injector attaching args in order.
func ParameterizedInjector(macro string, args []string) Injector {
	return Injector{Macro: macro, Names: slices.Clone(args)}
}

// Inject returns the annotations still to be attached to p, in argument
// order. Blank and repeated names are dropped, as are names p already
// carries.
func (i Injector) Inject(d *model.TypeDeclaration, p *model.Property) ([]string, error) {
	if !d.Kind.Record() {
		return nil, newMisuseError(i.Macro, d, d.Pos)
	}

	var out []string
	for _, name := range i.Names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(out, name) {
			continue
		}
		if Eligible(p, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// InjectAll runs Inject over every property of d, applies the result and
// returns what was added per property name.
func (i Injector) InjectAll(d *model.TypeDeclaration) (map[string][]string, error) {
	if !d.Kind.Record() {
		return nil, newMisuseError(i.Macro, d, d.Pos)
	}

	added := map[string][]string{}
	for _, p := range d.Properties() {
		names, err := i.Inject(d, p)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			continue
		}
		p.Annotations = append(p.Annotations, names...)
		added[p.Name] = append(added[p.Name], names...)
	}
	return added, nil
}
