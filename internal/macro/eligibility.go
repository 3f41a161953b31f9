package macro

import (
	"github.com/cmmoran/recordgen/internal/model"
)

// Eligible reports whether p is a valid target for the annotation target.
// Static, computed and naming-excluded members never are; members that
// already carry target are treated as handled.
func Eligible(p *model.Property, target string) bool {
	switch {
	case p == nil:
		return false
	case p.IsStatic:
		return false
	case p.Accessor == model.AccessorFull:
		return false
	case p.ExcludedByNaming():
		return false
	case target != "" && p.HasAnnotation(target):
		return false
	}
	return true
}

// EligibleProperties filters the declaration's properties through Eligible,
// keeping declaration order.
func EligibleProperties(d *model.TypeDeclaration, target string) []*model.Property {
	var out []*model.Property
	for _, p := range d.Properties() {
		if Eligible(p, target) {
			out = append(out, p)
		}
	}
	return out
}
