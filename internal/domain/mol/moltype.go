// Package mol defines the molecular building blocks of the engine: mol types
// with their binding sites and site shapes, modification sites, and the
// interned mol states ("params") that parameterize mol instances inside a
// complex.  All definitions live in a Registry arena and are addressed by
// stable integer handles that are never invalidated.
package mol

import (
	"fmt"
)

// TypeID is the stable handle of a MolType inside its Registry.
type TypeID int

// ShapeID is the stable handle of a binding-site shape inside its Registry.
type ShapeID int

// ModID is the stable handle of a Modification inside its Registry.
type ModID int

// NoShape marks an unset entry in a site-shape vector.
const NoShape ShapeID = -1

// Kind tags which facets a MolType carries.
type Kind int

const (
	// KindBasic mols have binding sites only.
	KindBasic Kind = iota
	// KindModifiable mols additionally carry a modification-site table.
	KindModifiable
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindModifiable:
		return "modifiable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Definition inputs
// ─────────────────────────────────────────────────────────────────────────────

// SiteDef declares one binding site: its name, its shape names and the
// shape used when nothing overrides it.  An empty Shapes list declares a
// single shape named after Default (or "default" when Default is empty).
type SiteDef struct {
	Name    string
	Shapes  []string
	Default string
}

// ModSiteDef declares one modification site and its default modification.
type ModSiteDef struct {
	Name    string
	Default string
}

// ─────────────────────────────────────────────────────────────────────────────
// Shapes, sites and modifications
// ─────────────────────────────────────────────────────────────────────────────

// Shape is one named conformation of a binding site.
type Shape struct {
	ID   ShapeID
	Name string
	Type TypeID
	Site int
}

// BindingSite is a site that is either free or engaged in exactly one
// binding.
type BindingSite struct {
	name   string
	shapes []ShapeID
	byName map[string]ShapeID
	dflt   ShapeID
}

// Name returns the site's name.
func (s *BindingSite) Name() string { return s.name }

// DefaultShape returns the shape the site has when no allostery applies.
func (s *BindingSite) DefaultShape() ShapeID { return s.dflt }

// Shapes returns the site's shapes in declaration order.
func (s *BindingSite) Shapes() []ShapeID {
	out := make([]ShapeID, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// ShapeByName looks up one of the site's shapes.
func (s *BindingSite) ShapeByName(name string) (ShapeID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Modification is a named covalent modification with its weight change.
type Modification struct {
	ID          ModID
	Name        string
	WeightDelta float64
}

// modSite is one entry of a modifiable mol's modification-site table.
type modSite struct {
	name string
	dflt ModID
}

// ─────────────────────────────────────────────────────────────────────────────
// MolType
// ─────────────────────────────────────────────────────────────────────────────

// MolType is the immutable definition of a mol: name, ordered binding sites
// and, for KindModifiable, a modification-site table.  The only mutable part
// is the registry-owned table of interned states, which grows monotonically.
type MolType struct {
	id        TypeID
	name      string
	kind      Kind
	weight    float64
	sites     []BindingSite
	siteIndex map[string]int
	modSites  []modSite
	modIndex  map[string]int
	dfltParam MolParam
}

// ID returns the type's handle.
func (t *MolType) ID() TypeID { return t.id }

// Name returns the type's name.
func (t *MolType) Name() string { return t.name }

// Kind returns which facets the type carries.
func (t *MolType) Kind() Kind { return t.kind }

// IsModifiable reports whether the type has a modification-site table.
func (t *MolType) IsModifiable() bool { return t.kind == KindModifiable }

// BaseWeight returns the unmodified molecular weight.
func (t *MolType) BaseWeight() float64 { return t.weight }

// SiteCount returns the number of binding sites.
func (t *MolType) SiteCount() int { return len(t.sites) }

// Site returns the binding site at index i.
func (t *MolType) Site(i int) *BindingSite { return &t.sites[i] }

// SiteIndex looks up a binding site by name.
func (t *MolType) SiteIndex(name string) (int, bool) {
	i, ok := t.siteIndex[name]
	return i, ok
}

// ModSiteCount returns the number of modification sites (zero for basic mols).
func (t *MolType) ModSiteCount() int { return len(t.modSites) }

// ModSiteName returns the name of modification site i.
func (t *MolType) ModSiteName(i int) string { return t.modSites[i].name }

// ModSiteIndex looks up a modification site by name.
func (t *MolType) ModSiteIndex(name string) (int, bool) {
	i, ok := t.modIndex[name]
	return i, ok
}

// DefaultParam returns the interned default state of the type.
func (t *MolType) DefaultParam() MolParam { return t.dfltParam }

// DefaultShapes returns the default shape of every binding site, in site
// order.
func (t *MolType) DefaultShapes() []ShapeID {
	out := make([]ShapeID, len(t.sites))
	for i := range t.sites {
		out[i] = t.sites[i].dflt
	}
	return out
}

func (t *MolType) String() string {
	return fmt.Sprintf("%s(%s)", t.name, t.kind)
}
