package mol

import (
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

const defaultShapeName = "default"

// Registry is the arena owning every MolType, Shape, Modification and
// MolParam of one model.  Handles returned by the registry stay valid for
// the registry's lifetime; nothing is ever removed.
type Registry struct {
	logger logging.Logger

	types      []*MolType
	typeByName map[string]TypeID

	shapes []Shape

	mods      []Modification
	modByName map[string]ModID

	params     []paramEntry
	paramIndex map[paramKey]MolParam
}

type paramKey struct {
	typ   TypeID
	state string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Registry{
		logger:     logger,
		typeByName: make(map[string]TypeID),
		modByName:  make(map[string]ModID),
		paramIndex: make(map[paramKey]MolParam),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Definitions
// ─────────────────────────────────────────────────────────────────────────────

// AddModification registers a named modification.
func (r *Registry) AddModification(name string, weightDelta float64) (ModID, error) {
	if name == "" {
		return AnyMod, errors.New(errors.ErrCodeInvalidMolDef, "modification name must not be empty")
	}
	if _, dup := r.modByName[name]; dup {
		return AnyMod, errors.Default(errors.ErrCodeDuplicateMod).WithDetail(name)
	}
	id := ModID(len(r.mods))
	r.mods = append(r.mods, Modification{ID: id, Name: name, WeightDelta: weightDelta})
	r.modByName[name] = id
	return id, nil
}

// AddBasic registers a mol type with binding sites only.
func (r *Registry) AddBasic(name string, weight float64, sites []SiteDef) (*MolType, error) {
	return r.addType(name, weight, sites, nil)
}

// AddModifiable registers a mol type with binding sites and a
// modification-site table.  Every default modification must already be
// registered with AddModification.
func (r *Registry) AddModifiable(name string, weight float64, sites []SiteDef, modSites []ModSiteDef) (*MolType, error) {
	if len(modSites) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidMolDef, "modifiable mol needs at least one modification site").WithDetail(name)
	}
	return r.addType(name, weight, sites, modSites)
}

func (r *Registry) addType(name string, weight float64, sites []SiteDef, modSites []ModSiteDef) (*MolType, error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidMolDef, "mol name must not be empty")
	}
	if _, dup := r.typeByName[name]; dup {
		return nil, errors.Default(errors.ErrCodeDuplicateMol).WithDetail(name)
	}
	if weight < 0 {
		return nil, errors.New(errors.ErrCodeInvalidMolDef, "mol weight must not be negative").WithDetail(name)
	}

	id := TypeID(len(r.types))
	t := &MolType{
		id:        id,
		name:      name,
		kind:      KindBasic,
		weight:    weight,
		siteIndex: make(map[string]int, len(sites)),
	}

	// Shapes are staged so a failed definition leaves the arena untouched.
	var staged []Shape
	nextShape := ShapeID(len(r.shapes))
	for si, def := range sites {
		if def.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidMolDef, "site name must not be empty").WithDetail(name)
		}
		if _, dup := t.siteIndex[def.Name]; dup {
			return nil, errors.Default(errors.ErrCodeDuplicateSite).WithDetailf("%s.%s", name, def.Name)
		}
		shapeNames := def.Shapes
		dfltName := def.Default
		if len(shapeNames) == 0 {
			if dfltName == "" {
				dfltName = defaultShapeName
			}
			shapeNames = []string{dfltName}
		}
		if dfltName == "" {
			dfltName = shapeNames[0]
		}
		site := BindingSite{name: def.Name, byName: make(map[string]ShapeID, len(shapeNames)), dflt: NoShape}
		for _, sn := range shapeNames {
			if _, dup := site.byName[sn]; dup {
				return nil, errors.Default(errors.ErrCodeDuplicateShape).WithDetailf("%s.%s.%s", name, def.Name, sn)
			}
			shape := Shape{ID: nextShape, Name: sn, Type: id, Site: si}
			nextShape++
			staged = append(staged, shape)
			site.shapes = append(site.shapes, shape.ID)
			site.byName[sn] = shape.ID
		}
		dflt, ok := site.byName[dfltName]
		if !ok {
			return nil, errors.Default(errors.ErrCodeUnknownShape).WithDetailf("default %s.%s.%s", name, def.Name, dfltName)
		}
		site.dflt = dflt
		t.siteIndex[def.Name] = len(t.sites)
		t.sites = append(t.sites, site)
	}

	var dfltState State = BasicState{}
	if modSites != nil {
		t.kind = KindModifiable
		t.modIndex = make(map[string]int, len(modSites))
		mods := make([]ModID, 0, len(modSites))
		for _, ms := range modSites {
			if ms.Name == "" {
				return nil, errors.New(errors.ErrCodeInvalidMolDef, "modification site name must not be empty").WithDetail(name)
			}
			if _, dup := t.modIndex[ms.Name]; dup {
				return nil, errors.Default(errors.ErrCodeDuplicateModSite).WithDetailf("%s.%s", name, ms.Name)
			}
			mod, ok := r.modByName[ms.Default]
			if !ok {
				return nil, errors.Default(errors.ErrCodeUnknownMod).WithDetailf("%s.%s default %q", name, ms.Name, ms.Default)
			}
			t.modIndex[ms.Name] = len(t.modSites)
			t.modSites = append(t.modSites, modSite{name: ms.Name, dflt: mod})
			mods = append(mods, mod)
		}
		dfltState = ModState{Mods: mods}
	}

	r.shapes = append(r.shapes, staged...)
	r.types = append(r.types, t)
	r.typeByName[name] = id
	t.dfltParam = r.intern(t, dfltState, t.DefaultShapes())

	r.logger.Debug("mol type registered",
		logging.String("mol", name),
		logging.String("kind", t.kind.String()),
		logging.Int("sites", len(t.sites)),
		logging.Int("mod_sites", len(t.modSites)))
	return t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// Type returns the mol type behind a handle, or nil for an unknown handle.
func (r *Registry) Type(id TypeID) *MolType {
	if id < 0 || int(id) >= len(r.types) {
		return nil
	}
	return r.types[id]
}

// Types returns all mol types in registration order.
func (r *Registry) Types() []*MolType {
	out := make([]*MolType, len(r.types))
	copy(out, r.types)
	return out
}

// TypeByName looks up a mol type by name.
func (r *Registry) TypeByName(name string) (*MolType, bool) {
	id, ok := r.typeByName[name]
	if !ok {
		return nil, false
	}
	return r.types[id], true
}

// MustTypeByName is TypeByName with a miss reported as a structural error.
func (r *Registry) MustTypeByName(name string) (*MolType, error) {
	t, ok := r.TypeByName(name)
	if !ok {
		return nil, errors.Default(errors.ErrCodeUnknownMol).WithDetail(name)
	}
	return t, nil
}

// MustSiteIndex resolves a binding site name on t.
func (r *Registry) MustSiteIndex(t *MolType, site string) (int, error) {
	i, ok := t.SiteIndex(site)
	if !ok {
		return -1, errors.Default(errors.ErrCodeUnknownSite).WithDetailf("%s.%s", t.name, site)
	}
	return i, nil
}

// MustShape resolves a shape name on site i of t.
func (r *Registry) MustShape(t *MolType, site int, shape string) (ShapeID, error) {
	if site < 0 || site >= len(t.sites) {
		return NoShape, errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("%s site %d", t.name, site)
	}
	id, ok := t.sites[site].ShapeByName(shape)
	if !ok {
		return NoShape, errors.Default(errors.ErrCodeUnknownShape).WithDetailf("%s.%s.%s", t.name, t.sites[site].name, shape)
	}
	return id, nil
}

// Shape returns the shape behind a handle.
func (r *Registry) Shape(id ShapeID) (Shape, bool) {
	if id < 0 || int(id) >= len(r.shapes) {
		return Shape{}, false
	}
	return r.shapes[id], true
}

// ShapeName returns the name of a shape, or "" for an unknown handle.
func (r *Registry) ShapeName(id ShapeID) string {
	s, ok := r.Shape(id)
	if !ok {
		return ""
	}
	return s.Name
}

// Modification returns the modification behind a handle.
func (r *Registry) Modification(id ModID) (Modification, bool) {
	if id < 0 || int(id) >= len(r.mods) {
		return Modification{}, false
	}
	return r.mods[id], true
}

// ModByName looks up a modification by name.
func (r *Registry) ModByName(name string) (ModID, bool) {
	id, ok := r.modByName[name]
	return id, ok
}

// ─────────────────────────────────────────────────────────────────────────────
// State interning
// ─────────────────────────────────────────────────────────────────────────────

// InternState returns the param for (t, state), interning it with default
// site shapes on first use.
func (r *Registry) InternState(t *MolType, state State) (MolParam, error) {
	if err := r.checkState(t, state); err != nil {
		return -1, err
	}
	if p, ok := r.paramIndex[paramKey{typ: t.id, state: state.key()}]; ok {
		return p, nil
	}
	return r.intern(t, cloneState(state), t.DefaultShapes()), nil
}

// InternModMap interns the state obtained by substituting the named
// modifications (mod site name → modification name) into t's default state.
func (r *Registry) InternModMap(t *MolType, mods map[string]string) (MolParam, error) {
	state, err := r.modStateFor(t, mods)
	if err != nil {
		return -1, err
	}
	return r.InternState(t, state)
}

// ExchangeMods interns the state of p with the named modifications (mod
// site name → modification name) replaced.  Sites not named keep the
// modification p has.
func (r *Registry) ExchangeMods(p MolParam, mods map[string]string) (MolParam, error) {
	e, err := r.entry(p)
	if err != nil {
		return -1, err
	}
	current, err := r.ModNames(p)
	if err != nil {
		return -1, err
	}
	merged := make(map[string]string, len(current))
	for _, kv := range current {
		merged[kv[0]] = kv[1]
	}
	for site, mod := range mods {
		merged[site] = mod
	}
	return r.InternModMap(r.types[e.typ], merged)
}

// InternAlloState interns (t, state) with per-state site shapes: every site
// named in overrides (site name → shape name) takes that shape, every other
// site its default.  Re-declaring an already interned state with different
// shapes is a structural error.
func (r *Registry) InternAlloState(t *MolType, state State, overrides map[string]string) (MolParam, error) {
	if err := r.checkState(t, state); err != nil {
		return -1, err
	}
	shapes := t.DefaultShapes()
	for siteName, shapeName := range overrides {
		si, err := r.MustSiteIndex(t, siteName)
		if err != nil {
			return -1, err
		}
		sh, err := r.MustShape(t, si, shapeName)
		if err != nil {
			return -1, err
		}
		shapes[si] = sh
	}
	if p, ok := r.paramIndex[paramKey{typ: t.id, state: state.key()}]; ok {
		existing := r.params[p].shapes
		for i := range shapes {
			if existing[i] != shapes[i] {
				return -1, errors.Default(errors.ErrCodeAlloStateConflict).WithDetailf("%s site %s", t.name, t.sites[i].name)
			}
		}
		return p, nil
	}
	return r.intern(t, cloneState(state), shapes), nil
}

// ModPatternFor builds a pattern from mod site name → modification name;
// unnamed sites are wildcards.
func (r *Registry) ModPatternFor(t *MolType, mods map[string]string) (ModPattern, error) {
	if !t.IsModifiable() {
		if len(mods) > 0 {
			return nil, errors.Default(errors.ErrCodeNotModifiable).WithDetail(t.name)
		}
		return ModPattern{}, nil
	}
	pat := make(ModPattern, len(t.modSites))
	for i := range pat {
		pat[i] = AnyMod
	}
	for siteName, modName := range mods {
		si, ok := t.ModSiteIndex(siteName)
		if !ok {
			return nil, errors.Default(errors.ErrCodeUnknownModSite).WithDetailf("%s.%s", t.name, siteName)
		}
		mod, ok := r.modByName[modName]
		if !ok {
			return nil, errors.Default(errors.ErrCodeUnknownMod).WithDetail(modName)
		}
		pat[si] = mod
	}
	return pat, nil
}

func (r *Registry) modStateFor(t *MolType, mods map[string]string) (State, error) {
	if !t.IsModifiable() {
		if len(mods) > 0 {
			return nil, errors.Default(errors.ErrCodeNotModifiable).WithDetail(t.name)
		}
		return BasicState{}, nil
	}
	out := make([]ModID, len(t.modSites))
	for i, ms := range t.modSites {
		out[i] = ms.dflt
	}
	for siteName, modName := range mods {
		si, ok := t.ModSiteIndex(siteName)
		if !ok {
			return nil, errors.Default(errors.ErrCodeUnknownModSite).WithDetailf("%s.%s", t.name, siteName)
		}
		mod, ok := r.modByName[modName]
		if !ok {
			return nil, errors.Default(errors.ErrCodeUnknownMod).WithDetail(modName)
		}
		out[si] = mod
	}
	return ModState{Mods: out}, nil
}

// checkState verifies that state is the variant t supports and well formed.
func (r *Registry) checkState(t *MolType, state State) error {
	switch st := state.(type) {
	case BasicState:
		if t.IsModifiable() {
			return errors.Default(errors.ErrCodeStateMismatch).WithDetailf("%s needs a modification state", t.name)
		}
		return nil
	case ModState:
		if !t.IsModifiable() {
			return errors.Default(errors.ErrCodeNotModifiable).WithDetail(t.name)
		}
		if len(st.Mods) != len(t.modSites) {
			return errors.Default(errors.ErrCodeStateMismatch).WithDetailf("%s has %d mod sites, state has %d", t.name, len(t.modSites), len(st.Mods))
		}
		for _, m := range st.Mods {
			if m < 0 || int(m) >= len(r.mods) {
				return errors.Default(errors.ErrCodeUnknownMod).WithDetailf("handle %d", int(m))
			}
		}
		return nil
	default:
		return errors.Default(errors.ErrCodeStateMismatch).WithDetail(t.name)
	}
}

func (r *Registry) intern(t *MolType, state State, shapes []ShapeID) MolParam {
	w := t.weight
	if ms, ok := state.(ModState); ok {
		for _, m := range ms.Mods {
			w += r.mods[m].WeightDelta
		}
	}
	p := MolParam(len(r.params))
	r.params = append(r.params, paramEntry{typ: t.id, state: state, shapes: shapes, weight: w})
	r.paramIndex[paramKey{typ: t.id, state: state.key()}] = p
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Param inspection
// ─────────────────────────────────────────────────────────────────────────────

func (r *Registry) entry(p MolParam) (*paramEntry, error) {
	if p < 0 || int(p) >= len(r.params) {
		return nil, errors.Default(errors.ErrCodeUnknownParam).WithDetailf("handle %d", int(p))
	}
	return &r.params[p], nil
}

// ParamType returns the mol type a param belongs to.
func (r *Registry) ParamType(p MolParam) (TypeID, error) {
	e, err := r.entry(p)
	if err != nil {
		return -1, err
	}
	return e.typ, nil
}

// ParamState returns a copy of the param's state.
func (r *Registry) ParamState(p MolParam) (State, error) {
	e, err := r.entry(p)
	if err != nil {
		return nil, err
	}
	return cloneState(e.state), nil
}

// ParamWeight returns the molecular weight of a mol in the param's state.
func (r *Registry) ParamWeight(p MolParam) (float64, error) {
	e, err := r.entry(p)
	if err != nil {
		return 0, err
	}
	return e.weight, nil
}

// SiteShapes returns the per-site shapes a mol in state p shows on its own,
// checking that p belongs to type t.
func (r *Registry) SiteShapes(t *MolType, p MolParam) ([]ShapeID, error) {
	e, err := r.entry(p)
	if err != nil {
		return nil, err
	}
	if e.typ != t.id {
		return nil, errors.Default(errors.ErrCodeStateMismatch).WithDetailf("param of %s used for %s", r.types[e.typ].name, t.name)
	}
	out := make([]ShapeID, len(e.shapes))
	copy(out, e.shapes)
	return out, nil
}

// MatchMods reports whether param p satisfies the pattern.
func (r *Registry) MatchMods(p MolParam, pat ModPattern) bool {
	e, err := r.entry(p)
	if err != nil {
		return false
	}
	return pat.Matches(e.state)
}

// ModNames returns (mod site name, modification name) pairs of p's state in
// site order; nil for basic states.
func (r *Registry) ModNames(p MolParam) ([][2]string, error) {
	e, err := r.entry(p)
	if err != nil {
		return nil, err
	}
	ms, ok := e.state.(ModState)
	if !ok {
		return nil, nil
	}
	t := r.types[e.typ]
	out := make([][2]string, len(ms.Mods))
	for i, m := range ms.Mods {
		out[i] = [2]string{t.modSites[i].name, r.mods[m].Name}
	}
	return out, nil
}

// StateKey returns a string that is equal for two params exactly when their
// mol types and states are equal.
func (r *Registry) StateKey(p MolParam) (string, error) {
	e, err := r.entry(p)
	if err != nil {
		return "", err
	}
	return e.state.key(), nil
}

// ParamCount returns the number of interned params.
func (r *Registry) ParamCount() int { return len(r.params) }
