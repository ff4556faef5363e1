package plex

// FreeSites returns every binding site that is not the endpoint of a
// binding, ordered by (mol, site).  For S total sites and B bindings the
// result has exactly S-2B entries.
func (g *Graph) FreeSites() []SiteSpec {
	bound := g.siteToBinding()
	out := make([]SiteSpec, 0, g.SiteCount()-2*len(g.bindings))
	for mi, t := range g.mols {
		for si := 0; si < t.SiteCount(); si++ {
			s := SiteSpec{Mol: mi, Site: si}
			if _, ok := bound[s]; !ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// IsFree reports whether site s is not engaged in a binding.
func (g *Graph) IsFree(s SiteSpec) bool {
	_, bound := g.bound[s]
	return !bound
}

// molBindings returns, for each mol, the indices of the bindings touching
// it in binding order.
func (g *Graph) molBindings() [][]int {
	out := make([][]int, len(g.mols))
	for bi, b := range g.bindings {
		out[b.Left.Mol] = append(out[b.Left.Mol], bi)
		out[b.Right.Mol] = append(out[b.Right.Mol], bi)
	}
	return out
}

// ConnectedComponent extracts the connected component containing seed.  The
// returned iso maps g (source) onto the component (target): Forward takes an
// original mol or binding index to its component index (Unmapped outside the
// component) and Backward takes a component index back to the original.
//
// Component mols are numbered in breadth-first discovery order starting with
// seed at 0; component bindings in the order they are reached.
func (g *Graph) ConnectedComponent(seed int) (*Graph, Iso) {
	comp := &Graph{}
	iso := Iso{
		Forward:  NewMap(len(g.mols), len(g.bindings)),
		Backward: NewMap(0, 0),
	}
	if seed < 0 || seed >= len(g.mols) {
		return comp, iso
	}
	adj := g.molBindings()

	addMol := func(orig int) int {
		if idx := iso.Forward.MolMap[orig]; idx != Unmapped {
			return idx
		}
		idx := len(comp.mols)
		comp.mols = append(comp.mols, g.mols[orig])
		iso.Forward.MolMap[orig] = idx
		iso.Backward.MolMap = append(iso.Backward.MolMap, orig)
		return idx
	}

	addMol(seed)
	for next := 0; next < len(comp.mols); next++ {
		orig := iso.Backward.MolMap[next]
		for _, bi := range adj[orig] {
			if iso.Forward.BindingMap[bi] != Unmapped {
				continue
			}
			b := g.bindings[bi]
			l := addMol(b.Left.Mol)
			r := addMol(b.Right.Mol)
			iso.Forward.BindingMap[bi] = len(comp.bindings)
			iso.Backward.BindingMap = append(iso.Backward.BindingMap, bi)
			comp.bindings = append(comp.bindings, Binding{
				Left:  SiteSpec{Mol: l, Site: b.Left.Site},
				Right: SiteSpec{Mol: r, Site: b.Right.Site},
			})
		}
	}
	comp.indexBindings()
	return comp, iso
}

// ComponentMols returns the original indices of the mols connected to seed,
// in discovery order.
func (g *Graph) ComponentMols(seed int) []int {
	_, iso := g.ConnectedComponent(seed)
	return append([]int(nil), iso.Backward.MolMap...)
}

// IsConnected reports whether the component of mol 0 covers every mol.  The
// empty graph is not connected.
func (g *Graph) IsConnected() bool {
	if len(g.mols) == 0 {
		return false
	}
	comp, _ := g.ConnectedComponent(0)
	return comp.MolCount() == len(g.mols)
}
