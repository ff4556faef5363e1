package naming

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/pkg/errors"
)

// molInfo is what naming needs to know about one mol instance.
type molInfo struct {
	name     string
	stateKey string
	mods     [][2]string
}

// edge is one binding seen from one of its mols.
type edge struct {
	site    int
	nbr     int
	nbrSite int
}

// colored is a complex prepared for canonical labeling.
type colored struct {
	g    *plex.Graph
	mols []molInfo
	adj  [][]edge
}

func prepare(reg *mol.Registry, g *plex.Graph, params []mol.MolParam) (*colored, error) {
	if len(params) != g.MolCount() {
		return nil, errors.Default(errors.ErrCodeParamCountMismatch).
			WithDetailf("%d mols, %d params", g.MolCount(), len(params))
	}
	c := &colored{g: g, mols: make([]molInfo, g.MolCount()), adj: make([][]edge, g.MolCount())}
	for i, p := range params {
		tid, err := reg.ParamType(p)
		if err != nil {
			return nil, err
		}
		if tid != g.Mol(i).ID() {
			return nil, errors.Default(errors.ErrCodeStateMismatch).
				WithDetailf("param of type %d on %s", int(tid), g.Mol(i).Name())
		}
		mods, err := reg.ModNames(p)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(mods))
		for j, m := range mods {
			names[j] = m[1]
		}
		c.mols[i] = molInfo{name: g.Mol(i).Name(), stateKey: strings.Join(names, ","), mods: mods}
	}
	for _, b := range g.Bindings() {
		c.adj[b.Left.Mol] = append(c.adj[b.Left.Mol], edge{site: b.Left.Site, nbr: b.Right.Mol, nbrSite: b.Right.Site})
		c.adj[b.Right.Mol] = append(c.adj[b.Right.Mol], edge{site: b.Right.Site, nbr: b.Left.Mol, nbrSite: b.Left.Site})
	}
	for _, es := range c.adj {
		sort.Slice(es, func(i, j int) bool { return es[i].site < es[j].site })
	}
	return c, nil
}

// initialColors ranks mols by (type name, modification state).  Mols of
// equal rank are interchangeable as far as naming is concerned.
func (c *colored) initialColors() []int {
	order := make([]int, len(c.mols))
	for i := range order {
		order[i] = i
	}
	less := func(a, b molInfo) bool {
		if a.name != b.name {
			return a.name < b.name
		}
		return a.stateKey < b.stateKey
	}
	sort.SliceStable(order, func(i, j int) bool { return less(c.mols[order[i]], c.mols[order[j]]) })
	colors := make([]int, len(c.mols))
	rank := 0
	for k, v := range order {
		if k > 0 && less(c.mols[order[k-1]], c.mols[v]) {
			rank++
		}
		colors[v] = rank
	}
	return colors
}

// outputState serializes the complex with mol v at position pos[v].
func (c *colored) outputState(pos Permutation) OutputState {
	n := len(c.mols)
	at := pos.Inverse()
	out := OutputState{Mols: make([]string, n)}
	for p := 0; p < n; p++ {
		out.Mols[p] = c.mols[at[p]].name
	}

	type tuple struct {
		molA, siteA, molB, siteB int
		typeA, typeB             *mol.MolType
	}
	tuples := make([]tuple, 0, c.g.BindingCount())
	for _, b := range c.g.Bindings() {
		l, r := b.Left, b.Right
		if pos[l.Mol] > pos[r.Mol] {
			l, r = r, l
		}
		tuples = append(tuples, tuple{
			molA: pos[l.Mol], siteA: l.Site, molB: pos[r.Mol], siteB: r.Site,
			typeA: c.g.Mol(l.Mol), typeB: c.g.Mol(r.Mol),
		})
	}
	// (molA, siteA) is unique since a site binds at most once.
	sort.Slice(tuples, func(i, j int) bool {
		if tuples[i].molA != tuples[j].molA {
			return tuples[i].molA < tuples[j].molA
		}
		return tuples[i].siteA < tuples[j].siteA
	})
	for _, t := range tuples {
		out.Bindings = append(out.Bindings, [4]string{
			strconv.Itoa(t.molA), t.typeA.Site(t.siteA).Name(),
			strconv.Itoa(t.molB), t.typeB.Site(t.siteB).Name(),
		})
	}

	for p := 0; p < n; p++ {
		for _, m := range c.mols[at[p]].mods {
			out.Mods = append(out.Mods, [3]string{strconv.Itoa(p), m[0], m[1]})
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Individualization-refinement
// ─────────────────────────────────────────────────────────────────────────────

// refine splits color cells until every mol of a cell sees the same
// multiset of (own site, neighbour color, neighbour site) triples.  New
// colors are ranks of signatures whose first entry is the old color, so the
// order of existing cells is preserved.
func (c *colored) refine(colors []int) []int {
	n := len(colors)
	for {
		sigs := make([][]int, n)
		for v := 0; v < n; v++ {
			sig := make([]int, 0, 1+3*len(c.adj[v]))
			sig = append(sig, colors[v])
			for _, e := range c.adj[v] {
				sig = append(sig, e.site, colors[e.nbr], e.nbrSite)
			}
			sigs[v] = sig
		}
		next := rankSignatures(sigs)
		if countColors(next) == countColors(colors) {
			return next
		}
		colors = next
	}
}

func rankSignatures(sigs [][]int) []int {
	order := make([]int, len(sigs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return lessInts(sigs[order[i]], sigs[order[j]]) })
	out := make([]int, len(sigs))
	rank := 0
	for k, v := range order {
		if k > 0 && lessInts(sigs[order[k-1]], sigs[v]) {
			rank++
		}
		out[v] = rank
	}
	return out
}

func lessInts(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func countColors(colors []int) int {
	seen := make(map[int]struct{}, len(colors))
	for _, c := range colors {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// targetCell returns the smallest color shared by more than one mol, or -1
// when the coloring is discrete.
func targetCell(colors []int) int {
	size := make(map[int]int, len(colors))
	for _, c := range colors {
		size[c]++
	}
	best := -1
	for c, n := range size {
		if n > 1 && (best < 0 || c < best) {
			best = c
		}
	}
	return best
}

// canonicalRefine explores the individualization-refinement tree and keeps
// the leaf whose serialization is smallest.  The tree depends only on the
// structure, so the chosen serialization is invariant under relabeling.
func (c *colored) canonicalRefine() (OutputState, Permutation) {
	var best OutputState
	var bestPos Permutation
	var walk func(colors []int)
	walk = func(colors []int) {
		colors = c.refine(colors)
		cell := targetCell(colors)
		if cell < 0 {
			pos := Permutation(colors)
			st := c.outputState(pos)
			if bestPos == nil || compare(st, best) < 0 {
				best, bestPos = st, pos.Clone()
			}
			return
		}
		for v, col := range colors {
			if col != cell {
				continue
			}
			next := make([]int, len(colors))
			for u, cu := range colors {
				next[u] = 2 * cu
				if cu == cell && u != v {
					next[u]++
				}
			}
			walk(next)
		}
	}
	walk(c.initialColors())
	return best, bestPos
}

// canonicalExhaustive tries every ordering that keeps mols within their
// initial color cell and keeps the smallest serialization.
func (c *colored) canonicalExhaustive() (OutputState, Permutation, error) {
	colors := c.initialColors()
	base := make([]int, len(colors))
	for i := range base {
		base[i] = i
	}
	sort.SliceStable(base, func(i, j int) bool { return colors[base[i]] < colors[base[j]] })

	var signature []int
	for k, v := range base {
		if k == 0 || colors[base[k-1]] != colors[v] {
			signature = append(signature, 0)
		}
		signature[len(signature)-1]++
	}
	perms, err := PermutationsMatchingSignature(signature)
	if err != nil {
		return OutputState{}, nil, err
	}

	var best OutputState
	var bestPos Permutation
	for _, perm := range perms {
		pos := make(Permutation, len(base))
		for k, v := range base {
			pos[v] = perm[k]
		}
		st := c.outputState(pos)
		if bestPos == nil || compare(st, best) < 0 {
			best, bestPos = st, pos
		}
	}
	return best, bestPos, nil
}
