package plex

// Hash constants of the linear mixing step.
const (
	hashMul uint64 = 2897564231
	hashAdd uint64 = 3248630751
)

func mix(x uint64) uint64 { return x*hashMul + hashAdd }

// HashValue returns a topological hash of g that is invariant under
// relabelling of mols and bindings and under flipping binding orientation.
// Isomorphic graphs hash equal; unequal hashes prove non-isomorphism.  The
// converse does not hold, so equal hashes only shortlist candidates for
// FindIso.
//
// Every mol seeds a depth-first walk; a walk tags each visited mol with its
// type and depth and folds in the sites on both ends of each binding it
// crosses.  The per-seed values are summed, which makes the result
// independent of mol order.
func (g *Graph) HashValue() uint64 {
	bound := g.siteToBinding()
	var total uint64
	for seed := range g.mols {
		seen := make([]bool, len(g.mols))
		total += g.hashFrom(seed, 0, seen, bound)
	}
	return total
}

func (g *Graph) hashFrom(m int, depth uint64, seen []bool, bound map[SiteSpec]int) uint64 {
	if seen[m] {
		return 0
	}
	seen[m] = true
	h := mix(mix(uint64(g.mols[m].ID())) + depth)
	for si := 0; si < g.mols[m].SiteCount(); si++ {
		here := SiteSpec{Mol: m, Site: si}
		bi, ok := bound[here]
		if !ok {
			continue
		}
		far, _ := g.bindings[bi].Other(here)
		h = mix(uint64(far.Site) + mix(uint64(si)+mix(h)))
		h = mix(g.hashFrom(far.Mol, depth+1, seen, bound) + mix(h))
	}
	return h
}
