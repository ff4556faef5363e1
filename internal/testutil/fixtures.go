package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/plexnet/internal/domain/mol"
)

// KinaseWorld is a small mol definition shared by tests: a kinase
// Kin(s free|bound) and a substrate Sub(k free|bound, d) whose p
// modification site carries u (default) or p.
type KinaseWorld struct {
	Mols      *mol.Registry
	Kin, Sub  *mol.MolType
	Unphos    mol.ModID
	Phos      mol.ModID
	SubPhos   mol.MolParam
	SubUnphos mol.MolParam
}

// NewKinaseWorld defines the mols of a KinaseWorld on a fresh registry.
func NewKinaseWorld(t testing.TB) *KinaseWorld {
	t.Helper()
	m := mol.NewRegistry(nil)
	unphos, err := m.AddModification("u", 0)
	require.NoError(t, err)
	phos, err := m.AddModification("p", 80)
	require.NoError(t, err)

	kin, err := m.AddBasic("Kin", 300, []mol.SiteDef{
		{Name: "s", Shapes: []string{"free", "bound"}, Default: "free"},
	})
	require.NoError(t, err)
	sub, err := m.AddModifiable("Sub", 120,
		[]mol.SiteDef{{Name: "k", Shapes: []string{"free", "bound"}, Default: "free"}, {Name: "d"}},
		[]mol.ModSiteDef{{Name: "p", Default: "u"}})
	require.NoError(t, err)

	sp, err := m.InternModMap(sub, map[string]string{"p": "p"})
	require.NoError(t, err)
	return &KinaseWorld{
		Mols:      m,
		Kin:       kin,
		Sub:       sub,
		Unphos:    unphos,
		Phos:      phos,
		SubPhos:   sp,
		SubUnphos: sub.DefaultParam(),
	}
}
