package model

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/plexnet/internal/config"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/internal/infrastructure/catalog"
	"github.com/turtacn/plexnet/internal/testutil"
	"github.com/turtacn/plexnet/pkg/errors"
)

func TestOpen_RedisCatalog(t *testing.T) {
	mr := miniredis.RunT(t)
	w := testutil.NewKinaseWorld(t)

	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Catalog.Redis.Enabled = true
	cfg.Catalog.Redis.Addr = mr.Addr()

	m, err := Open(cfg, w.Mols, testutil.NewMockLogger())
	require.NoError(t, err)
	defer m.Close()
	require.Len(t, m.sinks, 1)
	assert.Equal(t, catalog.SinkRedis, m.sinks[0].Name())
	assert.NotNil(t, m.MetricsHandler())

	_, err = m.DeclareSpecies(plex.MustGraph([]*mol.MolType{w.Kin}, nil), nil, 4)
	require.NoError(t, err)
	require.NoError(t, m.Flush(context.Background()))

	assert.Equal(t, "4", mr.HGet("plexnet:species:___3Kin______", "population"))
	members, err := mr.Members("plexnet:model:" + m.ID() + ":species")
	require.NoError(t, err)
	assert.Equal(t, []string{"___3Kin______"}, members)
}

func TestOpen_KafkaCatalog(t *testing.T) {
	w := testutil.NewKinaseWorld(t)
	cfg := config.Default()
	cfg.Catalog.Kafka.Enabled = true

	m, err := Open(cfg, w.Mols, testutil.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, m.sinks, 1)
	assert.Equal(t, catalog.SinkKafka, m.sinks[0].Name())
	assert.Nil(t, m.MetricsHandler())
	assert.NoError(t, m.Close())
}

func TestOpen_Rejects(t *testing.T) {
	w := testutil.NewKinaseWorld(t)

	cfg := config.Default()
	cfg.Engine.NamingStrategy = "bogus"
	_, err := Open(cfg, w.Mols, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg = config.Default()
	cfg.Catalog.Redis.Enabled = true
	cfg.Catalog.Redis.Addr = addr
	_, err = Open(cfg, w.Mols, testutil.NewMockLogger())
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogConnect))
}
