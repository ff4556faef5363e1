package catalog

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/plexnet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/plexnet/pkg/errors"
)

type mockPublisher struct {
	batches [][]kafka.Message
	fail    int
	closed  bool
}

func (m *mockPublisher) PublishBatch(_ context.Context, msgs []kafka.Message) (*kafka.BatchResult, error) {
	m.batches = append(m.batches, msgs)
	res := &kafka.BatchResult{Succeeded: len(msgs) - m.fail, Failed: m.fail}
	for i := 0; i < m.fail; i++ {
		res.Errors = append(res.Errors, kafka.BatchItemError{Index: i, Error: stderrors.New("not leader")})
	}
	return res, nil
}

func (m *mockPublisher) Close() error {
	m.closed = true
	return nil
}

func TestKafkaCatalog_Export(t *testing.T) {
	pub := &mockPublisher{}
	c := NewKafkaCatalog(pub, 1, nil)
	recs := sampleRecords()

	require.NoError(t, c.Export(context.Background(), recs))
	require.Len(t, pub.batches, 2, "batch size splits the export")

	msg := pub.batches[1][0]
	assert.Equal(t, []byte(recs[1].Name), msg.Key)
	assert.Equal(t, kafka.EventSpeciesCreated, msg.Headers["event_type"])

	env, err := kafka.DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, "m1", env.Source)
	var got Record
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, recs[1], got)

	require.NoError(t, c.Close())
	assert.True(t, pub.closed)
}

func TestKafkaCatalog_DeliveryFailure(t *testing.T) {
	pub := &mockPublisher{fail: 1}
	c := NewKafkaCatalog(pub, 0, nil)

	err := c.Export(context.Background(), sampleRecords())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogWrite))
	assert.Len(t, pub.batches, 1)
}

func TestMemoryCatalog(t *testing.T) {
	c := NewMemoryCatalog()
	require.NoError(t, c.Export(context.Background(), sampleRecords()))
	assert.Equal(t, []string{"___3Kin3Sub___", "___3Kin______"}, c.Names())
	r, ok := c.Lookup("___3Kin______")
	require.True(t, ok)
	assert.Equal(t, 10, r.Population)
	assert.Equal(t, 1, c.Batches())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.Export(ctx, sampleRecords()))
	assert.NoError(t, c.Close())
}
