package catalog

import (
	"context"
	"encoding/json"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

// RedisStore is the subset of the redis client the catalog uses.
type RedisStore interface {
	TxPipelined(ctx context.Context, fn func(goredis.Pipeliner) error) error
	HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd
	SMembers(ctx context.Context, key string) *goredis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Close() error
}

// RedisCatalog stores one hash per species at <prefix>species:<name> and
// indexes the names of each model in the set <prefix>model:<id>:species.
type RedisCatalog struct {
	store  RedisStore
	prefix string
	logger logging.Logger
}

// NewRedisCatalog creates a catalog over store.  keys are prefixed by prefix.
func NewRedisCatalog(store RedisStore, prefix string, logger logging.Logger) *RedisCatalog {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RedisCatalog{store: store, prefix: prefix, logger: logger.Named("catalog.redis")}
}

func (c *RedisCatalog) Name() string { return SinkRedis }

func (c *RedisCatalog) speciesKey(name string) string { return c.prefix + "species:" + name }

func (c *RedisCatalog) modelKey(modelID string) string {
	return c.prefix + "model:" + modelID + ":species"
}

// Export writes every record and its index entry in one transaction.
func (c *RedisCatalog) Export(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	fields := make([]map[string]interface{}, len(records))
	for i, r := range records {
		mols, err := json.Marshal(r.Mols)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCatalogEncode, "failed to encode mols").WithDetail(r.Name)
		}
		fields[i] = map[string]interface{}{
			"model_id":   r.ModelID,
			"species_id": r.SpeciesID,
			"family_id":  r.FamilyID,
			"name":       r.Name,
			"display":    r.Display,
			"mols":       string(mols),
			"weight":     strconv.FormatFloat(r.Weight, 'g', -1, 64),
			"population": r.Population,
		}
	}

	err := c.store.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, r := range records {
			pipe.HSet(ctx, c.speciesKey(r.Name), fields[i])
			pipe.SAdd(ctx, c.modelKey(r.ModelID), r.Name)
		}
		return nil
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeCatalogClosed) {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeCatalogWrite, "redis export failed")
	}
	c.logger.Debug("species exported", logging.Int("records", len(records)))
	return nil
}

// Lookup reads the record stored under a canonical name.  found is false
// when no such species was exported.
func (c *RedisCatalog) Lookup(ctx context.Context, name string) (Record, bool, error) {
	h, err := c.store.HGetAll(ctx, c.speciesKey(name)).Result()
	if err != nil {
		return Record{}, false, errors.Wrap(err, errors.ErrCodeCatalogWrite, "redis lookup failed")
	}
	if len(h) == 0 {
		return Record{}, false, nil
	}
	r, err := decodeHash(h)
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

// Members returns the canonical names exported for a model.
func (c *RedisCatalog) Members(ctx context.Context, modelID string) ([]string, error) {
	names, err := c.store.SMembers(ctx, c.modelKey(modelID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogWrite, "redis members failed")
	}
	return names, nil
}

// Purge removes a model's index and the species hashes it still owns.  A
// hash overwritten by another model's export is left alone.
func (c *RedisCatalog) Purge(ctx context.Context, modelID string) (int, error) {
	names, err := c.Members(ctx, modelID)
	if err != nil {
		return 0, err
	}
	keys := []string{c.modelKey(modelID)}
	for _, name := range names {
		owner, err := c.store.HGetAll(ctx, c.speciesKey(name)).Result()
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeCatalogWrite, "redis lookup failed")
		}
		if owner["model_id"] == modelID {
			keys = append(keys, c.speciesKey(name))
		}
	}
	if err := c.store.Del(ctx, keys...).Err(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeCatalogWrite, "redis purge failed")
	}
	c.logger.Info("model purged", logging.String("model_id", modelID), logging.Int("species", len(keys)-1))
	return len(keys) - 1, nil
}

func (c *RedisCatalog) Close() error { return c.store.Close() }

func decodeHash(h map[string]string) (Record, error) {
	bad := func(field string, err error) (Record, error) {
		return Record{}, errors.Wrap(err, errors.ErrCodeCatalogEncode, "corrupt catalog entry").
			WithDetailf("%s: field %s", h["name"], field)
	}
	r := Record{ModelID: h["model_id"], Name: h["name"], Display: h["display"]}
	var err error
	if r.SpeciesID, err = strconv.Atoi(h["species_id"]); err != nil {
		return bad("species_id", err)
	}
	if r.FamilyID, err = strconv.Atoi(h["family_id"]); err != nil {
		return bad("family_id", err)
	}
	if r.Population, err = strconv.Atoi(h["population"]); err != nil {
		return bad("population", err)
	}
	if r.Weight, err = strconv.ParseFloat(h["weight"], 64); err != nil {
		return bad("weight", err)
	}
	if err = json.Unmarshal([]byte(h["mols"]), &r.Mols); err != nil {
		return bad("mols", err)
	}
	return r, nil
}
