package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/grid"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapper"
)

// RedisStore keeps records in Redis.
//
// Records are msgpack encoded maps stored under `<prefix>:record:<form>:<id>`.
// The row ids of a grid are kept in insertion order in the list
// `<prefix>:grid:<form>:<parent>`.
type RedisStore struct {
	client redis.UniversalClient
	cfg    config
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	return &RedisStore{client: client, cfg: newConfig(opts)}
}

// NewRedisClient creates a client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) recordKey(formID, id string) string {
	return fmt.Sprintf("%s:record:%s:%s", s.cfg.prefix, formID, id)
}

func (s *RedisStore) gridKey(formID, parentID string) string {
	return fmt.Sprintf("%s:grid:%s:%s", s.cfg.prefix, formID, parentID)
}

// SaveRecord implements Submitter.
func (s *RedisStore) SaveRecord(ctx context.Context, formID, id string, record mapper.Record) error {
	data, err := msgpack.Marshal(map[string]string(record))
	if err != nil {
		return errors.WrapKind(errors.KindFormSubmission, err, component, "SaveRecord", "encode record")
	}

	if err := s.client.Set(ctx, s.recordKey(formID, id), data, 0).Err(); err != nil {
		return errors.WrapKind(errors.KindFormSubmission, err, component, "SaveRecord",
			fmt.Sprintf("save %s/%s", formID, id))
	}

	return nil
}

// maxTxRetries is how often ReplaceGridRows retries when the row list changes
// between its read and its write.
const maxTxRetries = 3

// ReplaceGridRows implements Submitter. The row list is watched while the old
// rows are read, and the delete and the inserts run in one transaction.
func (s *RedisStore) ReplaceGridRows(ctx context.Context, dest grid.Destination, parentID string, rows []mapper.Record) error {
	listKey := s.gridKey(dest.FormID, parentID)
	stamped := stampRows(rows, dest, parentID, s.cfg.newID)

	encoded := make([][]byte, len(stamped))
	for i, row := range stamped {
		var err error
		if encoded[i], err = msgpack.Marshal(map[string]string(row)); err != nil {
			return errors.WrapKind(errors.KindFormSubmission, err, component, "ReplaceGridRows", "encode row")
		}
	}

	replace := func(tx *redis.Tx) error {
		old, err := tx.LRange(ctx, listKey, 0, -1).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, id := range old {
				pipe.Del(ctx, s.recordKey(dest.FormID, id))
			}

			pipe.Del(ctx, listKey)

			for i, row := range stamped {
				id := row[RowIDField]
				pipe.Set(ctx, s.recordKey(dest.FormID, id), encoded[i], 0)
				pipe.RPush(ctx, listKey, id)
			}

			return nil
		})

		return err
	}

	var err error
	for range maxTxRetries {
		err = s.client.Watch(ctx, replace, listKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	if err != nil {
		return errors.WrapKind(errors.KindFormSubmission, err, component, "ReplaceGridRows",
			"replace rows of "+dest.Grid)
	}

	return nil
}

// Record implements Store.
func (s *RedisStore) Record(ctx context.Context, formID, id string) (mapper.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(formID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, errors.Wrap(err, component, "Record", "read record")
	}

	return decodeRecord(data)
}

// GridRows implements Store.
func (s *RedisStore) GridRows(ctx context.Context, dest grid.Destination, parentID string) ([]mapper.Record, error) {
	ids, err := s.client.LRange(ctx, s.gridKey(dest.FormID, parentID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, component, "GridRows", "read row ids")
	}

	out := make([]mapper.Record, 0, len(ids))

	for _, id := range ids {
		row, err := s.Record(ctx, dest.FormID, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		out = append(out, row)
	}

	return out, nil
}

func decodeRecord(data []byte) (mapper.Record, error) {
	var m map[string]string
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, component, "Record", "decode record")
	}

	return mapper.Record(m), nil
}
