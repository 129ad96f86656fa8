package boltadapter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"pollgov/contexts/governance/poll-manager/ports"

	bolt "go.etcd.io/bbolt"
)

var ErrHeightRegressed = errors.New("block height is below the last recorded height")

var heightKey = []byte("last_height")

// HeightClock reports a height supplied by the operator and keeps the
// highest height used against the store, so separate processes sharing
// one file never observe the height moving backwards.
type HeightClock struct {
	store  *Store
	height uint64
}

func (s *Store) HeightClock(height uint64) HeightClock {
	return HeightClock{store: s, height: height}
}

// CurrentHeight fails with ErrHeightRegressed when height is lower than a
// height already recorded. Otherwise height becomes the recorded height.
func (c HeightClock) CurrentHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	err := c.store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSettings)
		if last := bucket.Get(heightKey); last != nil {
			recorded := binary.BigEndian.Uint64(last)
			if c.height < recorded {
				return fmt.Errorf("%w: requested %d, recorded %d", ErrHeightRegressed, c.height, recorded)
			}
		}
		return bucket.Put(heightKey, u64Key(c.height))
	})
	if err != nil {
		return 0, c.store.logError("bolt_height_rejected", err, "height", c.height)
	}
	return c.height, nil
}

// LastHeight returns the highest recorded height, or false when no
// operation has run against the store yet.
func (s *Store) LastHeight() (uint64, bool, error) {
	var (
		height uint64
		found  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		if last := tx.Bucket(bucketSettings).Get(heightKey); last != nil {
			height, found = binary.BigEndian.Uint64(last), true
		}
		return nil
	})
	return height, found, err
}

var _ ports.Clock = HeightClock{}
