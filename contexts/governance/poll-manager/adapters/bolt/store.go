package boltadapter

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
	"pollgov/internal/shared/outbox"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSettings    = []byte("settings")
	bucketPolls       = []byte("polls")
	bucketTitles      = []byte("poll_titles")
	bucketUpdates     = []byte("poll_updates")
	bucketCommitments = []byte("commitments")
	bucketRevealed    = []byte("revealed_votes")
	bucketTallies     = []byte("tallies")
	bucketAnomalies   = []byte("anomalies")
	bucketOutbox      = []byte("outbox")
	bucketOutboxIndex = []byte("outbox_index")

	settingsKey = []byte("current")

	allBuckets = [][]byte{
		bucketSettings,
		bucketPolls,
		bucketTitles,
		bucketUpdates,
		bucketCommitments,
		bucketRevealed,
		bucketTallies,
		bucketAnomalies,
		bucketOutbox,
		bucketOutboxIndex,
	}
)

var DefaultOptions = &bolt.Options{
	// open timeout when file is locked by another pollctl
	Timeout:      time.Second,
	FreelistType: bolt.FreelistMapType,
}

// Store persists poll state in a single bbolt file. Every WithinTx call is
// one bolt read-write transaction.
type Store struct {
	db       *bolt.DB
	defaults entities.Settings
	logger   *slog.Logger
}

type settingsRecord struct {
	CreationFee     uint64 `json:"creation_fee"`
	AuthorityTarget string `json:"authority_target"`
	MaxPolls        uint64 `json:"max_polls"`
	NextPollID      uint64 `json:"next_poll_id"`
}

func Open(path string, defaults entities.Settings, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := bolt.Open(path, 0o600, DefaultOptions)
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, defaults: defaults, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(ctx, &txRepo{tx: tx, defaults: s.defaults})
	})
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(ctx, &txRepo{tx: tx, defaults: s.defaults})
	})
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	items := make([]ports.OutboxMessage, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketOutbox).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var message ports.OutboxMessage
			if err := json.Unmarshal(v, &message); err != nil {
				return fmt.Errorf("decode outbox row: %w", err)
			}
			if message.Status != outbox.StatusPending {
				continue
			}
			items = append(items, message)
			if limit > 0 && len(items) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.logError("bolt_list_pending_outbox_failed", err)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		seq := tx.Bucket(bucketOutboxIndex).Get([]byte(outboxID))
		if seq == nil {
			return nil
		}
		rows := tx.Bucket(bucketOutbox)
		var message ports.OutboxMessage
		if err := json.Unmarshal(rows.Get(seq), &message); err != nil {
			return fmt.Errorf("decode outbox row: %w", err)
		}
		at := publishedAt.UTC()
		message.Status = outbox.StatusPublished
		message.PublishedAt = &at
		return putJSON(rows, seq, message)
	})
	if err != nil {
		return s.logError("bolt_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (s *Store) logError(event string, err error, attrs ...any) error {
	fields := []any{
		"event", event,
		"module", "governance/poll-manager",
		"layer", "adapter",
		"error", err.Error(),
	}
	fields = append(fields, attrs...)
	s.logger.Error("bolt store operation failed", fields...)
	return err
}

type txRepo struct {
	tx       *bolt.Tx
	defaults entities.Settings
}

func (t *txRepo) writable() error {
	if !t.tx.Writable() {
		return domainerrors.ErrReadOnly
	}
	return nil
}

func (t *txRepo) GetPoll(_ context.Context, pollID uint64) (entities.Poll, bool, error) {
	var poll entities.Poll
	found, err := getJSON(t.tx.Bucket(bucketPolls), u64Key(pollID), &poll)
	return poll, found, err
}

func (t *txRepo) PutPoll(_ context.Context, poll entities.Poll) error {
	if err := t.writable(); err != nil {
		return err
	}
	return putJSON(t.tx.Bucket(bucketPolls), u64Key(poll.PollID), poll)
}

func (t *txRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	_, found, err := t.IDByTitle(ctx, title)
	return found, err
}

func (t *txRepo) IDByTitle(_ context.Context, title string) (uint64, bool, error) {
	value := t.tx.Bucket(bucketTitles).Get([]byte(title))
	if value == nil {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(value), true, nil
}

func (t *txRepo) IndexTitle(_ context.Context, title string, pollID uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.Bucket(bucketTitles).Put([]byte(title), u64Key(pollID))
}

func (t *txRepo) DeleteTitle(_ context.Context, title string) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.Bucket(bucketTitles).Delete([]byte(title))
}

func (t *txRepo) PollCount(context.Context) (uint64, error) {
	record, err := t.loadSettings()
	if err != nil {
		return 0, err
	}
	return record.NextPollID, nil
}

func (t *txRepo) AllocatePollID(context.Context) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	record, err := t.loadSettings()
	if err != nil {
		return 0, err
	}
	if record.NextPollID >= record.MaxPolls {
		return 0, domainerrors.ErrMaxPollsExceeded
	}
	pollID := record.NextPollID
	record.NextPollID++
	if err := putJSON(t.tx.Bucket(bucketSettings), settingsKey, record); err != nil {
		return 0, err
	}
	return pollID, nil
}

func (t *txRepo) GetPollUpdate(_ context.Context, pollID uint64) (entities.PollUpdate, bool, error) {
	var update entities.PollUpdate
	found, err := getJSON(t.tx.Bucket(bucketUpdates), u64Key(pollID), &update)
	return update, found, err
}

func (t *txRepo) PutPollUpdate(_ context.Context, update entities.PollUpdate) error {
	if err := t.writable(); err != nil {
		return err
	}
	return putJSON(t.tx.Bucket(bucketUpdates), u64Key(update.PollID), update)
}

func (t *txRepo) GetSettings(context.Context) (entities.Settings, error) {
	record, err := t.loadSettings()
	if err != nil {
		return entities.Settings{}, err
	}
	return entities.Settings{
		CreationFee:     record.CreationFee,
		AuthorityTarget: record.AuthorityTarget,
		MaxPolls:        record.MaxPolls,
	}, nil
}

func (t *txRepo) PutSettings(_ context.Context, settings entities.Settings) error {
	if err := t.writable(); err != nil {
		return err
	}
	record, err := t.loadSettings()
	if err != nil {
		return err
	}
	record.CreationFee = settings.CreationFee
	record.AuthorityTarget = settings.AuthorityTarget
	record.MaxPolls = settings.MaxPolls
	return putJSON(t.tx.Bucket(bucketSettings), settingsKey, record)
}

func (t *txRepo) loadSettings() (settingsRecord, error) {
	record := settingsRecord{
		CreationFee:     t.defaults.CreationFee,
		AuthorityTarget: t.defaults.AuthorityTarget,
		MaxPolls:        t.defaults.MaxPolls,
	}
	if _, err := getJSON(t.tx.Bucket(bucketSettings), settingsKey, &record); err != nil {
		return settingsRecord{}, err
	}
	return record, nil
}

func (t *txRepo) GetCommitment(_ context.Context, key entities.VoteKey) ([]byte, bool, error) {
	value := t.tx.Bucket(bucketCommitments).Get(voteKey(key))
	if value == nil {
		return nil, false, nil
	}
	// bolt values are only valid for the life of the transaction
	return append([]byte(nil), value...), true, nil
}

func (t *txRepo) PutCommitment(_ context.Context, key entities.VoteKey, commitment []byte) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.Bucket(bucketCommitments).Put(voteKey(key), append([]byte(nil), commitment...))
}

func (t *txRepo) DeleteCommitment(_ context.Context, key entities.VoteKey) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.Bucket(bucketCommitments).Delete(voteKey(key))
}

func (t *txRepo) GetRevealedVote(_ context.Context, key entities.VoteKey) (uint32, bool, error) {
	value := t.tx.Bucket(bucketRevealed).Get(voteKey(key))
	if value == nil {
		return 0, false, nil
	}
	return binary.BigEndian.Uint32(value), true, nil
}

func (t *txRepo) PutRevealedVote(_ context.Context, key entities.VoteKey, option uint32) error {
	if err := t.writable(); err != nil {
		return err
	}
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, option)
	return t.tx.Bucket(bucketRevealed).Put(voteKey(key), value)
}

func (t *txRepo) GetTally(_ context.Context, key entities.TallyKey) (uint64, error) {
	value := t.tx.Bucket(bucketTallies).Get(tallyKey(key))
	if value == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(value), nil
}

func (t *txRepo) PutTally(_ context.Context, key entities.TallyKey, count uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.Bucket(bucketTallies).Put(tallyKey(key), u64Key(count))
}

func (t *txRepo) IsAnomalous(_ context.Context, pollID uint64) (bool, error) {
	return t.tx.Bucket(bucketAnomalies).Get(u64Key(pollID)) != nil, nil
}

func (t *txRepo) FlagAnomaly(_ context.Context, pollID uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.Bucket(bucketAnomalies).Put(u64Key(pollID), []byte{1})
}

func (t *txRepo) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	if err := t.writable(); err != nil {
		return err
	}
	rows := t.tx.Bucket(bucketOutbox)
	seq, err := rows.NextSequence()
	if err != nil {
		return err
	}
	key := u64Key(seq)
	if err := putJSON(rows, key, message); err != nil {
		return err
	}
	return t.tx.Bucket(bucketOutboxIndex).Put([]byte(message.OutboxID), key)
}

func u64Key(value uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, value)
	return key
}

// voteKey is the 8-byte big-endian poll id followed by the voter principal.
func voteKey(key entities.VoteKey) []byte {
	return append(u64Key(key.PollID), key.Voter...)
}

func tallyKey(key entities.TallyKey) []byte {
	out := u64Key(key.PollID)
	return binary.BigEndian.AppendUint32(out, key.Option)
}

func getJSON(bucket *bolt.Bucket, key []byte, out any) (bool, error) {
	value := bucket.Get(key)
	if value == nil {
		return false, nil
	}
	if err := json.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("decode %x: %w", key, err)
	}
	return true, nil
}

func putJSON(bucket *bolt.Bucket, key []byte, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return bucket.Put(key, payload)
}

var _ ports.UnitOfWork = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Repository = (*txRepo)(nil)
