package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
	"pollgov/internal/shared/outbox"
)

// Store keeps the whole poll state in process memory behind one lock.
// Writes made in WithinTx are journaled and undone when the transaction
// function fails.
type Store struct {
	mu sync.RWMutex

	settings    entities.Settings
	nextPollID  uint64
	polls       map[uint64]entities.Poll
	titles      map[string]uint64
	updates     map[uint64]entities.PollUpdate
	commitments map[entities.VoteKey][]byte
	revealed    map[entities.VoteKey]uint32
	tallies     map[entities.TallyKey]uint64
	anomalies   map[uint64]bool
	outbox      map[string]ports.OutboxMessage
	outboxSeq   map[string]uint64
	seq         uint64
}

func NewStore(settings entities.Settings) *Store {
	return &Store{
		settings:    settings,
		polls:       make(map[uint64]entities.Poll),
		titles:      make(map[string]uint64),
		updates:     make(map[uint64]entities.PollUpdate),
		commitments: make(map[entities.VoteKey][]byte),
		revealed:    make(map[entities.VoteKey]uint32),
		tallies:     make(map[entities.TallyKey]uint64),
		anomalies:   make(map[uint64]bool),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxSeq:   make(map[string]uint64),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txRepo{store: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &txRepo{store: s, readOnly: true})
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, message := range s.outbox {
		if message.Status == outbox.StatusPending {
			items = append(items, message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return s.outboxSeq[items[i].OutboxID] < s.outboxSeq[items[j].OutboxID]
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	at := publishedAt.UTC()
	message.Status = outbox.StatusPublished
	message.PublishedAt = &at
	s.outbox[outboxID] = message
	return nil
}

// txRepo is the repository view handed to one transaction function.
type txRepo struct {
	store    *Store
	readOnly bool
	undo     []func()
}

func (t *txRepo) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txRepo) writable() error {
	if t.readOnly {
		return domainerrors.ErrReadOnly
	}
	return nil
}

func setJournaled[K comparable, V any](t *txRepo, m map[K]V, key K, value V) {
	prev, existed := m[key]
	m[key] = value
	t.undo = append(t.undo, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

func deleteJournaled[K comparable, V any](t *txRepo, m map[K]V, key K) {
	prev, existed := m[key]
	if !existed {
		return
	}
	delete(m, key)
	t.undo = append(t.undo, func() { m[key] = prev })
}

func clonePoll(poll entities.Poll) entities.Poll {
	poll.Options = append([]string(nil), poll.Options...)
	return poll
}

func (t *txRepo) GetPoll(_ context.Context, pollID uint64) (entities.Poll, bool, error) {
	poll, ok := t.store.polls[pollID]
	if !ok {
		return entities.Poll{}, false, nil
	}
	return clonePoll(poll), true, nil
}

func (t *txRepo) PutPoll(_ context.Context, poll entities.Poll) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.polls, poll.PollID, clonePoll(poll))
	return nil
}

func (t *txRepo) ExistsByTitle(_ context.Context, title string) (bool, error) {
	_, ok := t.store.titles[title]
	return ok, nil
}

func (t *txRepo) IDByTitle(_ context.Context, title string) (uint64, bool, error) {
	pollID, ok := t.store.titles[title]
	return pollID, ok, nil
}

func (t *txRepo) IndexTitle(_ context.Context, title string, pollID uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.titles, title, pollID)
	return nil
}

func (t *txRepo) DeleteTitle(_ context.Context, title string) error {
	if err := t.writable(); err != nil {
		return err
	}
	deleteJournaled(t, t.store.titles, title)
	return nil
}

func (t *txRepo) PollCount(context.Context) (uint64, error) {
	return t.store.nextPollID, nil
}

func (t *txRepo) AllocatePollID(context.Context) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	s := t.store
	if s.nextPollID >= s.settings.MaxPolls {
		return 0, domainerrors.ErrMaxPollsExceeded
	}
	pollID := s.nextPollID
	s.nextPollID++
	t.undo = append(t.undo, func() { s.nextPollID = pollID })
	return pollID, nil
}

func (t *txRepo) GetPollUpdate(_ context.Context, pollID uint64) (entities.PollUpdate, bool, error) {
	update, ok := t.store.updates[pollID]
	return update, ok, nil
}

func (t *txRepo) PutPollUpdate(_ context.Context, update entities.PollUpdate) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.updates, update.PollID, update)
	return nil
}

func (t *txRepo) GetSettings(context.Context) (entities.Settings, error) {
	return t.store.settings, nil
}

func (t *txRepo) PutSettings(_ context.Context, settings entities.Settings) error {
	if err := t.writable(); err != nil {
		return err
	}
	s := t.store
	prev := s.settings
	s.settings = settings
	t.undo = append(t.undo, func() { s.settings = prev })
	return nil
}

func (t *txRepo) GetCommitment(_ context.Context, key entities.VoteKey) ([]byte, bool, error) {
	commitment, ok := t.store.commitments[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), commitment...), true, nil
}

func (t *txRepo) PutCommitment(_ context.Context, key entities.VoteKey, commitment []byte) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.commitments, key, append([]byte(nil), commitment...))
	return nil
}

func (t *txRepo) DeleteCommitment(_ context.Context, key entities.VoteKey) error {
	if err := t.writable(); err != nil {
		return err
	}
	deleteJournaled(t, t.store.commitments, key)
	return nil
}

func (t *txRepo) GetRevealedVote(_ context.Context, key entities.VoteKey) (uint32, bool, error) {
	option, ok := t.store.revealed[key]
	return option, ok, nil
}

func (t *txRepo) PutRevealedVote(_ context.Context, key entities.VoteKey, option uint32) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.revealed, key, option)
	return nil
}

func (t *txRepo) GetTally(_ context.Context, key entities.TallyKey) (uint64, error) {
	return t.store.tallies[key], nil
}

func (t *txRepo) PutTally(_ context.Context, key entities.TallyKey, count uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.tallies, key, count)
	return nil
}

func (t *txRepo) IsAnomalous(_ context.Context, pollID uint64) (bool, error) {
	return t.store.anomalies[pollID], nil
}

func (t *txRepo) FlagAnomaly(_ context.Context, pollID uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	setJournaled(t, t.store.anomalies, pollID, true)
	return nil
}

func (t *txRepo) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	if err := t.writable(); err != nil {
		return err
	}
	s := t.store
	s.seq++
	setJournaled(t, s.outboxSeq, message.OutboxID, s.seq)
	setJournaled(t, s.outbox, message.OutboxID, message)
	return nil
}

var _ ports.UnitOfWork = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Repository = (*txRepo)(nil)
