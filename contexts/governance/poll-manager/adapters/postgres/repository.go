package postgresadapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
	"pollgov/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settingsRowID = 1

type Repository struct {
	db       *gorm.DB
	logger   *slog.Logger
	defaults entities.Settings
}

// NewRepository returns a repository over db. defaults are reported as the
// settings until the first settings row is written.
func NewRepository(db *gorm.DB, defaults entities.Settings, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:       db,
		logger:   logger,
		defaults: defaults,
	}
}

// Migrate creates or updates the poll manager tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&settingsModel{},
		&pollModel{},
		&pollTitleModel{},
		&pollUpdateModel{},
		&commitmentModel{},
		&revealedVoteModel{},
		&tallyModel{},
		&anomalyModel{},
		&outboxModel{},
	)
}

func (r *Repository) withDB(db *gorm.DB) *Repository {
	return &Repository{db: db, logger: r.logger, defaults: r.defaults}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, r.withDB(tx))
	})
}

func (r *Repository) View(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, r.withDB(tx))
	}, &sql.TxOptions{ReadOnly: true})
}

func (r *Repository) GetPoll(ctx context.Context, pollID uint64) (entities.Poll, bool, error) {
	var row pollModel
	err := r.db.WithContext(ctx).Where("id = ?", pollID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, false, nil
		}
		return entities.Poll{}, false, r.logError("poll_repo_get_poll_failed", err, "poll_id", pollID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PutPoll(ctx context.Context, poll entities.Poll) error {
	row := pollModelFromEntity(poll)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return r.logError("poll_repo_put_poll_failed", err, "poll_id", poll.PollID)
	}
	return nil
}

func (r *Repository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	_, found, err := r.IDByTitle(ctx, title)
	return found, err
}

func (r *Repository) IDByTitle(ctx context.Context, title string) (uint64, bool, error) {
	var row pollTitleModel
	err := r.db.WithContext(ctx).Where("title = ?", title).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, r.logError("poll_repo_id_by_title_failed", err, "title", title)
	}
	return row.PollID, true, nil
}

func (r *Repository) IndexTitle(ctx context.Context, title string, pollID uint64) error {
	row := pollTitleModel{Title: title, PollID: pollID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrPollAlreadyExists
		}
		return r.logError("poll_repo_index_title_failed", err, "title", title, "poll_id", pollID)
	}
	return nil
}

func (r *Repository) DeleteTitle(ctx context.Context, title string) error {
	if err := r.db.WithContext(ctx).Where("title = ?", title).Delete(&pollTitleModel{}).Error; err != nil {
		return r.logError("poll_repo_delete_title_failed", err, "title", title)
	}
	return nil
}

func (r *Repository) PollCount(ctx context.Context) (uint64, error) {
	row, _, err := r.loadSettings(ctx, false)
	if err != nil {
		return 0, err
	}
	return row.NextPollID, nil
}

func (r *Repository) AllocatePollID(ctx context.Context) (uint64, error) {
	row, _, err := r.loadSettings(ctx, true)
	if err != nil {
		return 0, err
	}
	if row.NextPollID >= row.MaxPolls {
		return 0, domainerrors.ErrMaxPollsExceeded
	}
	pollID := row.NextPollID
	row.NextPollID++
	if err := r.saveSettings(ctx, row); err != nil {
		return 0, err
	}
	return pollID, nil
}

func (r *Repository) GetPollUpdate(ctx context.Context, pollID uint64) (entities.PollUpdate, bool, error) {
	var row pollUpdateModel
	err := r.db.WithContext(ctx).Where("poll_id = ?", pollID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PollUpdate{}, false, nil
		}
		return entities.PollUpdate{}, false, r.logError("poll_repo_get_update_failed", err, "poll_id", pollID)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) PutPollUpdate(ctx context.Context, update entities.PollUpdate) error {
	row := pollUpdateModelFromEntity(update)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return r.logError("poll_repo_put_update_failed", err, "poll_id", update.PollID)
	}
	return nil
}

func (r *Repository) GetSettings(ctx context.Context) (entities.Settings, error) {
	row, _, err := r.loadSettings(ctx, false)
	if err != nil {
		return entities.Settings{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) PutSettings(ctx context.Context, settings entities.Settings) error {
	row, _, err := r.loadSettings(ctx, true)
	if err != nil {
		return err
	}
	row.CreationFee = settings.CreationFee
	row.AuthorityTarget = settings.AuthorityTarget
	row.MaxPolls = settings.MaxPolls
	return r.saveSettings(ctx, row)
}

// loadSettings reads the settings row, falling back to the configured
// defaults when it has not been written yet.
func (r *Repository) loadSettings(ctx context.Context, forUpdate bool) (settingsModel, bool, error) {
	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row settingsModel
	err := tx.Where("id = ?", settingsRowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return settingsModelFromEntity(r.defaults), false, nil
		}
		return settingsModel{}, false, r.logError("poll_repo_load_settings_failed", err)
	}
	return row, true, nil
}

func (r *Repository) saveSettings(ctx context.Context, row settingsModel) error {
	row.ID = settingsRowID
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return r.logError("poll_repo_save_settings_failed", err)
	}
	return nil
}

func (r *Repository) GetCommitment(ctx context.Context, key entities.VoteKey) ([]byte, bool, error) {
	var row commitmentModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND voter = ?", key.PollID, key.Voter).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, r.logError("poll_repo_get_commitment_failed", err, "poll_id", key.PollID, "voter", key.Voter)
	}
	return row.Commitment, true, nil
}

func (r *Repository) PutCommitment(ctx context.Context, key entities.VoteKey, commitment []byte) error {
	row := commitmentModel{PollID: key.PollID, Voter: key.Voter, Commitment: commitment}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("poll_repo_put_commitment_failed", err, "poll_id", key.PollID, "voter", key.Voter)
	}
	return nil
}

func (r *Repository) DeleteCommitment(ctx context.Context, key entities.VoteKey) error {
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND voter = ?", key.PollID, key.Voter).
		Delete(&commitmentModel{}).
		Error
	if err != nil {
		return r.logError("poll_repo_delete_commitment_failed", err, "poll_id", key.PollID, "voter", key.Voter)
	}
	return nil
}

func (r *Repository) GetRevealedVote(ctx context.Context, key entities.VoteKey) (uint32, bool, error) {
	var row revealedVoteModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND voter = ?", key.PollID, key.Voter).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, r.logError("poll_repo_get_revealed_vote_failed", err, "poll_id", key.PollID, "voter", key.Voter)
	}
	return row.OptionIndex, true, nil
}

func (r *Repository) PutRevealedVote(ctx context.Context, key entities.VoteKey, option uint32) error {
	row := revealedVoteModel{PollID: key.PollID, Voter: key.Voter, OptionIndex: option}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("poll_repo_put_revealed_vote_failed", err, "poll_id", key.PollID, "voter", key.Voter)
	}
	return nil
}

func (r *Repository) GetTally(ctx context.Context, key entities.TallyKey) (uint64, error) {
	var row tallyModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND option_index = ?", key.PollID, key.Option).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("poll_repo_get_tally_failed", err, "poll_id", key.PollID, "option", key.Option)
	}
	return row.Count, nil
}

func (r *Repository) PutTally(ctx context.Context, key entities.TallyKey, count uint64) error {
	row := tallyModel{PollID: key.PollID, OptionIndex: key.Option, Count: count}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "option_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"count"}),
	}).Create(&row).Error
	if err != nil {
		return r.logError("poll_repo_put_tally_failed", err, "poll_id", key.PollID, "option", key.Option)
	}
	return nil
}

func (r *Repository) IsAnomalous(ctx context.Context, pollID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&anomalyModel{}).Where("poll_id = ?", pollID).Count(&count).Error
	if err != nil {
		return false, r.logError("poll_repo_is_anomalous_failed", err, "poll_id", pollID)
	}
	return count > 0, nil
}

func (r *Repository) FlagAnomaly(ctx context.Context, pollID uint64) error {
	row := anomalyModel{PollID: pollID, FlaggedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return r.logError("poll_repo_flag_anomaly_failed", err, "poll_id", pollID)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, message ports.OutboxMessage) error {
	row := outboxModelFromMessage(message)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("poll_repo_append_outbox_failed", err, "outbox_id", message.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC, outbox_id ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("poll_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
	if err != nil {
		return r.logError("poll_repo_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := []any{
		"event", event,
		"module", "governance/poll-manager",
		"layer", "adapter",
		"error", err.Error(),
	}
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.UnitOfWork = (*Repository)(nil)
var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
