package postgresadapter

import (
	"time"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	"pollgov/contexts/governance/poll-manager/ports"
)

type settingsModel struct {
	ID              int    `gorm:"column:id;primaryKey;autoIncrement:false"`
	CreationFee     uint64 `gorm:"column:creation_fee"`
	AuthorityTarget string `gorm:"column:authority_target"`
	MaxPolls        uint64 `gorm:"column:max_polls"`
	NextPollID      uint64 `gorm:"column:next_poll_id"`
}

func (settingsModel) TableName() string {
	return "poll_manager_settings"
}

func settingsModelFromEntity(settings entities.Settings) settingsModel {
	return settingsModel{
		ID:              settingsRowID,
		CreationFee:     settings.CreationFee,
		AuthorityTarget: settings.AuthorityTarget,
		MaxPolls:        settings.MaxPolls,
	}
}

func (m settingsModel) toEntity() entities.Settings {
	return entities.Settings{
		CreationFee:     m.CreationFee,
		AuthorityTarget: m.AuthorityTarget,
		MaxPolls:        m.MaxPolls,
	}
}

type pollModel struct {
	ID          uint64   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Title       string   `gorm:"column:title"`
	Options     []string `gorm:"column:options;serializer:json"`
	Duration    uint64   `gorm:"column:duration"`
	Quorum      uint64   `gorm:"column:quorum"`
	VotingType  string   `gorm:"column:voting_type"`
	Anonymity   bool     `gorm:"column:anonymity"`
	PollType    string   `gorm:"column:poll_type"`
	RewardRate  uint64   `gorm:"column:reward_rate"`
	GracePeriod uint64   `gorm:"column:grace_period"`
	Location    string   `gorm:"column:location"`
	Category    string   `gorm:"column:category"`
	MinStake    uint64   `gorm:"column:min_stake"`
	MaxVotes    uint64   `gorm:"column:max_votes"`
	Status      string   `gorm:"column:status"`
	Creator     string   `gorm:"column:creator"`
	Timestamp   uint64   `gorm:"column:created_height"`
	StartBlock  uint64   `gorm:"column:start_block"`
	EndBlock    uint64   `gorm:"column:end_block"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromEntity(poll entities.Poll) pollModel {
	return pollModel{
		ID:          poll.PollID,
		Title:       poll.Title,
		Options:     append([]string(nil), poll.Options...),
		Duration:    poll.Duration,
		Quorum:      poll.Quorum,
		VotingType:  string(poll.VotingType),
		Anonymity:   poll.Anonymity,
		PollType:    string(poll.PollType),
		RewardRate:  poll.RewardRate,
		GracePeriod: poll.GracePeriod,
		Location:    poll.Location,
		Category:    string(poll.Category),
		MinStake:    poll.MinStake,
		MaxVotes:    poll.MaxVotes,
		Status:      string(poll.Status),
		Creator:     poll.Creator,
		Timestamp:   poll.Timestamp,
		StartBlock:  poll.StartBlock,
		EndBlock:    poll.EndBlock,
	}
}

func (m pollModel) toEntity() entities.Poll {
	return entities.Poll{
		PollID:      m.ID,
		Title:       m.Title,
		Options:     append([]string(nil), m.Options...),
		Duration:    m.Duration,
		Quorum:      m.Quorum,
		VotingType:  entities.VotingType(m.VotingType),
		Anonymity:   m.Anonymity,
		PollType:    entities.PollType(m.PollType),
		RewardRate:  m.RewardRate,
		GracePeriod: m.GracePeriod,
		Location:    m.Location,
		Category:    entities.Category(m.Category),
		MinStake:    m.MinStake,
		MaxVotes:    m.MaxVotes,
		Status:      entities.PollStatus(m.Status),
		Creator:     m.Creator,
		Timestamp:   m.Timestamp,
		StartBlock:  m.StartBlock,
		EndBlock:    m.EndBlock,
	}
}

type pollTitleModel struct {
	Title  string `gorm:"column:title;primaryKey"`
	PollID uint64 `gorm:"column:poll_id;index"`
}

func (pollTitleModel) TableName() string {
	return "poll_titles"
}

type pollUpdateModel struct {
	PollID    uint64 `gorm:"column:poll_id;primaryKey;autoIncrement:false"`
	Title     string `gorm:"column:title"`
	Duration  uint64 `gorm:"column:duration"`
	Quorum    uint64 `gorm:"column:quorum"`
	Timestamp uint64 `gorm:"column:updated_height"`
	Updater   string `gorm:"column:updater"`
}

func (pollUpdateModel) TableName() string {
	return "poll_updates"
}

func pollUpdateModelFromEntity(update entities.PollUpdate) pollUpdateModel {
	return pollUpdateModel{
		PollID:    update.PollID,
		Title:     update.Title,
		Duration:  update.Duration,
		Quorum:    update.Quorum,
		Timestamp: update.Timestamp,
		Updater:   update.Updater,
	}
}

func (m pollUpdateModel) toEntity() entities.PollUpdate {
	return entities.PollUpdate{
		PollID:    m.PollID,
		Title:     m.Title,
		Duration:  m.Duration,
		Quorum:    m.Quorum,
		Timestamp: m.Timestamp,
		Updater:   m.Updater,
	}
}

type commitmentModel struct {
	PollID     uint64 `gorm:"column:poll_id;primaryKey;autoIncrement:false"`
	Voter      string `gorm:"column:voter;primaryKey"`
	Commitment []byte `gorm:"column:commitment"`
}

func (commitmentModel) TableName() string {
	return "poll_commitments"
}

type revealedVoteModel struct {
	PollID      uint64 `gorm:"column:poll_id;primaryKey;autoIncrement:false"`
	Voter       string `gorm:"column:voter;primaryKey"`
	OptionIndex uint32 `gorm:"column:option_index"`
}

func (revealedVoteModel) TableName() string {
	return "poll_revealed_votes"
}

type tallyModel struct {
	PollID      uint64 `gorm:"column:poll_id;primaryKey;autoIncrement:false"`
	OptionIndex uint32 `gorm:"column:option_index;primaryKey;autoIncrement:false"`
	Count       uint64 `gorm:"column:count"`
}

func (tallyModel) TableName() string {
	return "poll_tallies"
}

type anomalyModel struct {
	PollID    uint64    `gorm:"column:poll_id;primaryKey;autoIncrement:false"`
	FlaggedAt time.Time `gorm:"column:flagged_at"`
}

func (anomalyModel) TableName() string {
	return "poll_anomalies"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "poll_outbox"
}

func outboxModelFromMessage(message ports.OutboxMessage) outboxModel {
	return outboxModel{
		OutboxID:     message.OutboxID,
		EventType:    message.EventType,
		PartitionKey: message.PartitionKey,
		Payload:      message.Payload,
		Status:       message.Status,
		CreatedAt:    message.CreatedAt.UTC(),
		PublishedAt:  message.PublishedAt,
	}
}

func (m outboxModel) toMessage() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      m.Payload,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		PublishedAt:  m.PublishedAt,
	}
}
