package postgresadapter

import (
	"errors"
	"fmt"
	"testing"

	"pollgov/contexts/governance/poll-manager/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollModelDoesNotAliasOptions(t *testing.T) {
	poll := entities.Poll{
		PollID:     3,
		Title:      "Budget",
		Options:    []string{"yes", "no"},
		Status:     entities.PollStatusOpen,
		StartBlock: 10,
		EndBlock:   20,
	}

	row := pollModelFromEntity(poll)
	poll.Options[0] = "changed"

	restored := row.toEntity()
	require.Equal(t, []string{"yes", "no"}, restored.Options)
	assert.Equal(t, uint64(3), restored.PollID)
	assert.Equal(t, entities.PollStatusOpen, restored.Status)
	assert.Equal(t, uint64(20), restored.EndBlock)
}

func TestSettingsModelIgnoresAllocatorState(t *testing.T) {
	row := settingsModelFromEntity(entities.Settings{CreationFee: 5, AuthorityTarget: "SP1", MaxPolls: 2})
	row.NextPollID = 2

	assert.Equal(t, settingsRowID, row.ID)
	assert.Equal(t, entities.Settings{CreationFee: 5, AuthorityTarget: "SP1", MaxPolls: 2}, row.toEntity())
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, isUniqueViolation(wrapped))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
