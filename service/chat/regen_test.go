package chat

import (
	"context"
	"testing"

	"emmie-backend/model"
	"emmie-backend/service/chain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainMsg(id int64, role model.Role) *chain.ChainMessage {
	return &chain.ChainMessage{MessageID: id, Role: role}
}

func TestLastUserTurn(t *testing.T) {
	sequence := []*chain.ChainMessage{
		chainMsg(1, model.RoleUser),
		chainMsg(2, model.RoleAssistant),
		chainMsg(3, model.RoleUser),
		chainMsg(4, model.RoleAssistant),
		chainMsg(5, model.RoleError),
	}

	lastUser, superseded := LastUserTurn(sequence)
	require.NotNil(t, lastUser)
	assert.Equal(t, int64(3), lastUser.MessageID)
	// 末尾用户消息之后的旧回复与错误消息都被取代
	assert.Equal(t, []uint{4, 5}, superseded)
}

func TestLastUserTurnNoTrailingReplies(t *testing.T) {
	sequence := []*chain.ChainMessage{
		chainMsg(1, model.RoleUser),
		chainMsg(2, model.RoleAssistant),
		chainMsg(3, model.RoleUser),
	}

	lastUser, superseded := LastUserTurn(sequence)
	require.NotNil(t, lastUser)
	assert.Equal(t, int64(3), lastUser.MessageID)
	assert.Empty(t, superseded)
}

func TestLastUserTurnNoUserMessage(t *testing.T) {
	sequence := []*chain.ChainMessage{
		chainMsg(1, model.RoleSystem),
		chainMsg(2, model.RoleAssistant),
	}

	lastUser, superseded := LastUserTurn(sequence)
	assert.Nil(t, lastUser)
	assert.Nil(t, superseded)
}

func TestMarkUserTurnSavedReusesExistingRow(t *testing.T) {
	mock := newMockDB(t)
	history := NewChainChatMessageHistory("chat-1")
	history.MarkUserTurnSaved(42)

	// 复用已有行：执行前后均不新增用户消息
	err := history.SaveUserTurn(context.Background(), "Summarize the Q3 report")
	require.NoError(t, err)
	err = history.AddUserMessage(context.Background(), "Summarize the Q3 report")
	require.NoError(t, err)

	assert.Equal(t, uint(42), history.UserMessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
