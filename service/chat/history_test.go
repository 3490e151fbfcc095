package chat

import (
	"context"
	"testing"

	"emmie-backend/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestSaveUserTurnSkipsMemoryWriteback(t *testing.T) {
	mock := newMockDB(t)
	history := NewChainChatMessageHistory("chat-1")

	// 提前落库本轮用户消息
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := history.SaveUserTurn(context.Background(), "How do I reset my VPN token?")
	require.NoError(t, err)
	assert.NotZero(t, history.UserMessageID)

	// 执行成功后记忆写回同一条消息，不产生第二次插入
	err = history.AddUserMessage(context.Background(), "How do I reset my VPN token?")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	// 下一轮的用户消息正常落库
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err = history.AddUserMessage(context.Background(), "And the guest network?")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUserTurnPersistsBeforeRun(t *testing.T) {
	mock := newMockDB(t)
	history := NewChainChatMessageHistory("chat-1")

	// 即使本轮执行失败，用户消息也已经在库
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	err := history.SaveUserTurn(context.Background(), "Summarize the Q3 report")
	require.NoError(t, err)
	assert.Equal(t, uint(7), history.UserMessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleFromChatMessageType(t *testing.T) {
	tests := []struct {
		msgType llms.ChatMessageType
		want    model.Role
	}{
		{llms.ChatMessageTypeAI, model.RoleAssistant},
		{llms.ChatMessageTypeHuman, model.RoleUser},
		{llms.ChatMessageTypeSystem, model.RoleSystem},
		{llms.ChatMessageTypeTool, model.RoleTool},
		{llms.ChatMessageTypeFunction, model.RoleTool},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roleFromChatMessageType(tt.msgType))
	}
}
