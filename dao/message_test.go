package dao

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteMessagesByIDs(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `messages` WHERE chat_id = (.+) AND id IN (.+)").
		WithArgs("chat-1", 4, 5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := DeleteMessagesByIDs("chat-1", []uint{4, 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMessagesByIDsEmpty(t *testing.T) {
	mock := newMockDB(t)

	// 没有被取代的消息时不发起删除
	err := DeleteMessagesByIDs("chat-1", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
