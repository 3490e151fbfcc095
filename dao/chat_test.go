package dao

import (
	"testing"

	"emmie-backend/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	DB = gormDB
	return mock
}

func TestUpdateChatTitleScopedToOwner(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `chats` SET `title`=(.+) WHERE org_id = (.+) AND created_by = (.+) AND chat_id = (.+)").
		WithArgs("New title", sqlmock.AnyArg(), "org-1", "owner@example.com", "chat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := UpdateChatTitle("org-1", "owner@example.com", "chat-1", "New title")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateChatTitleIfNull(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `chats` SET `title`=(.+) WHERE org_id = (.+) AND chat_id = (.+) AND title IS NULL").
		WithArgs("Trip planning", sqlmock.AnyArg(), "org-1", "chat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := UpdateChatTitleIfNull("org-1", "chat-1", "Trip planning")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateChatTitleIfNullAlreadyNamed(t *testing.T) {
	mock := newMockDB(t)

	// 已命名的会话不匹配任何行，调用仍然成功
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `chats` SET `title`=(.+) AND title IS NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := UpdateChatTitleIfNull("org-1", "chat-1", "New title")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteChatCascadesMessages(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `chats` WHERE org_id = (.+) AND created_by = (.+) AND chat_id = (.+)").
		WithArgs("org-1", "user@example.com", "chat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `messages` WHERE chat_id = (.+)").
		WithArgs("chat-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := DeleteChat("org-1", "user@example.com", "chat-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatExists(t *testing.T) {
	mock := newMockDB(t)

	columns := []string{"id", "chat_id", "org_id"}
	mock.ExpectQuery("SELECT (.+) FROM `chats` WHERE org_id = (.+) AND chat_id = (.+)").
		WithArgs("org-1", "chat-1", 1).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, "chat-1", "org-1"))

	exists, err := ChatExists("org-1", "chat-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT (.+) FROM `chats` WHERE org_id = (.+) AND chat_id = (.+)").
		WithArgs("org-1", "missing", 1).
		WillReturnRows(sqlmock.NewRows(columns))

	exists, err = ChatExists("org-1", "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMessagesByChatIDOrdersByCreatedAt(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM `messages` WHERE chat_id = (.+) ORDER BY created_at ASC").
		WithArgs("chat-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chat_id", "role"}).
			AddRow(1, "chat-1", string(model.RoleUser)).
			AddRow(2, "chat-1", string(model.RoleAssistant)))

	messages, err := GetMessagesByChatID("chat-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, model.RoleAssistant, messages[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
