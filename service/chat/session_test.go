package chat

import (
	"testing"

	"emmie-backend/config"
	"emmie-backend/dao"
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

	dao.DB = gormDB
	return mock
}

func TestCreateOrGetChatPassThrough(t *testing.T) {
	chatID, err := CreateOrGetChat(CreateOrGetChatParams{
		ChatID:    "existing-chat",
		UserEmail: "user@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "existing-chat", chatID)
}

func TestCreateOrGetChatCreatesNew(t *testing.T) {
	mock := newMockDB(t)

	prev := config.Cfg.Org.ID
	config.Cfg.Org.ID = "org-test"
	t.Cleanup(func() {
		config.Cfg.Org.ID = prev
	})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chats`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	chatID, err := CreateOrGetChat(CreateOrGetChatParams{
		AgentID:   3,
		UserEmail: "user@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetChatWrapsStorageError(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chats`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := CreateOrGetChat(CreateOrGetChatParams{
		AgentID:   3,
		UserEmail: "user@example.com",
	})
	var creationErr *ChatCreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Contains(t, err.Error(), "failed to create chat session")
}

func TestSaveUserMessageWithImages(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := SaveUserMessage(SaveUserMessageParams{
		ChatID:    "chat-1",
		ContentMD: "what is in this picture",
		HasImages: true,
		ImageURLs: []string{"https://example.com/a.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, msg.Role)
	assert.Equal(t, model.MessageTypeMixed, msg.MessageType)
	assert.NotEmpty(t, msg.Attachments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveErrorMessage(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `messages`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	msg, err := SaveErrorMessage("chat-1", "upstream provider unavailable")
	require.NoError(t, err)
	assert.Equal(t, model.RoleError, msg.Role)
	assert.Equal(t, "upstream provider unavailable", msg.ContentMD)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeriveMessageType(t *testing.T) {
	images := []model.GeneratedImage{{URL: "https://example.com/a.png"}}

	assert.Equal(t, model.MessageTypeText, deriveMessageType("hello", nil))
	assert.Equal(t, model.MessageTypeImage, deriveMessageType("", images))
	assert.Equal(t, model.MessageTypeMixed, deriveMessageType("hello", images))
}
