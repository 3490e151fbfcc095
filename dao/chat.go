package dao

import (
	"errors"

	"emmie-backend/model"

	"gorm.io/gorm"
)

func CreateChat(chat *model.Chat) error {
	return DB.Create(chat).Error
}

func GetChatByID(orgID, chatID string) (*model.Chat, error) {
	var chat model.Chat
	if err := DB.Where("org_id = ? AND chat_id = ?", orgID, chatID).
		First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func ChatExists(orgID, chatID string) (bool, error) {
	_, err := GetChatByID(orgID, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func GetChatsByUser(orgID, email string) ([]model.Chat, error) {
	var chats []model.Chat
	if err := DB.Where("org_id = ? AND created_by = ?", orgID, email).
		Order("created_at DESC").
		Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

func DeleteChat(orgID, email, chatID string) error {
	// 删除会话
	err := DB.Where("org_id = ? AND created_by = ? AND chat_id = ?", orgID, email, chatID).
		Delete(&model.Chat{}).Error
	if err != nil {
		return err
	}

	// 删除会话内的消息
	err = DB.Where("chat_id = ?", chatID).
		Delete(&model.Message{}).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateChatTitle 重命名限定在会话属主，其他用户不可改名
func UpdateChatTitle(orgID, email, chatID, title string) error {
	return DB.Model(&model.Chat{}).
		Where("org_id = ? AND created_by = ? AND chat_id = ?", orgID, email, chatID).
		Update("title", title).Error
}

// UpdateChatTitleIfNull 仅在 title 仍为 NULL 时写入，避免覆盖已命名的会话
func UpdateChatTitleIfNull(orgID, chatID, title string) error {
	return DB.Model(&model.Chat{}).
		Where("org_id = ? AND chat_id = ? AND title IS NULL", orgID, chatID).
		Update("title", title).Error
}

// UpdateChatThreadID 记录 Assistants 模式下的线程ID，保证多轮复用
func UpdateChatThreadID(orgID, chatID, threadID string) error {
	return DB.Model(&model.Chat{}).
		Where("org_id = ? AND chat_id = ?", orgID, chatID).
		Update("thread_id", threadID).Error
}
