package dao

import (
	"emmie-backend/model"
)

func CreateMessage(msg *model.Message) error {
	return DB.Create(msg).Error
}

func GetMessagesByChatID(chatID string) ([]model.Message, error) {
	var messages []model.Message
	if err := DB.Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func GetMessageByID(messageID uint) (*model.Message, error) {
	var message model.Message
	if err := DB.Where("id = ?", messageID).
		First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func CountMessagesByChatID(chatID string) (int64, error) {
	var count int64
	if err := DB.Model(&model.Message{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteMessagesByIDs 移除被新回复取代的消息
func DeleteMessagesByIDs(chatID string, messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return DB.Where("chat_id = ? AND id IN ?", chatID, messageIDs).
		Delete(&model.Message{}).Error
}

func CreateFeedback(feedback *model.Feedback) error {
	return DB.Create(feedback).Error
}
