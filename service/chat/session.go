package chat

import (
	"encoding/json"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"

	"github.com/google/uuid"
)

type CreateOrGetChatParams struct {
	ChatID    string
	ProjectID string
	AgentID   uint
	Mode      string
	UserEmail string
}

// CreateOrGetChat 已有 ChatID 时原样返回，否则新建一条 title 为 NULL 的会话
func CreateOrGetChat(params CreateOrGetChatParams) (string, error) {
	if params.ChatID != "" {
		return params.ChatID, nil
	}

	newChat := model.Chat{
		ChatID:    uuid.New().String(),
		OrgID:     config.Cfg.Org.ID,
		AgentID:   params.AgentID,
		ProjectID: params.ProjectID,
		Mode:      params.Mode,
		CreatedBy: params.UserEmail,
		Title:     nil,
	}
	if err := dao.CreateChat(&newChat); err != nil {
		return "", &ChatCreationError{Err: err}
	}

	return newChat.ChatID, nil
}

type SaveUserMessageParams struct {
	ChatID          string
	ContentMD       string
	HasImages       bool
	ImageURLs       []string
	OverriddenModel string
}

// SaveUserMessage 保存用户消息，携带图片时转为附件并标记 mixed 类型
func SaveUserMessage(params SaveUserMessageParams) (*model.Message, error) {
	msg := model.Message{
		ChatID:          params.ChatID,
		Role:            model.RoleUser,
		ContentMD:       params.ContentMD,
		MessageType:     model.MessageTypeText,
		OverriddenModel: params.OverriddenModel,
	}

	if params.HasImages && len(params.ImageURLs) > 0 {
		attachments := make([]model.Attachment, 0, len(params.ImageURLs))
		for _, url := range params.ImageURLs {
			attachments = append(attachments, model.Attachment{
				Type: model.AttachmentTypeImage,
				URL:  url,
			})
		}

		attachmentsJSON, err := json.Marshal(attachments)
		if err != nil {
			return nil, &MessageSaveError{Op: "user", Err: err}
		}
		msg.Attachments = attachmentsJSON
		msg.MessageType = model.MessageTypeMixed
	}

	if err := dao.CreateMessage(&msg); err != nil {
		return nil, &MessageSaveError{Op: "user", Err: err}
	}

	return &msg, nil
}

type SaveAssistantMessageParams struct {
	ChatID     string
	Content    string
	Model      string
	Images     []model.GeneratedImage
	ToolCalls  []model.ToolCall
	Citations  map[string]string
	StopReason model.StopReason
}

// SaveAssistantMessage 保存助手消息。message_type 依据文本与生成图片的组合
// 推导为 mixed / image / text。
func SaveAssistantMessage(params SaveAssistantMessageParams) (*model.Message, error) {
	msg := model.Message{
		ChatID:      params.ChatID,
		Role:        model.RoleAssistant,
		ContentMD:   params.Content,
		Model:       params.Model,
		MessageType: deriveMessageType(params.Content, params.Images),
		StopReason:  params.StopReason,
	}

	if len(params.Images) > 0 {
		attachments := make([]model.Attachment, 0, len(params.Images))
		for _, img := range params.Images {
			attachments = append(attachments, model.Attachment{
				Type:        model.AttachmentTypeImage,
				URL:         img.URL,
				StoragePath: img.StoragePath,
				Format:      img.Format,
			})
		}

		attachmentsJSON, err := json.Marshal(attachments)
		if err != nil {
			return nil, &MessageSaveError{Op: "assistant", Err: err}
		}
		msg.Attachments = attachmentsJSON
	}

	if len(params.ToolCalls) > 0 {
		toolCallsJSON, err := json.Marshal(params.ToolCalls)
		if err != nil {
			return nil, &MessageSaveError{Op: "assistant", Err: err}
		}
		msg.ToolCalls = toolCallsJSON
	}

	if len(params.Citations) > 0 {
		citationsJSON, err := json.Marshal(params.Citations)
		if err != nil {
			return nil, &MessageSaveError{Op: "assistant", Err: err}
		}
		msg.Citations = citationsJSON
	}

	if err := dao.CreateMessage(&msg); err != nil {
		return nil, &MessageSaveError{Op: "assistant", Err: err}
	}

	return &msg, nil
}

func deriveMessageType(content string, images []model.GeneratedImage) model.MessageType {
	switch {
	case content != "" && len(images) > 0:
		return model.MessageTypeMixed
	case len(images) > 0:
		return model.MessageTypeImage
	default:
		return model.MessageTypeText
	}
}

// SaveErrorMessage 上游调用失败时以 error 角色落库，保留失败轮次
func SaveErrorMessage(chatID, content string) (*model.Message, error) {
	msg := model.Message{
		ChatID:      chatID,
		Role:        model.RoleError,
		ContentMD:   content,
		MessageType: model.MessageTypeText,
	}
	if err := dao.CreateMessage(&msg); err != nil {
		return nil, &MessageSaveError{Op: "error", Err: err}
	}
	return &msg, nil
}

type FeedbackParams struct {
	ChatID    string
	MessageID uint
	UserEmail string
	Rating    model.FeedbackRating
	Comment   string
	Category  string
}

// SaveFeedback 记录点赞/点踩与可选的分类、备注
func SaveFeedback(params FeedbackParams) error {
	return dao.CreateFeedback(&model.Feedback{
		OrgID:     config.Cfg.Org.ID,
		ChatID:    params.ChatID,
		MessageID: params.MessageID,
		UserEmail: params.UserEmail,
		Rating:    params.Rating,
		Comment:   params.Comment,
		Category:  params.Category,
	})
}
