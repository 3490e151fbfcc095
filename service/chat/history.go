package chat

import (
	"context"
	"encoding/json"

	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/service/chain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"gorm.io/gorm"
)

const historyLimit = 200

// ChainChatMessageHistory 把会话的当前激活分支作为模型记忆回放。
// 消息先经 chain 包重建再线性化，保证重新生成后只回放最新分支。
type ChainChatMessageHistory struct {
	DB     *gorm.DB
	ChatID string
	Limit  int

	// 用户本轮携带的图片，随下一条用户消息一并落库
	PendingImageURLs []string

	// 本轮落库的助手消息ID
	AgentMessageID uint

	// 本轮落库的用户消息ID
	UserMessageID uint

	// 用户消息在调用模型前已提前落库，记忆写回时跳过一次重复保存
	userTurnSaved bool
}

var _ schema.ChatMessageHistory = &ChainChatMessageHistory{}

func NewChainChatMessageHistory(chatID string) *ChainChatMessageHistory {
	return &ChainChatMessageHistory{
		DB:     dao.DB,
		ChatID: chatID,
		Limit:  historyLimit,
	}
}

// Messages 加载记忆时回放链上的最新路径，而非原始行序
func (h *ChainChatMessageHistory) Messages(ctx context.Context) ([]llms.ChatMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []model.Message
	result := h.DB.WithContext(ctx).
		Where("chat_id = ?", h.ChatID).
		Order("created_at ASC").
		Limit(h.Limit).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	sequence := chain.BuildLatestMessageChain(chain.ProcessRawChatHistory(rows))

	var msgs []llms.ChatMessage
	for _, msg := range sequence {
		// 本轮的用户消息作为输入传入，不再随历史重复回放
		if h.UserMessageID != 0 && msg.MessageID == int64(h.UserMessageID) {
			continue
		}
		switch msg.Role {
		case model.RoleAssistant:
			msgs = append(msgs, llms.AIChatMessage{Content: msg.ContentMD})
		case model.RoleUser:
			msgs = append(msgs, llms.HumanChatMessage{Content: msg.ContentMD})
		}
	}

	return msgs, nil
}

func (h *ChainChatMessageHistory) AddMessage(ctx context.Context, message llms.ChatMessage) error {
	return h.addMessage(ctx, message.GetContent(), message.GetType())
}

func (h *ChainChatMessageHistory) AddAIMessage(ctx context.Context, text string) error {
	return h.addMessage(ctx, text, llms.ChatMessageTypeAI)
}

func (h *ChainChatMessageHistory) AddUserMessage(ctx context.Context, text string) error {
	return h.addMessage(ctx, text, llms.ChatMessageTypeHuman)
}

// SaveUserTurn 在模型调用开始前保存本轮用户消息，
// 调用失败或中断时用户消息依然在库。之后记忆写回同一条消息时不再落库。
func (h *ChainChatMessageHistory) SaveUserTurn(ctx context.Context, text string) error {
	if h.userTurnSaved {
		return nil
	}
	if err := h.addMessage(ctx, text, llms.ChatMessageTypeHuman); err != nil {
		return err
	}
	h.userTurnSaved = true
	return nil
}

// MarkUserTurnSaved 复用库中已有的用户消息作为本轮提问，不再新增行
func (h *ChainChatMessageHistory) MarkUserTurnSaved(id uint) {
	h.UserMessageID = id
	h.userTurnSaved = true
}

func (h *ChainChatMessageHistory) addMessage(ctx context.Context, text string, role llms.ChatMessageType) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch role {
	case llms.ChatMessageTypeAI:
		msg, err := SaveAssistantMessage(SaveAssistantMessageParams{
			ChatID:  h.ChatID,
			Content: text,
		})
		if err != nil {
			return err
		}
		h.AgentMessageID = msg.ID

	case llms.ChatMessageTypeHuman:
		if h.userTurnSaved {
			h.userTurnSaved = false
			return nil
		}
		msg, err := SaveUserMessage(SaveUserMessageParams{
			ChatID:    h.ChatID,
			ContentMD: text,
			HasImages: len(h.PendingImageURLs) > 0,
			ImageURLs: h.PendingImageURLs,
		})
		if err != nil {
			return err
		}
		h.UserMessageID = msg.ID
		h.PendingImageURLs = nil

	default:
		msg := model.Message{
			ChatID:      h.ChatID,
			Role:        roleFromChatMessageType(role),
			ContentMD:   text,
			MessageType: model.MessageTypeText,
		}
		return h.DB.WithContext(ctx).Create(&msg).Error
	}

	return nil
}

// roleFromChatMessageType 统一把 llms 的消息类型映射到库中的角色枚举
func roleFromChatMessageType(t llms.ChatMessageType) model.Role {
	switch t {
	case llms.ChatMessageTypeAI:
		return model.RoleAssistant
	case llms.ChatMessageTypeHuman:
		return model.RoleUser
	case llms.ChatMessageTypeSystem:
		return model.RoleSystem
	case llms.ChatMessageTypeTool, llms.ChatMessageTypeFunction:
		return model.RoleTool
	default:
		return model.RoleSystem
	}
}

func (h *ChainChatMessageHistory) Clear(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	result := h.DB.WithContext(ctx).
		Where("chat_id = ?", h.ChatID).
		Delete(&model.Message{})

	return result.Error
}

func (h *ChainChatMessageHistory) SetMessages(ctx context.Context, messages []llms.ChatMessage) error {
	if ctx == nil {
		ctx = context.Background()
	}

	return h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Where("chat_id = ?", h.ChatID).
			Delete(&model.Message{}).Error; err != nil {
			return err
		}

		var rows []model.Message
		for _, msg := range messages {
			rows = append(rows, model.Message{
				ChatID:      h.ChatID,
				Role:        roleFromChatMessageType(msg.GetType()),
				ContentMD:   msg.GetContent(),
				MessageType: model.MessageTypeText,
			})
		}

		if len(rows) > 0 {
			if err := tx.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// SetToolCalls 把本轮工具调用结果挂到助手消息上
func (h *ChainChatMessageHistory) SetToolCalls(ctx context.Context, toolCalls []model.ToolCall) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if h.AgentMessageID == 0 || len(toolCalls) == 0 {
		return nil
	}

	toolCallsJSON, err := json.Marshal(toolCalls)
	if err != nil {
		return err
	}

	return h.DB.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", h.AgentMessageID).
		Update("tool_calls", json.RawMessage(toolCallsJSON)).Error
}

// SetStopReason 标记本轮助手消息的终止原因
func (h *ChainChatMessageHistory) SetStopReason(ctx context.Context, reason model.StopReason) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if h.AgentMessageID == 0 {
		return nil
	}

	return h.DB.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", h.AgentMessageID).
		Update("stop_reason", reason).Error
}
