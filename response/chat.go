package response

import (
	"time"

	"emmie-backend/model"
)

type ChatResponse struct {
	ChatID    string    `json:"chat_id"`
	AgentID   uint      `json:"agent_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetChatsResponse struct {
	Chats []ChatResponse `json:"chats"`
}

// MessageResponse 激活分支上的一条消息
type MessageResponse struct {
	MessageID       int64              `json:"message_id"`
	Role            model.Role         `json:"role"`
	ContentMD       string             `json:"content_md"`
	Model           string             `json:"model,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	ParentMessageID *int64             `json:"parent_message_id"`
	Documents       []model.Attachment `json:"documents,omitempty"`
	Files           []model.Attachment `json:"files,omitempty"`
	ToolCalls       []model.ToolCall   `json:"tool_calls,omitempty"`
	CitedDocuments  []CitedDocument    `json:"cited_documents,omitempty"`
	StopReason      model.StopReason   `json:"stop_reason,omitempty"`
	OverriddenModel string             `json:"overridden_model,omitempty"`
}

type CitedDocument struct {
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	URL      string `json:"url,omitempty"`
}

type GetChatMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type GenerateTitleResponse struct {
	Title string `json:"title"`
}
