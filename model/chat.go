package model

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"

	// 上游调用失败时以 error 角色落库，保留失败轮次
	RoleError Role = "error"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeMixed MessageType = "mixed"
)

type StopReason string

const (
	StopReasonCompleted StopReason = "completed"
	StopReasonCancelled StopReason = "cancelled"
)

// Chat 会话元数据，title 在首轮对话完成前为 NULL
type Chat struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ChatID    string    `gorm:"not null;uniqueIndex" json:"chat_id"`
	OrgID     string    `gorm:"not null;index" json:"org_id"`
	AgentID   uint      `json:"agent_id"`
	ProjectID string    `json:"project_id"`
	Mode      string    `json:"mode"`
	CreatedBy string    `gorm:"not null;index" json:"created_by"`
	Title     *string   `json:"title"`

	// OpenAI Assistants 模式下复用的线程ID
	ThreadID string `json:"thread_id"`
}

func (Chat) TableName() string {
	return "chats"
}

// Message 建立联合索引 (chat_id, created_at)
type Message struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time       `gorm:"index:idx_chat_created" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ChatID          string          `gorm:"not null;index:idx_chat_created" json:"chat_id"`
	Role            Role            `gorm:"not null" json:"role"`
	ContentMD       string          `gorm:"column:content_md;type:text" json:"content_md"`
	Model           string          `json:"model"`
	MessageType     MessageType     `gorm:"not null;default:text" json:"message_type"`
	Attachments     json.RawMessage `gorm:"type:json" json:"attachments"`
	ToolCalls       json.RawMessage `gorm:"type:json" json:"tool_calls"`
	Citations       json.RawMessage `gorm:"type:json" json:"citations"`
	StopReason      StopReason      `json:"stop_reason"`
	OverriddenModel string          `json:"overridden_model"`
}

func (Message) TableName() string {
	return "messages"
}

type AttachmentType string

const (
	AttachmentTypeImage    AttachmentType = "image"
	AttachmentTypeDocument AttachmentType = "document"
)

type Attachment struct {
	Type        AttachmentType `json:"type"`
	URL         string         `json:"url,omitempty"`
	StoragePath string         `json:"storage_path,omitempty"`
	Format      string         `json:"format,omitempty"`

	// document 类型附件关联的文档ID
	DocumentID string `json:"document_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

type ToolCall struct {
	Name string `json:"name"`

	Arguments json.RawMessage `json:"arguments,omitempty"`

	// 每次工具调用返回一组结果
	Result []string `json:"result,omitempty"`

	Failed bool `json:"failed,omitempty"`
}

// GeneratedImage 模型生成的图片，已转存至对象存储
type GeneratedImage struct {
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
	Format      string `json:"format"`
}

type FeedbackRating string

const (
	FeedbackLike    FeedbackRating = "like"
	FeedbackDislike FeedbackRating = "dislike"
)

// FeedbackCategories 预定义的反馈分类
var FeedbackCategories = []string{
	"inaccurate",
	"incomplete",
	"off_topic",
	"harmful",
	"other",
}

type Feedback struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	OrgID     string         `gorm:"not null;index" json:"org_id"`
	ChatID    string         `gorm:"not null;index" json:"chat_id"`
	MessageID uint           `gorm:"not null;index" json:"message_id"`
	UserEmail string         `gorm:"not null" json:"user_email"`
	Rating    FeedbackRating `gorm:"not null" json:"rating"`
	Comment   string         `gorm:"type:text" json:"comment"`
	Category  string         `json:"category"`
}

func (Feedback) TableName() string {
	return "message_feedback"
}
