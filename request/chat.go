package request

// ChatRequest 一轮对话请求。chat_id 为空时由服务端新建会话
type ChatRequest struct {
	ChatID          string   `json:"chat_id"`
	AgentID         uint     `json:"agent_id" binding:"required"`
	Query           string   `json:"query" binding:"required"`
	ImageURLs       []string `json:"image_urls"`
	OverriddenModel string   `json:"overridden_model"`
	ProjectID       string   `json:"project_id"`
	Mode            string   `json:"mode"`
}

type CreateChatRequest struct {
	AgentID   uint   `json:"agent_id" binding:"required"`
	ProjectID string `json:"project_id"`
	Mode      string `json:"mode"`
}

type UpdateChatTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

type FeedbackRequest struct {
	MessageID  uint     `json:"message_id" binding:"required"`
	Rating     string   `json:"rating" binding:"required,oneof=like dislike"`
	Categories []string `json:"categories"`
	Comment    string   `json:"comment"`
}
