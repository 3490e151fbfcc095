package request

import "encoding/json"

type CreateAgentRequest struct {
	Name                   string `json:"name" binding:"required"`
	Department             string `json:"department" binding:"required"`
	Description            string `json:"description"`
	SystemPrompt           string `json:"system_prompt" binding:"required"`
	BackgroundInstructions string `json:"background_instructions"`
	Color                  string `json:"color"`
	Icon                   string `json:"icon"`
	AgentMode              string `json:"agent_mode"`
	OpenAIAssistantID      string `json:"openai_assistant_id"`
}

type UpdateAgentRequest struct {
	Name                   string `json:"name" binding:"required"`
	Department             string `json:"department" binding:"required"`
	Description            string `json:"description"`
	SystemPrompt           string `json:"system_prompt" binding:"required"`
	BackgroundInstructions string `json:"background_instructions"`
	Color                  string `json:"color"`
	Icon                   string `json:"icon"`
	IsActive               *bool  `json:"is_active"`
	AgentMode              string `json:"agent_mode"`
	OpenAIAssistantID      string `json:"openai_assistant_id"`
}

type CreateToolRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Type        string          `json:"type" binding:"required"`
	Parameters  json.RawMessage `json:"parameters"`
}

type UpdateToolRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Type        string          `json:"type" binding:"required"`
	Parameters  json.RawMessage `json:"parameters"`
}

type AssignToolRequest struct {
	ToolID uint            `json:"tool_id" binding:"required"`
	Config json.RawMessage `json:"config"`
}
