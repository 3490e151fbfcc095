package response

import (
	"encoding/json"
	"time"

	"emmie-backend/model"
)

type AgentResponse struct {
	ID                     uint            `json:"id"`
	Name                   string          `json:"name"`
	Department             string          `json:"department"`
	Description            string          `json:"description"`
	SystemPrompt           string          `json:"system_prompt"`
	BackgroundInstructions string          `json:"background_instructions"`
	Color                  string          `json:"color"`
	Icon                   string          `json:"icon"`
	IsActive               bool            `json:"is_active"`
	AgentMode              model.AgentMode `json:"agent_mode"`
	OpenAIAssistantID      string          `json:"openai_assistant_id,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

type GetAgentsResponse struct {
	Agents []AgentResponse `json:"agents"`
}

type ToolResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        model.ToolType  `json:"type"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type GetToolsResponse struct {
	Tools []ToolResponse `json:"tools"`
}
