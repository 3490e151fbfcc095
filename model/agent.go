package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

type AgentMode string

const (
	AgentModeEmmie           AgentMode = "emmie"
	AgentModeOpenAIAssistant AgentMode = "openai_assistant"
)

// assistantIDPattern OpenAI Assistant ID 的合法形态
var assistantIDPattern = regexp.MustCompile(`^asst_[A-Za-z0-9]{8,}$`)

func IsValidAssistantID(id string) bool {
	return assistantIDPattern.MatchString(id)
}

// ProtectedAgentIDs 系统默认 Agent，禁止删除
var ProtectedAgentIDs = map[uint]bool{
	1: true,
	2: true,
}

// Agent 可配置的对话角色，绑定系统提示词与路由模式
type Agent struct {
	ID                     uint      `gorm:"primarykey" json:"id"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	OrgID                  string    `gorm:"not null;index" json:"org_id"`
	Name                   string    `gorm:"not null" json:"name"`
	Department             string    `gorm:"not null" json:"department"`
	Description            string    `gorm:"type:text" json:"description"`
	SystemPrompt           string    `gorm:"type:text;not null" json:"system_prompt"`
	BackgroundInstructions string    `gorm:"type:text" json:"background_instructions"`
	Color                  string    `json:"color"`
	Icon                   string    `json:"icon"`
	IsActive               bool      `gorm:"not null;default:true" json:"is_active"`
	AgentMode              AgentMode `gorm:"not null;default:emmie" json:"agent_mode"`
	OpenAIAssistantID      string    `json:"openai_assistant_id"`
}

func (Agent) TableName() string {
	return "chat_agents"
}

// ConfigurationError 配置记录不合法，保存时拒绝，不允许进入路由
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Validate 校验 Agent 配置，assistant 模式必须携带合法的 assistant id
func (a *Agent) Validate() error {
	if a.Name == "" {
		return &ConfigurationError{Field: "name", Reason: "is required"}
	}
	if a.Department == "" {
		return &ConfigurationError{Field: "department", Reason: "is required"}
	}
	if a.SystemPrompt == "" {
		return &ConfigurationError{Field: "system_prompt", Reason: "is required"}
	}

	switch a.AgentMode {
	case AgentModeEmmie:
	case AgentModeOpenAIAssistant:
		if a.OpenAIAssistantID == "" {
			return &ConfigurationError{Field: "openai_assistant_id", Reason: "is required for openai_assistant mode"}
		}
		if !assistantIDPattern.MatchString(a.OpenAIAssistantID) {
			return &ConfigurationError{Field: "openai_assistant_id", Reason: "does not match the expected asst_ shape"}
		}
	default:
		return &ConfigurationError{Field: "agent_mode", Reason: fmt.Sprintf("must be one of %q, %q", AgentModeEmmie, AgentModeOpenAIAssistant)}
	}

	return nil
}

type ToolType string

const (
	ToolTypeFunction        ToolType = "function"
	ToolTypeCodeInterpreter ToolType = "code_interpreter"
	ToolTypeFileSearch      ToolType = "file_search"
)

// Tool 可分配给 Agent 的能力定义
type Tool struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OrgID       string    `gorm:"not null;index" json:"org_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        ToolType  `gorm:"not null" json:"type"`

	// function 类型工具的 JSON 参数 schema
	Parameters json.RawMessage `gorm:"type:json" json:"parameters"`
}

func (Tool) TableName() string {
	return "tool_definitions"
}

// Validate 校验 Tool 配置
func (t *Tool) Validate() error {
	if t.Name == "" {
		return &ConfigurationError{Field: "name", Reason: "is required"}
	}
	switch t.Type {
	case ToolTypeFunction, ToolTypeCodeInterpreter, ToolTypeFileSearch:
	default:
		return &ConfigurationError{Field: "type", Reason: fmt.Sprintf("must be one of %q, %q, %q", ToolTypeFunction, ToolTypeCodeInterpreter, ToolTypeFileSearch)}
	}
	return nil
}

// AgentTool Agent 与 Tool 的多对多分配关系
type AgentTool struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	AgentID   uint      `gorm:"not null;uniqueIndex:idx_agent_tool" json:"agent_id"`
	ToolID    uint      `gorm:"not null;uniqueIndex:idx_agent_tool" json:"tool_id"`

	// 分配级别的个性化配置
	Config json.RawMessage `gorm:"type:json" json:"config"`
}

func (AgentTool) TableName() string {
	return "agent_tools"
}
