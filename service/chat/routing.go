package chat

import (
	"strings"

	"emmie-backend/config"
	"emmie-backend/model"
)

type Backend string

const (
	// BackendEmmie 自有多级模型管线
	BackendEmmie Backend = "emmie"

	// BackendOpenAIAssistant 托管的 Assistants API
	BackendOpenAIAssistant Backend = "openai_assistant"
)

// 触发最强模型的提示词长度阈值（字符数）
const longPromptThreshold = 1500

// 代码类任务的启发式信号
var codeSignals = []string{"```", "func ", "def ", "class ", "import ", "SELECT ", "CREATE TABLE"}

// SelectBackend 按 Agent 配置选择后端。assistant 模式的配置优先于任何
// 显式选择的模型；assistant id 缺失或形态非法时硬失败为配置错误，
// 不允许静默降级到 Emmie 模式。
func SelectBackend(agent *model.Agent) (Backend, error) {
	if agent.AgentMode != model.AgentModeOpenAIAssistant && agent.OpenAIAssistantID == "" {
		return BackendEmmie, nil
	}

	if agent.OpenAIAssistantID == "" {
		return "", &model.ConfigurationError{
			Field:  "openai_assistant_id",
			Reason: "is required for openai_assistant mode",
		}
	}
	if !model.IsValidAssistantID(agent.OpenAIAssistantID) {
		return "", &model.ConfigurationError{
			Field:  "openai_assistant_id",
			Reason: "does not match the expected asst_ shape",
		}
	}

	return BackendOpenAIAssistant, nil
}

// SelectEmmieTier 在 Emmie 模式下按成本/能力分层选择模型：
// 带图片的请求走多模态层，长提示或代码类任务走最强层，其余走快速层。
// 显式指定的模型覆盖启发式结果。
func SelectEmmieTier(query string, hasImages bool, overriddenModel string) string {
	if overriddenModel != "" {
		return overriddenModel
	}

	tiers := config.Cfg.Model
	if hasImages {
		return tiers.TierMultimodal
	}

	if len(query) > longPromptThreshold {
		return tiers.TierMax
	}
	for _, signal := range codeSignals {
		if strings.Contains(query, signal) {
			return tiers.TierMax
		}
	}

	return tiers.TierFast
}
