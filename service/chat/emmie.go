package chat

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/service/docsearch"
	"emmie-backend/utils"

	"github.com/gin-gonic/gin"
	mcpadapter "github.com/i2y/langchaingo-mcp-adapter"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/tools"
)

const (
	methodToolCompleted = "tool_completed"

	maxIterations = 5
)

var (
	// 配置 300s 超时时间处理 LLM 流式输出
	emmieHTTPClient *http.Client = utils.NewHTTPClient(
		utils.WithTimeout(300 * time.Second),
	)

	mcpHTTPClient *http.Client = utils.DefaultHTTPClient()
)

var (
	//go:embed prompts/conversational_format_instructions.txt
	conversationalFormatInstructions string

	//go:embed prompts/conversational_prefix.txt
	conversationalPrefix string

	//go:embed prompts/conversational_suffix.txt
	conversationalSuffix string
)

// EmmieAgent Emmie 模式的一轮对话执行器
type EmmieAgent struct {
	Executor   *agents.Executor
	MCPClient  *client.Client
	History    *ChainChatMessageHistory
	SSEHandler *GinSSEHandler
}

type EmmieParams struct {
	ChatID          string
	Agent           *model.Agent
	Query           string
	ImageURLs       []string
	OverriddenModel string

	// 重新生成时复用的用户消息ID，为 0 时本轮新增用户消息
	ReuseUserMessageID uint
}

// NewEmmieAgent 按分层路由选择模型，装配 Agent 配置的工具与会话记忆
func NewEmmieAgent(c *gin.Context, params EmmieParams) (*EmmieAgent, error) {
	modelName := SelectEmmieTier(params.Query, len(params.ImageURLs) > 0, params.OverriddenModel)

	llm, err := openai.New(
		openai.WithModel(modelName),
		openai.WithToken(config.Cfg.Model.APIKey),
		openai.WithBaseURL(config.Cfg.Model.BaseURL),
		openai.WithHTTPClient(emmieHTTPClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %v", err)
	}

	mcpClient, err := createMCPClient(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp client: %v", err)
	}

	ctx := context.Background()
	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to init connection to the mcp server: %v", err)
	}

	agentTools, err := resolveAgentTools(mcpClient, params.Agent)
	if err != nil {
		slog.Error("failed to resolve agent tools", "agent_id", params.Agent.ID, "err", err)
	}

	sseHandler := NewGinSSEHandler(c, params.ChatID)
	registerMCPClientNotifications(ctx, mcpClient, sseHandler)

	a := agents.NewConversationalAgent(llm, agentTools,
		agents.WithCallbacksHandler(sseHandler),
		agents.WithPromptPrefix(buildPromptPrefix(params.Agent)),
		agents.WithPromptFormatInstructions(conversationalFormatInstructions),
		agents.WithPromptSuffix(conversationalSuffix),
	)

	history := NewChainChatMessageHistory(params.ChatID)
	history.PendingImageURLs = params.ImageURLs
	if params.ReuseUserMessageID != 0 {
		history.MarkUserTurnSaved(params.ReuseUserMessageID)
	}

	mem := memory.NewConversationBuffer(
		memory.WithChatHistory(history),
	)

	executor := agents.NewExecutor(
		a,
		agents.WithMemory(mem),
		agents.WithMaxIterations(maxIterations),
	)

	return &EmmieAgent{
		Executor:   executor,
		MCPClient:  mcpClient,
		History:    history,
		SSEHandler: sseHandler,
	}, nil
}

// Call 先落库用户消息再执行，失败或中断时本轮提问不丢失
func (a *EmmieAgent) Call(ctx context.Context, query string) (string, error) {
	if err := a.History.SaveUserTurn(ctx, query); err != nil {
		return "", &MessageSaveError{Op: "user", Err: err}
	}

	result, err := chains.Run(ctx, a.Executor, query)
	if err != nil {
		return "", err
	}
	return result, nil
}

// FinishTurn 把本轮的工具调用结果与终止原因挂到助手消息上
func (a *EmmieAgent) FinishTurn(ctx context.Context, reason model.StopReason) error {
	if err := a.History.SetToolCalls(ctx, a.SSEHandler.ToolCalls()); err != nil {
		return err
	}
	return a.History.SetStopReason(ctx, reason)
}

// PersistPartial 客户端中断后保留已生成的部分答案
func (a *EmmieAgent) PersistPartial(ctx context.Context) error {
	partial := a.SSEHandler.FinalAnswer()
	if partial == "" {
		return nil
	}

	msg, err := SaveAssistantMessage(SaveAssistantMessageParams{
		ChatID:     a.History.ChatID,
		Content:    partial,
		StopReason: model.StopReasonCancelled,
	})
	if err != nil {
		return err
	}

	a.History.AgentMessageID = msg.ID
	return a.History.SetToolCalls(ctx, a.SSEHandler.ToolCalls())
}

func (a *EmmieAgent) Close() error {
	if a.MCPClient != nil {
		return a.MCPClient.Close()
	}
	return nil
}

func buildPromptPrefix(agent *model.Agent) string {
	var sb strings.Builder
	sb.WriteString(agent.SystemPrompt)
	if agent.BackgroundInstructions != "" {
		sb.WriteString("\n\n")
		sb.WriteString(agent.BackgroundInstructions)
	}
	sb.WriteString("\n\n")
	sb.WriteString(conversationalPrefix)
	return sb.String()
}

func createMCPClient(c *gin.Context) (*client.Client, error) {
	mcpServerPath := fmt.Sprintf("http://%s:%s/mcp", config.Cfg.MCP.Host, config.Cfg.MCP.Port)
	mcpClient, err := client.NewStreamableHttpClient(mcpServerPath,
		transport.WithHTTPBasicClient(mcpHTTPClient),
		transport.WithHTTPHeaders(map[string]string{
			"Authorization": c.GetHeader("Authorization"),
		}),
		transport.WithContinuousListening(),
	)
	if err != nil {
		return nil, err
	}
	return mcpClient, nil
}

// resolveAgentTools 把 Agent 分配的工具定义解析为可执行工具：
// function 类型按名称匹配 MCP 工具，file_search 映射到内部文档检索。
func resolveAgentTools(mcpClient *client.Client, agent *model.Agent) ([]tools.Tool, error) {
	assigned, err := dao.GetAgentTools(agent.OrgID, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent tools: %v", err)
	}
	if len(assigned) == 0 {
		return nil, nil
	}

	var functionNames []string
	needsRetrieval := false
	for _, t := range assigned {
		switch t.Type {
		case model.ToolTypeFunction:
			functionNames = append(functionNames, t.Name)
		case model.ToolTypeFileSearch:
			needsRetrieval = true
		case model.ToolTypeCodeInterpreter:
			// 代码执行同样由 MCP 服务端承载
			functionNames = append(functionNames, t.Name)
		}
	}

	var resolved []tools.Tool

	if len(functionNames) > 0 {
		mcpTools, err := getMCPTools(mcpClient, functionNames)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, mcpTools...)
	}

	if needsRetrieval {
		retrieval, err := docsearch.NewRetrievalTool(agent.OrgID)
		if err != nil {
			slog.Error("failed to create retrieval tool", "err", err)
		} else {
			resolved = append(resolved, retrieval)
		}
	}

	return resolved, nil
}

// 返回按名称过滤后的 MCP 工具
func getMCPTools(mcpClient *client.Client, toolNames []string) ([]tools.Tool, error) {
	mcpAdapter, err := mcpadapter.New(mcpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp adapter: %v", err)
	}

	mcpTools, err := mcpAdapter.Tools()
	if err != nil {
		return nil, fmt.Errorf("failed to get mcp tools: %v", err)
	}

	toolMap := make(map[string]bool)
	for _, name := range toolNames {
		toolMap[name] = true
	}

	var filteredTools []tools.Tool
	for _, tool := range mcpTools {
		if toolMap[tool.Name()] {
			filteredTools = append(filteredTools, tool)
		}
	}

	return filteredTools, nil
}

// 注册通知处理方法，接收 MCP 服务端推送的工具调用结果
func registerMCPClientNotifications(ctx context.Context, mcpClient *client.Client, sseHandler *GinSSEHandler) {
	mcpClient.OnNotification(func(notification mcp.JSONRPCNotification) {
		if notification.Method != methodToolCompleted {
			return
		}

		name, _ := notification.Params.AdditionalFields["name"].(string)
		failed, _ := notification.Params.AdditionalFields["failed"].(bool)

		results, ok := notification.Params.AdditionalFields["result"].([]any)
		if !ok {
			slog.Error("invalid tool call result type")
			return
		}

		var texts []string
		for _, res := range results {
			if content, ok := res.(map[string]any); ok {
				switch contentType := content["type"].(string); contentType {
				case "text":
					texts = append(texts, content["text"].(string))
				}
			}
		}

		sseHandler.RecordToolResult(name, texts, failed)
	})
}
