package chat

import (
	"context"
	"fmt"
	"time"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/utils"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

// 轮询 run 状态的间隔与上限
const (
	runPollInterval = time.Second
	runPollTimeout  = 5 * time.Minute
)

// AssistantAgent OpenAI Assistants 模式的一轮对话。线程ID持久化在会话上，
// 多轮复用同一线程而不是每条消息新建。
type AssistantAgent struct {
	Client  *openai.Client
	Chat    *model.Chat
	Agent   *model.Agent
	History *ChainChatMessageHistory

	ginCtx *gin.Context
}

func NewAssistantAgent(c *gin.Context, chatRecord *model.Chat, agent *model.Agent) *AssistantAgent {
	return &AssistantAgent{
		Client:  openai.NewClient(config.Cfg.OpenAI.APIKey),
		Chat:    chatRecord,
		Agent:   agent,
		History: NewChainChatMessageHistory(chatRecord.ChatID),
		ginCtx:  c,
	}
}

// Call 执行一轮 assistant 对话：确保线程、投递用户消息、等待 run 完成、
// 取回回复并落库。
func (a *AssistantAgent) Call(ctx context.Context, query string) (string, error) {
	if err := a.History.AddUserMessage(ctx, query); err != nil {
		return "", err
	}

	threadID, err := a.ensureThread(ctx)
	if err != nil {
		return "", err
	}

	_, err = a.Client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to add message to thread: %v", err)
	}

	run, err := a.Client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: a.Agent.OpenAIAssistantID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create run: %v", err)
	}

	run, err = a.waitForRun(ctx, threadID, run.ID)
	if err != nil {
		return "", err
	}

	answer, err := a.latestAssistantReply(ctx, threadID, run.ID)
	if err != nil {
		return "", err
	}

	utils.SendSSEMessage(a.ginCtx, utils.EventAnswer, answer)

	if err := a.History.AddAIMessage(ctx, answer); err != nil {
		return "", err
	}
	if err := a.History.SetStopReason(ctx, model.StopReasonCompleted); err != nil {
		return "", err
	}

	return answer, nil
}

func (a *AssistantAgent) ensureThread(ctx context.Context) (string, error) {
	if a.Chat.ThreadID != "" {
		return a.Chat.ThreadID, nil
	}

	thread, err := a.Client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create assistant thread: %v", err)
	}

	if err := dao.UpdateChatThreadID(a.Chat.OrgID, a.Chat.ChatID, thread.ID); err != nil {
		return "", fmt.Errorf("failed to persist thread id: %v", err)
	}

	a.Chat.ThreadID = thread.ID
	return thread.ID, nil
}

func (a *AssistantAgent) waitForRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	deadline := time.Now().Add(runPollTimeout)
	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// 客户端中断时同步取消 run
			cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := a.Client.CancelRun(cancelCtx, threadID, runID); err != nil {
				cancel()
				return openai.Run{}, fmt.Errorf("run cancelled, cancel request failed: %v", err)
			}
			cancel()
			return openai.Run{}, ctx.Err()

		case <-ticker.C:
			run, err := a.Client.RetrieveRun(ctx, threadID, runID)
			if err != nil {
				return openai.Run{}, fmt.Errorf("failed to retrieve run: %v", err)
			}

			switch run.Status {
			case openai.RunStatusCompleted:
				return run, nil
			case openai.RunStatusQueued, openai.RunStatusInProgress:
				if time.Now().After(deadline) {
					return openai.Run{}, fmt.Errorf("run %s timed out", runID)
				}
			case openai.RunStatusRequiresAction:
				return openai.Run{}, fmt.Errorf("run %s requires client-side tool outputs, which is not supported", runID)
			default:
				reason := string(run.Status)
				if run.LastError != nil {
					reason = fmt.Sprintf("%s: %s", run.Status, run.LastError.Message)
				}
				return openai.Run{}, fmt.Errorf("run %s did not complete: %s", runID, reason)
			}
		}
	}
}

func (a *AssistantAgent) latestAssistantReply(ctx context.Context, threadID, runID string) (string, error) {
	limit := 1
	order := "desc"
	msgs, err := a.Client.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return "", fmt.Errorf("failed to list thread messages: %v", err)
	}

	if len(msgs.Messages) == 0 {
		return "", fmt.Errorf("run %s produced no messages", runID)
	}

	for _, content := range msgs.Messages[0].Content {
		if content.Text != nil {
			return content.Text.Value, nil
		}
	}

	return "", fmt.Errorf("run %s produced no text content", runID)
}
