// Package naming 异步生成会话标题。任务经 MQ 投递，由常驻 worker 消费，
// 命名失败只影响标题，绝不影响对话轮次本身。
package naming

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/service/chain"
	"emmie-backend/utils"

	"github.com/avast/retry-go/v4"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	taskChanSize = 100
	workerNum    = 4

	// 进入标题提示词的最大消息数与单条截断长度
	transcriptMaxMessages = 6
	transcriptMaxChars    = 300

	titleMaxWords = 6

	generateAttempts = 2
)

//go:embed prompts/title.txt
var titlePrompt string

type TitleTask struct {
	ChatID string
}

// Namer 会话标题生成器，低成本模型 + 固定 worker 池
type Namer struct {
	llm       llms.Model
	taskChan  chan TitleTask
	workerNum int
}

// NamerInstance 由 Init 创建的单例
var NamerInstance *Namer

func Init() error {
	httpClient := utils.DefaultHTTPClient()
	llm, err := openai.New(
		openai.WithModel(config.Cfg.Model.TierUtility),
		openai.WithToken(config.Cfg.Model.APIKey),
		openai.WithBaseURL(config.Cfg.Model.BaseURL),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return fmt.Errorf("failed to create namer llm client: %v", err)
	}

	NamerInstance = &Namer{
		llm:       llm,
		taskChan:  make(chan TitleTask, taskChanSize),
		workerNum: workerNum,
	}
	return nil
}

func (n *Namer) Run() {
	ctx := context.Background()
	for i := 1; i <= n.workerNum; i++ {
		go n.executeNaming(ctx, i)
	}
}

func (n *Namer) RegisterTask(task TitleTask) {
	n.taskChan <- task
}

func (n *Namer) executeNaming(ctx context.Context, id int) {
	slog.Info("Starting naming worker", "worker_id", id)
	defer slog.Info("Naming worker exit", "worker_id", id)

	for task := range n.taskChan {
		select {
		case <-ctx.Done():
			slog.Info("Naming worker shutting down", "worker_id", id)
			return
		default:
			if err := n.NameChat(ctx, task.ChatID); err != nil {
				// 失败时标题保持 NULL，后续轮次会再次触发
				slog.Error("Failed to name chat",
					"chat_id", task.ChatID,
					"err", err,
				)
			}
		}
	}
}

// Eligible 仅当会话已积累至少一问一答且标题仍为 NULL 时才命名。
// 判定依据是 NULL 检查，不做占位字符串匹配。
func Eligible(title *string, messageCount int64) bool {
	return title == nil && messageCount >= 2
}

// NameChat 为符合条件的会话生成并写入标题
func (n *Namer) NameChat(ctx context.Context, chatID string) error {
	orgID := config.Cfg.Org.ID

	chatRecord, err := dao.GetChatByID(orgID, chatID)
	if err != nil {
		return fmt.Errorf("failed to get chat: %v", err)
	}

	count, err := dao.CountMessagesByChatID(chatID)
	if err != nil {
		return fmt.Errorf("failed to count messages: %v", err)
	}

	if !Eligible(chatRecord.Title, count) {
		return nil
	}

	rows, err := dao.GetMessagesByChatID(chatID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %v", err)
	}

	transcript := CondenseTranscript(chain.BuildLatestMessageChain(chain.ProcessRawChatHistory(rows)))
	if transcript == "" {
		return nil
	}

	title, err := n.generateTitle(ctx, transcript)
	if err != nil {
		return fmt.Errorf("failed to generate title: %v", err)
	}
	if title == "" {
		return nil
	}

	// 仅在 title 仍为 NULL 时写入，避免与手动命名竞争
	if err := dao.UpdateChatTitleIfNull(orgID, chatID, title); err != nil {
		return fmt.Errorf("failed to persist title: %v", err)
	}

	return nil
}

func (n *Namer) generateTitle(ctx context.Context, transcript string) (string, error) {
	tmpl, err := template.New("prompt").Parse(titlePrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %v", err)
	}

	var buf bytes.Buffer
	data := struct {
		Transcript string
	}{
		Transcript: transcript,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %v", err)
	}

	// 命名调用只读幂等，失败重试一次
	resp, err := retry.DoWithData(
		func() (string, error) {
			return llms.GenerateFromSinglePrompt(ctx, n.llm, buf.String())
		},
		retry.Context(ctx),
		retry.Attempts(generateAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(attempt uint, err error) {
			slog.Warn("Retrying title generation", "attempt", attempt+1, "err", err)
		}),
	)
	if err != nil {
		return "", err
	}

	return SanitizeTitle(resp), nil
}

// CondenseTranscript 压缩会话用于命名：只取链上最近的若干条消息，
// 每条截断到固定长度
func CondenseTranscript(sequence []*chain.ChainMessage) string {
	if len(sequence) > transcriptMaxMessages {
		sequence = sequence[len(sequence)-transcriptMaxMessages:]
	}

	var sb strings.Builder
	for _, msg := range sequence {
		content := msg.ContentMD
		runes := []rune(content)
		if len(runes) > transcriptMaxChars {
			content = string(runes[:transcriptMaxChars])
		}
		if content == "" {
			continue
		}
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}

// SanitizeTitle 清理模型返回并把标题裁剪到词数上限
func SanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, "\"'`")
	title = strings.TrimSuffix(title, ".")

	if idx := strings.IndexByte(title, '\n'); idx != -1 {
		title = title[:idx]
	}

	words := strings.Fields(title)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}

	return strings.Join(words, " ")
}
