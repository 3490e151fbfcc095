package chat

import (
	"context"
	"strings"
	"sync"

	"emmie-backend/model"
	"emmie-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/callbacks"
)

const (
	// 输出缓冲区保留的最大 rune 数
	prefixBufferMaxKeep = 10

	// 最终答案的前缀
	finalAnswerPrefix = "AI:"
)

// GinSSEHandler 基于 Gin 的回调处理器，使用 SSE 把模型输出推给客户端，
// 同时缓存最终答案与工具调用结果供落库。客户端中断时缓存内容仍可取回。
type GinSSEHandler struct {
	callbacks.SimpleHandler

	Ctx    *gin.Context
	ChatID string

	// 思考步骤
	reasoningSteps *strings.Builder

	// 最终答案
	finalAnswer *strings.Builder

	// 缓冲区，用于跨 chunk 识别最终答案的前缀
	prefixBuffer *strings.Builder

	hasFinalAnswer bool

	mu        sync.Mutex
	toolCalls []model.ToolCall
}

var _ callbacks.Handler = &GinSSEHandler{}

func NewGinSSEHandler(ctx *gin.Context, chatID string) *GinSSEHandler {
	return &GinSSEHandler{
		Ctx:            ctx,
		ChatID:         chatID,
		reasoningSteps: &strings.Builder{},
		finalAnswer:    &strings.Builder{},
		prefixBuffer:   &strings.Builder{},
	}
}

func (h *GinSSEHandler) HandleStreamingFunc(ctx context.Context, chunk []byte) {
	text := string(chunk)

	if h.hasFinalAnswer {
		h.finalAnswer.WriteString(text)
		utils.SendSSEMessage(h.Ctx, utils.EventAnswer, text)
		return
	}

	h.prefixBuffer.WriteString(text)
	bufferStr := h.prefixBuffer.String()

	if idx := strings.Index(bufferStr, finalAnswerPrefix); idx != -1 {
		// 前缀前为思考内容
		before := bufferStr[:idx]
		if len(before) > 0 {
			h.reasoningSteps.WriteString(before)
			utils.SendSSEMessage(h.Ctx, utils.EventReasoning, before)
		}

		// 前缀后为最终答案
		after := bufferStr[idx+len(finalAnswerPrefix):]
		if len(after) > 0 {
			h.finalAnswer.WriteString(after)
			utils.SendSSEMessage(h.Ctx, utils.EventAnswer, after)
		}

		h.prefixBuffer.Reset()
		h.hasFinalAnswer = true
		return
	}

	// 保留尾部少量 rune 等待前缀拼接完整，其余刷出
	if h.prefixBuffer.Len() > 0 {
		runes := []rune(bufferStr)
		if len(runes) > prefixBufferMaxKeep {
			flushText := string(runes[:len(runes)-prefixBufferMaxKeep])
			h.reasoningSteps.WriteString(flushText)
			utils.SendSSEMessage(h.Ctx, utils.EventReasoning, flushText)

			remaining := string(runes[len(runes)-prefixBufferMaxKeep:])
			h.prefixBuffer.Reset()
			h.prefixBuffer.WriteString(remaining)
		}
	}
}

// RecordToolResult 记录一次工具调用结果并推送给客户端。失败的调用同样
// 记录并推送，保证模型与用户都能看到失败的工具结果。
func (h *GinSSEHandler) RecordToolResult(name string, result []string, failed bool) {
	h.mu.Lock()
	h.toolCalls = append(h.toolCalls, model.ToolCall{
		Name:   name,
		Result: result,
		Failed: failed,
	})
	h.mu.Unlock()

	utils.SendSSEMessage(h.Ctx, utils.EventToolCallResult, strings.Join(result, "\n"))
}

// FinalAnswer 本轮已产生的最终答案，客户端中断后为已生成的部分内容
func (h *GinSSEHandler) FinalAnswer() string {
	return h.finalAnswer.String()
}

func (h *GinSSEHandler) ToolCalls() []model.ToolCall {
	h.mu.Lock()
	defer h.mu.Unlock()

	calls := make([]model.ToolCall, len(h.toolCalls))
	copy(calls, h.toolCalls)
	return calls
}
