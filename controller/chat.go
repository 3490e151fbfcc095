package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/request"
	"emmie-backend/response"
	"emmie-backend/service/chain"
	"emmie-backend/service/chat"
	"emmie-backend/service/mq"
	"emmie-backend/service/naming"
	"emmie-backend/utils"

	"github.com/gin-gonic/gin"
)

func AgentChat(c *gin.Context) {
	utils.SetSSEHeaders(c)

	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrParseRequest)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	agentRecord, err := dao.GetAgentByID(config.Cfg.Org.ID, req.AgentID)
	if err != nil || !agentRecord.IsActive {
		slog.Error(ErrAgentNotFound.Error(), "agent_id", req.AgentID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrAgentNotFound)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	// 路由前置校验，配置非法时硬失败，不静默降级
	backend, err := chat.SelectBackend(agentRecord)
	if err != nil {
		slog.Error(ErrCallAgent.Error(), "agent_id", agentRecord.ID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, err.Error())
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	email := c.GetString("email")
	chatID, err := chat.CreateOrGetChat(chat.CreateOrGetChatParams{
		ChatID:    req.ChatID,
		ProjectID: req.ProjectID,
		AgentID:   req.AgentID,
		Mode:      req.Mode,
		UserEmail: email,
	})
	if err != nil {
		slog.Error(ErrCreateChat.Error(), "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrCreateChat)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	utils.SendSSEMessage(c, utils.EventChatID, chatID)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 监听客户端的取消信号
	go func() {
		<-c.Done()
		cancel()
	}()

	var ok bool
	switch backend {
	case chat.BackendOpenAIAssistant:
		ok = assistantTurn(ctx, c, chatID, agentRecord, req.Query, 0)
	default:
		ok = emmieTurn(ctx, c, chatID, agentRecord, req, 0)
	}

	utils.SendSSEMessage(c, utils.EventDone, "")

	if ok {
		// 命名任务异步执行，失败不影响本轮对话
		mq.SendMessage(context.Background(), &mq.Message{
			Topic:   mq.TopicChat,
			Tag:     mq.TagTitle,
			Payload: naming.TitleTask{ChatID: chatID},
		})
	}
}

func emmieTurn(ctx context.Context, c *gin.Context, chatID string, agentRecord *model.Agent, req request.ChatRequest, reuseUserMessageID uint) bool {
	agent, err := chat.NewEmmieAgent(c, chat.EmmieParams{
		ChatID:             chatID,
		Agent:              agentRecord,
		Query:              req.Query,
		ImageURLs:          req.ImageURLs,
		OverriddenModel:    req.OverriddenModel,
		ReuseUserMessageID: reuseUserMessageID,
	})
	if err != nil {
		slog.Error(ErrCreateAgent.Error(), "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrCreateAgent)
		return false
	}
	defer agent.Close()

	if _, err := agent.Call(ctx, req.Query); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// 客户端中断，保留已生成的部分答案
			if perr := agent.PersistPartial(context.Background()); perr != nil {
				slog.Error("failed to persist partial answer", "chat_id", chatID, "err", perr)
			}
			return false
		}

		slog.Error(ErrCallAgent.Error(), "chat_id", chatID, "err", err)
		if _, serr := chat.SaveErrorMessage(chatID, err.Error()); serr != nil {
			slog.Error("failed to save error message", "chat_id", chatID, "err", serr)
		}
		utils.SendSSEMessage(c, utils.EventError, ErrCallAgent)
		return false
	}

	if err := agent.FinishTurn(ctx, model.StopReasonCompleted); err != nil {
		slog.Error("failed to finish turn", "chat_id", chatID, "err", err)
	}
	return true
}

func assistantTurn(ctx context.Context, c *gin.Context, chatID string, agentRecord *model.Agent, query string, reuseUserMessageID uint) bool {
	chatRecord, err := dao.GetChatByID(config.Cfg.Org.ID, chatID)
	if err != nil {
		slog.Error(ErrCreateAgent.Error(), "chat_id", chatID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrCreateAgent)
		return false
	}

	agent := chat.NewAssistantAgent(c, chatRecord, agentRecord)
	if reuseUserMessageID != 0 {
		agent.History.MarkUserTurnSaved(reuseUserMessageID)
	}
	if _, err := agent.Call(ctx, query); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return false
		}

		slog.Error(ErrCallAgent.Error(), "chat_id", chatID, "err", err)
		if _, serr := chat.SaveErrorMessage(chatID, err.Error()); serr != nil {
			slog.Error("failed to save error message", "chat_id", chatID, "err", serr)
		}
		utils.SendSSEMessage(c, utils.EventError, ErrCallAgent)
		return false
	}

	return true
}

// RegenerateChat 对激活分支末尾的用户消息重新执行一轮助手回复。
// 被取代的旧回复在执行前移除，新回复直接接在该用户消息之后；
// 用户消息本身复用库中已有的行，不再重复落库。
func RegenerateChat(c *gin.Context) {
	utils.SetSSEHeaders(c)

	chatID := c.Param("id")
	chatRecord, err := dao.GetChatByID(config.Cfg.Org.ID, chatID)
	if err != nil {
		slog.Error(ErrGetChatMessages.Error(), "chat_id", chatID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrGetChatMessages)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	agentRecord, err := dao.GetAgentByID(config.Cfg.Org.ID, chatRecord.AgentID)
	if err != nil || !agentRecord.IsActive {
		slog.Error(ErrAgentNotFound.Error(), "agent_id", chatRecord.AgentID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrAgentNotFound)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	rows, err := dao.GetMessagesByChatID(chatID)
	if err != nil {
		slog.Error(ErrGetChatMessages.Error(), "chat_id", chatID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrGetChatMessages)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	messages := chain.ProcessRawChatHistory(rows)
	sequence := chain.BuildLatestMessageChain(messages)

	lastUser, superseded := chat.LastUserTurn(sequence)
	if lastUser == nil {
		utils.SendSSEMessage(c, utils.EventError, ErrGetChatMessages)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	if err := dao.DeleteMessagesByIDs(chatID, superseded); err != nil {
		slog.Error(ErrCallAgent.Error(), "chat_id", chatID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrCallAgent)
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	var imageURLs []string
	for _, file := range lastUser.Files {
		if file.Type == model.AttachmentTypeImage {
			imageURLs = append(imageURLs, file.URL)
		}
	}

	req := request.ChatRequest{
		ChatID:          chatID,
		AgentID:         chatRecord.AgentID,
		Query:           lastUser.ContentMD,
		ImageURLs:       imageURLs,
		OverriddenModel: lastUser.OverriddenModel,
	}

	backend, err := chat.SelectBackend(agentRecord)
	if err != nil {
		slog.Error(ErrCallAgent.Error(), "agent_id", agentRecord.ID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, err.Error())
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		<-c.Done()
		cancel()
	}()

	reuseID := uint(lastUser.MessageID)
	switch backend {
	case chat.BackendOpenAIAssistant:
		assistantTurn(ctx, c, chatID, agentRecord, req.Query, reuseID)
	default:
		emmieTurn(ctx, c, chatID, agentRecord, req, reuseID)
	}
	utils.SendSSEMessage(c, utils.EventDone, "")
}

func SaveFeedback(c *gin.Context) {
	var req request.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	msg, err := dao.GetMessageByID(req.MessageID)
	if err != nil {
		slog.Error(ErrSaveFeedback.Error(), "message_id", req.MessageID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSaveFeedback.Error(),
		})
		return
	}

	err = chat.SaveFeedback(chat.FeedbackParams{
		ChatID:    msg.ChatID,
		MessageID: req.MessageID,
		UserEmail: c.GetString("email"),
		Rating:    model.FeedbackRating(req.Rating),
		Category:  strings.Join(req.Categories, ","),
		Comment:   req.Comment,
	})
	if err != nil {
		slog.Error(ErrSaveFeedback.Error(), "message_id", req.MessageID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSaveFeedback.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{})
}
