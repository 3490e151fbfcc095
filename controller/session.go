package controller

import (
	"log/slog"
	"net/http"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/request"
	"emmie-backend/response"
	"emmie-backend/service/chain"
	"emmie-backend/service/chat"
	"emmie-backend/service/naming"

	"github.com/gin-gonic/gin"
)

func CreateChat(c *gin.Context) {
	var req request.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	email := c.GetString("email")
	chatID, err := chat.CreateOrGetChat(chat.CreateOrGetChatParams{
		AgentID:   req.AgentID,
		ProjectID: req.ProjectID,
		Mode:      req.Mode,
		UserEmail: email,
	})
	if err != nil {
		slog.Error(ErrCreateChat.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateChat.Error(),
		})
		return
	}

	chatRecord, err := dao.GetChatByID(config.Cfg.Org.ID, chatID)
	if err != nil {
		slog.Error(ErrCreateChat.Error(), "chat_id", chatID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateChat.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: toChatResponse(chatRecord),
	})
}

func GetChats(c *gin.Context) {
	email := c.GetString("email")
	chats, err := dao.GetChatsByUser(config.Cfg.Org.ID, email)
	if err != nil {
		slog.Error(ErrGetChats.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetChats.Error(),
		})
		return
	}

	var resp response.GetChatsResponse
	for i := range chats {
		resp.Chats = append(resp.Chats, toChatResponse(&chats[i]))
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func DeleteChat(c *gin.Context) {
	email := c.GetString("email")
	chatID := c.Param("id")
	if err := dao.DeleteChat(config.Cfg.Org.ID, email, chatID); err != nil {
		slog.Error(ErrDeleteChat.Error(), "chat_id", chatID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteChat.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

// GetChatMessages 返回激活分支上的消息序列，历史分支不出现在结果中
func GetChatMessages(c *gin.Context) {
	chatID := c.Param("id")
	rows, err := dao.GetMessagesByChatID(chatID)
	if err != nil {
		slog.Error(ErrGetChatMessages.Error(), "chat_id", chatID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetChatMessages.Error(),
		})
		return
	}

	messages := chain.ProcessRawChatHistory(rows)
	sequence := chain.BuildLatestMessageChain(messages)

	var resp response.GetChatMessagesResponse
	for _, msg := range sequence {
		item := response.MessageResponse{
			MessageID:       msg.MessageID,
			Role:            msg.Role,
			ContentMD:       msg.ContentMD,
			Model:           msg.Model,
			CreatedAt:       msg.CreatedAt,
			ParentMessageID: msg.ParentMessageID,
			Documents:       msg.Documents,
			Files:           msg.Files,
			ToolCalls:       msg.ToolCalls,
			StopReason:      msg.StopReason,
			OverriddenModel: msg.OverriddenModel,
		}
		for _, cited := range chain.CitedDocuments(msg) {
			item.CitedDocuments = append(item.CitedDocuments, response.CitedDocument{
				Key:      cited.Key,
				FileName: cited.Document.Name,
				URL:      cited.Document.URL,
			})
		}
		resp.Messages = append(resp.Messages, item)
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func UpdateChatTitle(c *gin.Context) {
	var req request.UpdateChatTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	chatID := c.Param("id")
	email := c.GetString("email")
	if err := dao.UpdateChatTitle(config.Cfg.Org.ID, email, chatID, req.Title); err != nil {
		slog.Error(ErrUpdateChatTitle.Error(), "chat_id", chatID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateChatTitle.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

// GenerateChatTitle 同步触发一次会话命名。不满足命名条件时直接返回当前标题
func GenerateChatTitle(c *gin.Context) {
	chatID := c.Param("id")
	if err := naming.NamerInstance.NameChat(c.Request.Context(), chatID); err != nil {
		slog.Error(ErrGenerateTitle.Error(), "chat_id", chatID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGenerateTitle.Error(),
		})
		return
	}

	chatRecord, err := dao.GetChatByID(config.Cfg.Org.ID, chatID)
	if err != nil {
		slog.Error(ErrGenerateTitle.Error(), "chat_id", chatID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGenerateTitle.Error(),
		})
		return
	}

	var title string
	if chatRecord.Title != nil {
		title = *chatRecord.Title
	}
	c.JSON(http.StatusOK, response.Response{
		Data: response.GenerateTitleResponse{Title: title},
	})
}

func toChatResponse(chatRecord *model.Chat) response.ChatResponse {
	return response.ChatResponse{
		ChatID:    chatRecord.ChatID,
		AgentID:   chatRecord.AgentID,
		ProjectID: chatRecord.ProjectID,
		Mode:      chatRecord.Mode,
		Title:     chatRecord.Title,
		CreatedAt: chatRecord.CreatedAt,
		UpdatedAt: chatRecord.UpdatedAt,
	}
}
