package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"
	"emmie-backend/request"
	"emmie-backend/response"

	"github.com/gin-gonic/gin"
)

func GetAgents(c *gin.Context) {
	agents, err := dao.GetActiveAgents(config.Cfg.Org.ID)
	if err != nil {
		slog.Error(ErrGetAgents.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetAgents.Error(),
		})
		return
	}

	var resp response.GetAgentsResponse
	for i := range agents {
		resp.Agents = append(resp.Agents, toAgentResponse(&agents[i]))
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func CreateAgent(c *gin.Context) {
	var req request.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	agent := model.Agent{
		OrgID:                  config.Cfg.Org.ID,
		Name:                   req.Name,
		Department:             req.Department,
		Description:            req.Description,
		SystemPrompt:           req.SystemPrompt,
		BackgroundInstructions: req.BackgroundInstructions,
		Color:                  req.Color,
		Icon:                   req.Icon,
		IsActive:               true,
		AgentMode:              model.AgentModeEmmie,
		OpenAIAssistantID:      req.OpenAIAssistantID,
	}
	if req.AgentMode != "" {
		agent.AgentMode = model.AgentMode(req.AgentMode)
	}

	// 配置非法在入库前拒绝
	if err := agent.Validate(); err != nil {
		slog.Error(ErrSaveAgent.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: err.Error(),
		})
		return
	}

	if err := dao.CreateAgent(&agent); err != nil {
		slog.Error(ErrSaveAgent.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSaveAgent.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: toAgentResponse(&agent),
	})
}

func UpdateAgent(c *gin.Context) {
	agentID, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidAgentID.Error(),
		})
		return
	}

	var req request.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	agent, err := dao.GetAgentByID(config.Cfg.Org.ID, agentID)
	if err != nil {
		slog.Error(ErrAgentNotFound.Error(), "agent_id", agentID, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrAgentNotFound.Error(),
		})
		return
	}

	agent.Name = req.Name
	agent.Department = req.Department
	agent.Description = req.Description
	agent.SystemPrompt = req.SystemPrompt
	agent.BackgroundInstructions = req.BackgroundInstructions
	agent.Color = req.Color
	agent.Icon = req.Icon
	if req.AgentMode != "" {
		agent.AgentMode = model.AgentMode(req.AgentMode)
	}
	agent.OpenAIAssistantID = req.OpenAIAssistantID
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}

	if err := agent.Validate(); err != nil {
		slog.Error(ErrSaveAgent.Error(), "agent_id", agentID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: err.Error(),
		})
		return
	}

	if err := dao.UpdateAgent(agent); err != nil {
		slog.Error(ErrSaveAgent.Error(), "agent_id", agentID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSaveAgent.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: toAgentResponse(agent),
	})
}

// DeleteAgent 软删除（置为不活跃），系统默认 Agent 拒绝删除
func DeleteAgent(c *gin.Context) {
	agentID, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidAgentID.Error(),
		})
		return
	}

	if model.ProtectedAgentIDs[agentID] {
		slog.Error(ErrProtectedAgent.Error(), "agent_id", agentID)
		c.AbortWithStatusJSON(http.StatusForbidden, response.Response{
			Msg: ErrProtectedAgent.Error(),
		})
		return
	}

	if err := dao.DeactivateAgent(config.Cfg.Org.ID, agentID); err != nil {
		slog.Error(ErrDeleteAgent.Error(), "agent_id", agentID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteAgent.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func GetTools(c *gin.Context) {
	tools, err := dao.GetTools(config.Cfg.Org.ID)
	if err != nil {
		slog.Error(ErrGetTools.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetTools.Error(),
		})
		return
	}

	var resp response.GetToolsResponse
	for i := range tools {
		resp.Tools = append(resp.Tools, toToolResponse(&tools[i]))
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func CreateTool(c *gin.Context) {
	var req request.CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	tool := model.Tool{
		OrgID:       config.Cfg.Org.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        model.ToolType(req.Type),
		Parameters:  req.Parameters,
	}
	if err := tool.Validate(); err != nil {
		slog.Error(ErrSaveTool.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: err.Error(),
		})
		return
	}

	if err := dao.CreateTool(&tool); err != nil {
		slog.Error(ErrSaveTool.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSaveTool.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: toToolResponse(&tool),
	})
}

func UpdateTool(c *gin.Context) {
	toolID, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidToolID.Error(),
		})
		return
	}

	var req request.UpdateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	tool, err := dao.GetToolByID(config.Cfg.Org.ID, toolID)
	if err != nil {
		slog.Error(ErrGetTools.Error(), "tool_id", toolID, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrGetTools.Error(),
		})
		return
	}

	tool.Name = req.Name
	tool.Description = req.Description
	tool.Type = model.ToolType(req.Type)
	tool.Parameters = req.Parameters

	if err := tool.Validate(); err != nil {
		slog.Error(ErrSaveTool.Error(), "tool_id", toolID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: err.Error(),
		})
		return
	}

	if err := dao.UpdateTool(tool); err != nil {
		slog.Error(ErrSaveTool.Error(), "tool_id", toolID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrSaveTool.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: toToolResponse(tool),
	})
}

func DeleteTool(c *gin.Context) {
	toolID, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidToolID.Error(),
		})
		return
	}

	if err := dao.DeleteTool(config.Cfg.Org.ID, toolID); err != nil {
		slog.Error(ErrDeleteTool.Error(), "tool_id", toolID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteTool.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func AssignTool(c *gin.Context) {
	agentID, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidAgentID.Error(),
		})
		return
	}

	var req request.AssignToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	// 分配前校验两端都存在且属于本组织
	if _, err := dao.GetAgentByID(config.Cfg.Org.ID, agentID); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrAgentNotFound.Error(),
		})
		return
	}
	if _, err := dao.GetToolByID(config.Cfg.Org.ID, req.ToolID); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrGetTools.Error(),
		})
		return
	}

	exists, err := dao.AgentToolAssignmentExists(agentID, req.ToolID)
	if err != nil {
		slog.Error(ErrAssignTool.Error(), "agent_id", agentID, "tool_id", req.ToolID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrAssignTool.Error(),
		})
		return
	}
	if exists {
		c.AbortWithStatusJSON(http.StatusConflict, response.Response{
			Msg: ErrAssignmentExists.Error(),
		})
		return
	}

	assignment := model.AgentTool{
		AgentID: agentID,
		ToolID:  req.ToolID,
		Config:  req.Config,
	}
	if err := dao.AssignToolToAgent(&assignment); err != nil {
		slog.Error(ErrAssignTool.Error(), "agent_id", agentID, "tool_id", req.ToolID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrAssignTool.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{})
}

func UnassignTool(c *gin.Context) {
	agentID, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidAgentID.Error(),
		})
		return
	}

	toolID, err := strconv.ParseUint(c.Query("tool-id"), 10, 32)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrInvalidToolID.Error(),
		})
		return
	}

	if err := dao.UnassignToolFromAgent(agentID, uint(toolID)); err != nil {
		slog.Error(ErrUnassignTool.Error(), "agent_id", agentID, "tool_id", toolID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUnassignTool.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func toAgentResponse(agent *model.Agent) response.AgentResponse {
	return response.AgentResponse{
		ID:                     agent.ID,
		Name:                   agent.Name,
		Department:             agent.Department,
		Description:            agent.Description,
		SystemPrompt:           agent.SystemPrompt,
		BackgroundInstructions: agent.BackgroundInstructions,
		Color:                  agent.Color,
		Icon:                   agent.Icon,
		IsActive:               agent.IsActive,
		AgentMode:              agent.AgentMode,
		OpenAIAssistantID:      agent.OpenAIAssistantID,
		CreatedAt:              agent.CreatedAt,
		UpdatedAt:              agent.UpdatedAt,
	}
}

func toToolResponse(tool *model.Tool) response.ToolResponse {
	return response.ToolResponse{
		ID:          tool.ID,
		Name:        tool.Name,
		Description: tool.Description,
		Type:        tool.Type,
		Parameters:  tool.Parameters,
	}
}
