package dao

import (
	"errors"

	"emmie-backend/model"

	"gorm.io/gorm"
)

func CreateAgent(agent *model.Agent) error {
	return DB.Create(agent).Error
}

func GetAgentByID(orgID string, agentID uint) (*model.Agent, error) {
	var agent model.Agent
	if err := DB.Where("org_id = ? AND id = ?", orgID, agentID).
		First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func GetActiveAgents(orgID string) ([]model.Agent, error) {
	var agents []model.Agent
	if err := DB.Where("org_id = ? AND is_active = ?", orgID, true).
		Order("name ASC").
		Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func UpdateAgent(agent *model.Agent) error {
	return DB.Model(&model.Agent{}).
		Where("org_id = ? AND id = ?", agent.OrgID, agent.ID).
		Select("name", "department", "description", "system_prompt",
			"background_instructions", "color", "icon", "agent_mode", "openai_assistant_id").
		Updates(agent).Error
}

// DeactivateAgent 软删除，仅置 is_active = false
func DeactivateAgent(orgID string, agentID uint) error {
	return DB.Model(&model.Agent{}).
		Where("org_id = ? AND id = ?", orgID, agentID).
		Update("is_active", false).Error
}

// GetAgentTools 返回分配给 Agent 的工具定义
func GetAgentTools(orgID string, agentID uint) ([]model.Tool, error) {
	var tools []model.Tool
	err := DB.Table("tool_definitions").
		Joins("JOIN agent_tools ON agent_tools.tool_id = tool_definitions.id").
		Where("agent_tools.agent_id = ? AND tool_definitions.org_id = ?", agentID, orgID).
		Find(&tools).Error
	if err != nil {
		return nil, err
	}
	return tools, nil
}

func AssignToolToAgent(assignment *model.AgentTool) error {
	return DB.Create(assignment).Error
}

func UnassignToolFromAgent(agentID, toolID uint) error {
	return DB.Where("agent_id = ? AND tool_id = ?", agentID, toolID).
		Delete(&model.AgentTool{}).Error
}

func AgentToolAssignmentExists(agentID, toolID uint) (bool, error) {
	var assignment model.AgentTool
	err := DB.Where("agent_id = ? AND tool_id = ?", agentID, toolID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
