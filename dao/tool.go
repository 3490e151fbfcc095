package dao

import (
	"emmie-backend/model"
)

func CreateTool(tool *model.Tool) error {
	return DB.Create(tool).Error
}

func GetToolByID(orgID string, toolID uint) (*model.Tool, error) {
	var tool model.Tool
	if err := DB.Where("org_id = ? AND id = ?", orgID, toolID).
		First(&tool).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

func GetTools(orgID string) ([]model.Tool, error) {
	var tools []model.Tool
	if err := DB.Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

func UpdateTool(tool *model.Tool) error {
	return DB.Model(&model.Tool{}).
		Where("org_id = ? AND id = ?", tool.OrgID, tool.ID).
		Select("name", "description", "type", "parameters").
		Updates(tool).Error
}

func DeleteTool(orgID string, toolID uint) error {
	// 先清理分配关系
	if err := DB.Where("tool_id = ?", toolID).
		Delete(&model.AgentTool{}).Error; err != nil {
		return err
	}

	return DB.Where("org_id = ? AND id = ?", orgID, toolID).
		Delete(&model.Tool{}).Error
}
