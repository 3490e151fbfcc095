package dao

import (
	"emmie-backend/model"
)

func CreateDocument(doc *model.Document) error {
	return DB.Create(doc).Error
}

func GetDocumentByDocumentID(orgID, documentID string) (*model.Document, error) {
	var doc model.Document
	if err := DB.Where("org_id = ? AND document_id = ?", orgID, documentID).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func GetDocumentsByOrg(orgID string) ([]model.Document, error) {
	var docs []model.Document
	if err := DB.Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func UpdateDocumentStatus(orgID, documentID string, status model.DocumentStatus) error {
	return DB.Model(&model.Document{}).
		Where("org_id = ? AND document_id = ?", orgID, documentID).
		Update("status", status).Error
}
