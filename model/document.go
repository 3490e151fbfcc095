package model

import "time"

type FileType string

const (
	FileTypePDF      FileType = "pdf"
	FileTypeMarkdown FileType = "md"
	FileTypeText     FileType = "txt"
	FileTypePNG      FileType = "png"
	FileTypeJPEG     FileType = "jpg"
)

type DocumentStatus string

const (
	// 文件上传完成
	DocumentUploaded DocumentStatus = "UPLOADED"

	// 文件向量化处理完成
	DocumentIndexed DocumentStatus = "INDEXED"

	// 文件向量化处理失败
	DocumentIndexFailed DocumentStatus = "INDEX_FAILED"
)

// Document 用户上传的文档元数据，file_search 工具与引用解析依赖该表
// 建立联合索引 (org_id, created_at)
type Document struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_org_created" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	OrgID      string         `gorm:"not null;index:idx_org_created" json:"org_id"`
	DocumentID string         `gorm:"not null;uniqueIndex" json:"document_id"`
	UploadedBy string         `gorm:"not null" json:"uploaded_by"`
	FileName   string         `gorm:"not null" json:"file_name"`
	FileType   FileType       `gorm:"not null" json:"file_type"`
	FileSize   int64          `gorm:"not null" json:"file_size"`

	// 文件在OSS上的完整路径，不包含bucket名称
	ObjectName string `gorm:"not null" json:"object_name"`

	Status DocumentStatus `gorm:"not null;default:UPLOADED" json:"status"`
}

func (Document) TableName() string {
	return "documents"
}
