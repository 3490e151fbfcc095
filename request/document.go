package request

// UploadDocumentRequest 前端将文件成功直传OSS后回传的元数据
type UploadDocumentRequest struct {
	FileName   string `json:"file_name" binding:"required"`
	FileType   string `json:"file_type" binding:"required"`
	FileSize   int64  `json:"file_size" binding:"required"`
	ObjectName string `json:"object_name" binding:"required"`
}
