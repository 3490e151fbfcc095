package response

import "emmie-backend/model"

type DocumentResponse struct {
	DocumentID string               `json:"document_id"`
	FileName   string               `json:"file_name"`
	FileType   string               `json:"file_type"`
	FileSize   int64                `json:"file_size"`
	Status     model.DocumentStatus `json:"status"`
}

type GetDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type GetPresignedURLResponse struct {
	URL string `json:"url"`
}
