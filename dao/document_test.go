package dao

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetDocumentByDocumentID(t *testing.T) {
	mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "org_id", "document_id", "object_name"}).
		AddRow(1, "org-1", "doc-1", "documents/doc-1.pdf")
	mock.ExpectQuery("SELECT (.+) FROM `documents` WHERE org_id = (.+) AND document_id = (.+)").
		WithArgs("org-1", "doc-1", 1).
		WillReturnRows(rows)

	doc, err := GetDocumentByDocumentID("org-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "documents/doc-1.pdf", doc.ObjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocumentByDocumentIDNotFound(t *testing.T) {
	mock := newMockDB(t)

	// 未知或他组织的文档返回 ErrRecordNotFound，不返回空指针
	mock.ExpectQuery("SELECT (.+) FROM `documents` WHERE org_id = (.+) AND document_id = (.+)").
		WithArgs("org-1", "unknown", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	doc, err := GetDocumentByDocumentID("org-1", "unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Nil(t, doc)
	assert.NoError(t, mock.ExpectationsWereMet())
}
