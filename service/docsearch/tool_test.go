package docsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrgFilter(t *testing.T) {
	assert.Equal(t, `org_id == "org-1"`, orgFilter("org-1"))

	// 组织ID中的引号被转义，不会破坏过滤表达式
	assert.Equal(t, `org_id == "org-\"x\""`, orgFilter(`org-"x"`))
}
