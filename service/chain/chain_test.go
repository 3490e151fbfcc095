package chain

import (
	"encoding/json"
	"testing"
	"time"

	"emmie-backend/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id uint, role model.Role, content string, ts time.Time) model.Message {
	return model.Message{
		ID:        id,
		Role:      role,
		ContentMD: content,
		CreatedAt: ts,
	}
}

func TestProcessRawChatHistory_LinearChain(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleUser, "hi", base),
		row(2, model.RoleAssistant, "hello", base.Add(time.Second)),
		row(3, model.RoleUser, "how are you", base.Add(2*time.Second)),
	}

	messages := ProcessRawChatHistory(rows)
	require.Len(t, messages, 3)

	first := messages[1]
	require.NotNil(t, first.ParentMessageID)
	assert.Equal(t, RootMessageID, *first.ParentMessageID)

	second := messages[2]
	require.NotNil(t, second.ParentMessageID)
	assert.Equal(t, int64(1), *second.ParentMessageID)
	assert.Equal(t, []int64{2}, first.ChildrenMessageIDs)
	require.NotNil(t, first.LatestChildMessageID)
	assert.Equal(t, int64(2), *first.LatestChildMessageID)

	third := messages[3]
	require.NotNil(t, third.ParentMessageID)
	assert.Equal(t, int64(2), *third.ParentMessageID)
	require.NotNil(t, second.LatestChildMessageID)
	assert.Equal(t, int64(3), *second.LatestChildMessageID)
}

func TestProcessRawChatHistory_SortsUnorderedInput(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(9, model.RoleAssistant, "answer", base.Add(time.Minute)),
		row(4, model.RoleUser, "question", base),
	}

	messages := ProcessRawChatHistory(rows)
	require.NotNil(t, messages[4].ParentMessageID)
	assert.Equal(t, RootMessageID, *messages[4].ParentMessageID)
	require.NotNil(t, messages[9].ParentMessageID)
	assert.Equal(t, int64(4), *messages[9].ParentMessageID)
}

func TestProcessRawChatHistory_FallsBackToUpdatedAt(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := model.Message{ID: 2, Role: model.RoleUser, UpdatedAt: base}
	newer := model.Message{ID: 1, Role: model.RoleAssistant, UpdatedAt: base.Add(time.Second)}

	messages := ProcessRawChatHistory([]model.Message{newer, older})
	require.NotNil(t, messages[2].ParentMessageID)
	assert.Equal(t, RootMessageID, *messages[2].ParentMessageID)
	require.NotNil(t, messages[1].ParentMessageID)
	assert.Equal(t, int64(2), *messages[1].ParentMessageID)
}

func TestBuildLatestMessageChain_RoundTrip(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleUser, "hi", base),
		row(2, model.RoleAssistant, "hello", base.Add(time.Second)),
	}

	seq := BuildLatestMessageChain(ProcessRawChatHistory(rows))
	require.Len(t, seq, 2)
	assert.Equal(t, model.RoleUser, seq[0].Role)
	assert.Equal(t, "hi", seq[0].ContentMD)
	assert.Equal(t, model.RoleAssistant, seq[1].Role)
	assert.Equal(t, "hello", seq[1].ContentMD)
}

// 链长应等于非 system 消息数，且保持时间序
func TestBuildLatestMessageChain_ExcludesSystemMessages(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleSystem, "system prompt", base),
		row(2, model.RoleUser, "hi", base.Add(time.Second)),
		row(3, model.RoleAssistant, "hello", base.Add(2*time.Second)),
	}

	seq := BuildLatestMessageChain(ProcessRawChatHistory(rows))
	require.Len(t, seq, 2)
	assert.Equal(t, int64(2), seq[0].MessageID)
	assert.Equal(t, int64(3), seq[1].MessageID)
}

func TestBuildLatestMessageChain_EmptyAndRootOnly(t *testing.T) {
	assert.Empty(t, BuildLatestMessageChain(MessageMap{}))
	assert.Empty(t, ProcessRawChatHistory(nil))

	// 只有 system 根时链长为零
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seq := BuildLatestMessageChain(ProcessRawChatHistory([]model.Message{
		row(1, model.RoleSystem, "system prompt", base),
	}))
	assert.Empty(t, seq)
}

// 重新生成后父节点有多个子节点，链应走最近挂接的分支
func TestBuildLatestMessageChain_FollowsLatestBranch(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleUser, "hi", base),
		row(2, model.RoleAssistant, "draft one", base.Add(time.Second)),
	}
	messages := ProcessRawChatHistory(rows)

	parentID := int64(1)
	regenerated := &ChainMessage{
		MessageID:       3,
		Role:            model.RoleAssistant,
		ContentMD:       "draft two",
		ParentMessageID: &parentID,
	}
	messages[3] = regenerated
	UpdateParentChildren(regenerated, messages, true)

	assert.Equal(t, []int64{2, 3}, messages[1].ChildrenMessageIDs)

	seq := BuildLatestMessageChain(messages)
	require.Len(t, seq, 2)
	assert.Equal(t, "draft two", seq[1].ContentMD)
}

func TestUpdateParentChildren_Idempotent(t *testing.T) {
	parentID := int64(1)
	parent := &ChainMessage{MessageID: 1}
	child := &ChainMessage{MessageID: 2, ParentMessageID: &parentID}
	messages := MessageMap{1: parent, 2: child}

	UpdateParentChildren(child, messages, true)
	UpdateParentChildren(child, messages, true)

	assert.Equal(t, []int64{2}, parent.ChildrenMessageIDs)
	require.NotNil(t, parent.LatestChildMessageID)
	assert.Equal(t, int64(2), *parent.LatestChildMessageID)
}

func TestRemoveMessage_RepairsLatestChild(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleUser, "hi", base),
		row(2, model.RoleAssistant, "draft one", base.Add(time.Second)),
	}
	messages := ProcessRawChatHistory(rows)

	parentID := int64(1)
	second := &ChainMessage{MessageID: 3, Role: model.RoleAssistant, ParentMessageID: &parentID}
	messages[3] = second
	UpdateParentChildren(second, messages, true)

	RemoveMessage(3, messages)

	parent := messages[1]
	assert.Equal(t, []int64{2}, parent.ChildrenMessageIDs)
	require.NotNil(t, parent.LatestChildMessageID)
	assert.Equal(t, int64(2), *parent.LatestChildMessageID)
	assert.Nil(t, messages[3])
}

func TestRemoveMessage_OnlyChild(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleUser, "hi", base),
		row(2, model.RoleAssistant, "hello", base.Add(time.Second)),
	}
	messages := ProcessRawChatHistory(rows)

	RemoveMessage(2, messages)

	parent := messages[1]
	assert.Empty(t, parent.ChildrenMessageIDs)
	assert.Nil(t, parent.LatestChildMessageID)
}

func TestHumanAndAIMessagePair(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []model.Message{
		row(1, model.RoleUser, "hi", base),
		row(2, model.RoleAssistant, "hello", base.Add(time.Second)),
	}
	seq := BuildLatestMessageChain(ProcessRawChatHistory(rows))

	human, ai := HumanAndAIMessagePair(seq, 2)
	require.NotNil(t, human)
	require.NotNil(t, ai)
	assert.Equal(t, int64(1), human.MessageID)
	assert.Equal(t, int64(2), ai.MessageID)

	human, ai = HumanAndAIMessagePair(seq, 42)
	assert.Nil(t, human)
	assert.Nil(t, ai)
}

func TestLastSuccessfulMessageID(t *testing.T) {
	tests := []struct {
		name  string
		roles []model.Role
		want  *int64
	}{
		{"empty history", nil, nil},
		{"all errors", []model.Role{model.RoleError, model.RoleError}, nil},
		{"trailing errors skipped", []model.Role{model.RoleUser, model.RoleAssistant, model.RoleError, model.RoleError}, ptr(2)},
		{"no errors", []model.Role{model.RoleUser, model.RoleAssistant}, ptr(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chain []*ChainMessage
			for i, role := range tt.roles {
				chain = append(chain, &ChainMessage{MessageID: int64(i + 1), Role: role})
			}

			got := LastSuccessfulMessageID(chain)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func ptr(v int64) *int64 {
	return &v
}

func TestCitedDocuments(t *testing.T) {
	doc := func(id, name string) model.Attachment {
		return model.Attachment{Type: model.AttachmentTypeDocument, DocumentID: id, Name: name}
	}

	msg := &ChainMessage{
		Citations: map[string]string{
			"2":  "doc-b",
			"1":  "doc-a",
			"10": "doc-missing",
		},
		Documents: []model.Attachment{doc("doc-a", "a.pdf"), doc("doc-b", "b.pdf")},
	}

	cited := CitedDocuments(msg)
	require.Len(t, cited, 2)
	// 引用键按数值排序
	assert.Equal(t, "1", cited[0].Key)
	assert.Equal(t, "a.pdf", cited[0].Document.Name)
	assert.Equal(t, "2", cited[1].Key)
	assert.Equal(t, "b.pdf", cited[1].Document.Name)

	assert.Nil(t, CitedDocuments(nil))
	assert.Nil(t, CitedDocuments(&ChainMessage{Documents: msg.Documents}))
	assert.Nil(t, CitedDocuments(&ChainMessage{Citations: msg.Citations}))
	assert.Nil(t, CitedDocuments(&ChainMessage{
		Citations: map[string]string{"1": "doc-x"},
		Documents: []model.Attachment{doc("doc-a", "a.pdf")},
	}))
}

func TestFromRow_SplitsAttachmentsAndMetadata(t *testing.T) {
	attachments, err := json.Marshal([]model.Attachment{
		{Type: model.AttachmentTypeDocument, DocumentID: "doc-a", Name: "a.pdf"},
		{Type: model.AttachmentTypeImage, URL: "https://cdn.example.com/x.png", Format: "png"},
	})
	require.NoError(t, err)

	citations, err := json.Marshal(map[string]string{"1": "doc-a"})
	require.NoError(t, err)

	toolCalls, err := json.Marshal([]model.ToolCall{{Name: "search", Result: []string{"hit"}}})
	require.NoError(t, err)

	msg := FromRow(model.Message{
		ID:          7,
		Role:        model.RoleAssistant,
		ContentMD:   "see [1]",
		Attachments: attachments,
		Citations:   citations,
		ToolCalls:   toolCalls,
		StopReason:  model.StopReasonCompleted,
	})

	assert.Equal(t, int64(7), msg.MessageID)
	require.Len(t, msg.Documents, 1)
	assert.Equal(t, "doc-a", msg.Documents[0].DocumentID)
	require.Len(t, msg.Files, 1)
	assert.Equal(t, "png", msg.Files[0].Format)
	assert.Equal(t, "doc-a", msg.Citations["1"])
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "search", msg.ToolCalls[0].Name)
	assert.Equal(t, model.StopReasonCompleted, msg.StopReason)
}
