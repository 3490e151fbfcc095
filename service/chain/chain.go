// Package chain 负责把一个会话的扁平消息记录重建为父子链表结构，
// 并推导用于渲染的"最新路径"。
package chain

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"emmie-backend/model"
)

// RootMessageID 根消息的父ID哨兵值
const RootMessageID int64 = -3

// ChainMessage 会话树中的一条消息，父子关系通过ID引用维护
type ChainMessage struct {
	MessageID int64
	Role      model.Role
	ContentMD string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time

	ParentMessageID    *int64
	ChildrenMessageIDs []int64

	// 最近挂接的子消息，决定当前激活分支
	LatestChildMessageID *int64

	// 引用键 → 文档ID
	Citations map[string]string

	Documents []model.Attachment
	Files     []model.Attachment
	ToolCalls []model.ToolCall

	StopReason      model.StopReason
	OverriddenModel string
}

// MessageMap 一个会话的全量消息，按请求从存储重建，不跨请求保存
type MessageMap map[int64]*ChainMessage

// FromRow 将持久化的消息行转换为链节点
func FromRow(row model.Message) *ChainMessage {
	msg := &ChainMessage{
		MessageID:       int64(row.ID),
		Role:            row.Role,
		ContentMD:       row.ContentMD,
		Model:           row.Model,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		StopReason:      row.StopReason,
		OverriddenModel: row.OverriddenModel,
	}

	if len(row.Citations) > 0 {
		// 引用字段损坏时按无引用处理
		_ = json.Unmarshal(row.Citations, &msg.Citations)
	}
	if len(row.ToolCalls) > 0 {
		_ = json.Unmarshal(row.ToolCalls, &msg.ToolCalls)
	}

	if len(row.Attachments) > 0 {
		var attachments []model.Attachment
		if err := json.Unmarshal(row.Attachments, &attachments); err == nil {
			for _, a := range attachments {
				if a.Type == model.AttachmentTypeDocument {
					msg.Documents = append(msg.Documents, a)
				} else {
					msg.Files = append(msg.Files, a)
				}
			}
		}
	}

	return msg
}

func sortTime(row model.Message) time.Time {
	if !row.CreatedAt.IsZero() {
		return row.CreatedAt
	}
	// 主时间戳缺失时退回次级时间戳
	return row.UpdatedAt
}

// ProcessRawChatHistory 按创建时间升序把消息行接成一条严格线性链：
// 每条消息的父节点是排序后的前一条，首条消息的父节点为根哨兵。
func ProcessRawChatHistory(rows []model.Message) MessageMap {
	sorted := make([]model.Message, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortTime(sorted[i]).Before(sortTime(sorted[j]))
	})

	messages := make(MessageMap, len(sorted))

	var prevID *int64
	for _, row := range sorted {
		msg := FromRow(row)
		if prevID == nil {
			root := RootMessageID
			msg.ParentMessageID = &root
		} else {
			parent := *prevID
			msg.ParentMessageID = &parent
		}
		messages[msg.MessageID] = msg

		id := msg.MessageID
		prevID = &id
	}

	for _, row := range sorted {
		msg := messages[int64(row.ID)]
		if msg.ParentMessageID != nil && *msg.ParentMessageID != RootMessageID {
			UpdateParentChildren(msg, messages, true)
		}
	}

	return messages
}

// BuildLatestMessageChain 从根出发沿 LatestChildMessageID 取出当前激活分支，
// 过滤 system 消息。找不到根时返回空序列。
func BuildLatestMessageChain(messages MessageMap) []*ChainMessage {
	root := findRoot(messages)
	if root == nil {
		return nil
	}

	var sequence []*ChainMessage
	current := root
	for current != nil {
		if current.Role != model.RoleSystem {
			sequence = append(sequence, current)
		}
		if current.LatestChildMessageID == nil {
			break
		}
		current = messages[*current.LatestChildMessageID]
	}

	return sequence
}

func findRoot(messages MessageMap) *ChainMessage {
	var root *ChainMessage
	for _, msg := range messages {
		if msg.ParentMessageID == nil || *msg.ParentMessageID == RootMessageID {
			// map 遍历无序，取ID最小的根保证确定性
			if root == nil || msg.MessageID < root.MessageID {
				root = msg
			}
		}
	}
	return root
}

// UpdateParentChildren 维护父节点的子列表。addToParent 为真时幂等地追加
// 子ID并把 LatestChildMessageID 指向它；为假时从父节点摘除该消息并修复
// LatestChildMessageID，保证其永不指向已不存在的子节点。
func UpdateParentChildren(message *ChainMessage, messages MessageMap, addToParent bool) {
	if message.ParentMessageID == nil || *message.ParentMessageID == RootMessageID {
		return
	}

	parent := messages[*message.ParentMessageID]
	if parent == nil {
		return
	}

	if addToParent {
		exists := false
		for _, id := range parent.ChildrenMessageIDs {
			if id == message.MessageID {
				exists = true
				break
			}
		}
		if !exists {
			parent.ChildrenMessageIDs = append(parent.ChildrenMessageIDs, message.MessageID)
		}

		latest := message.MessageID
		parent.LatestChildMessageID = &latest
		return
	}

	children := parent.ChildrenMessageIDs[:0]
	for _, id := range parent.ChildrenMessageIDs {
		if id != message.MessageID {
			children = append(children, id)
		}
	}
	parent.ChildrenMessageIDs = children

	if parent.LatestChildMessageID != nil && *parent.LatestChildMessageID == message.MessageID {
		if len(children) > 0 {
			latest := children[len(children)-1]
			parent.LatestChildMessageID = &latest
		} else {
			parent.LatestChildMessageID = nil
		}
	}
}

// RemoveMessage 从消息表中删除一条消息并修复其父节点
func RemoveMessage(messageID int64, messages MessageMap) {
	message := messages[messageID]
	if message == nil {
		return
	}

	UpdateParentChildren(message, messages, false)
	delete(messages, messageID)
}

// HumanAndAIMessagePair 按位置取出 AI 消息及其前一条用户消息，
// 找不到 AI 消息时两者均为 nil。
func HumanAndAIMessagePair(chain []*ChainMessage, aiMessageID int64) (human, ai *ChainMessage) {
	for i, msg := range chain {
		if msg.MessageID == aiMessageID {
			if i > 0 {
				human = chain[i-1]
			}
			return human, msg
		}
	}
	return nil, nil
}

// LastSuccessfulMessageID 从尾部扫描，返回最后一条非 error 消息的ID；
// 全部失败或序列为空时返回 nil。
func LastSuccessfulMessageID(chain []*ChainMessage) *int64 {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Role != model.RoleError {
			id := chain[i].MessageID
			return &id
		}
	}
	return nil
}

// CitedDocument 引用键与其解析到的附件文档
type CitedDocument struct {
	Key      string
	Document model.Attachment
}

// CitedDocuments 把消息的引用表与附件文档交叉比对，产出有序的
// (引用键, 文档) 对；引用或文档缺失、或无一命中时返回 nil。
func CitedDocuments(message *ChainMessage) []CitedDocument {
	if message == nil || len(message.Citations) == 0 || len(message.Documents) == 0 {
		return nil
	}

	docsByID := make(map[string]model.Attachment, len(message.Documents))
	for _, doc := range message.Documents {
		docsByID[doc.DocumentID] = doc
	}

	keys := make([]string, 0, len(message.Citations))
	for key := range message.Citations {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		// 引用键一般是数字序号，优先按数值排序
		ni, erri := strconv.Atoi(keys[i])
		nj, errj := strconv.Atoi(keys[j])
		if erri == nil && errj == nil {
			return ni < nj
		}
		return keys[i] < keys[j]
	})

	var cited []CitedDocument
	for _, key := range keys {
		if doc, ok := docsByID[message.Citations[key]]; ok {
			cited = append(cited, CitedDocument{Key: key, Document: doc})
		}
	}

	if len(cited) == 0 {
		return nil
	}
	return cited
}
