package chat

import (
	"emmie-backend/model"
	"emmie-backend/service/chain"
)

// LastUserTurn 定位激活分支末尾的用户消息，并返回其后被取代的回复ID。
// 重新生成前移除这些回复，新回复直接接在该用户消息之后。
func LastUserTurn(sequence []*chain.ChainMessage) (*chain.ChainMessage, []uint) {
	idx := -1
	for i := len(sequence) - 1; i >= 0; i-- {
		if sequence[i].Role == model.RoleUser {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	var superseded []uint
	for _, msg := range sequence[idx+1:] {
		superseded = append(superseded, uint(msg.MessageID))
	}
	return sequence[idx], superseded
}
