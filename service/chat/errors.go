package chat

import "fmt"

// ChatCreationError 会话创建失败，携带底层存储错误
type ChatCreationError struct {
	Err error
}

func (e *ChatCreationError) Error() string {
	return fmt.Sprintf("failed to create chat session: %v", e.Err)
}

func (e *ChatCreationError) Unwrap() error {
	return e.Err
}

// MessageSaveError 消息落库失败，Op 标识失败的操作
type MessageSaveError struct {
	Op  string
	Err error
}

func (e *MessageSaveError) Error() string {
	return fmt.Sprintf("failed to save %s message: %v", e.Op, e.Err)
}

func (e *MessageSaveError) Unwrap() error {
	return e.Err
}
