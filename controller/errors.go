package controller

import "errors"

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrUserRegister  = errors.New("failed to register user")
	ErrGenerateToken = errors.New("failed to generate token")
	ErrUserLogin     = errors.New("failed to login")

	ErrCreateChat      = errors.New("failed to create a chat")
	ErrGetChats        = errors.New("failed to get chats")
	ErrDeleteChat      = errors.New("failed to delete a chat")
	ErrGetChatMessages = errors.New("failed to get chat messages")
	ErrUpdateChatTitle = errors.New("failed to update chat title")
	ErrGenerateTitle   = errors.New("failed to generate chat title")

	ErrAgentNotFound = errors.New("agent not found or inactive")
	ErrCreateAgent   = errors.New("failed to create an agent")
	ErrCallAgent     = errors.New("error while calling agent")
	ErrSaveFeedback  = errors.New("failed to save feedback")

	ErrGetAgents        = errors.New("failed to get agents")
	ErrSaveAgent        = errors.New("failed to save agent")
	ErrDeleteAgent      = errors.New("failed to delete agent")
	ErrProtectedAgent   = errors.New("agent is protected and cannot be deleted")
	ErrGetTools         = errors.New("failed to get tools")
	ErrSaveTool         = errors.New("failed to save tool")
	ErrDeleteTool       = errors.New("failed to delete tool")
	ErrAssignTool       = errors.New("failed to assign tool to agent")
	ErrUnassignTool     = errors.New("failed to unassign tool from agent")
	ErrAssignmentExists = errors.New("tool is already assigned to agent")
	ErrInvalidAgentID   = errors.New("invalid agent id")
	ErrInvalidToolID    = errors.New("invalid tool id")

	ErrGeneratePolicyToken = errors.New("failed to generate policy token")
	ErrGetDocuments        = errors.New("failed to get documents")
	ErrUploadDocument      = errors.New("failed to upload document metadata")
	ErrUploadImage         = errors.New("failed to upload image")
	ErrGetPresignedURL     = errors.New("failed to get presigned url")
)
