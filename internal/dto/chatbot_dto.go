package dto

import "time"

type ChatMessageContent struct {
	Content string `json:"content"`
}

// SendChatRequest is the /chat body: {"message": {"content": "..."}, "sessionId": "..."}
type SendChatRequest struct {
	Message   ChatMessageContent `json:"message"`
	SessionId string             `json:"sessionId" validate:"max=128"`
}

type SendChatResponse struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ChatTurnDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type GetChatHistoryResponse struct {
	SessionId string        `json:"session_id"`
	Turns     []ChatTurnDTO `json:"turns"`
}
