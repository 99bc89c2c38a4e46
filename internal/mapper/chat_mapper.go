package mapper

import (
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Thread Mappers

func (m *ChatMapper) ThreadToEntity(t *model.Thread) *entity.Thread {
	if t == nil {
		return nil
	}
	return &entity.Thread{
		Id:        t.Id,
		UserId:    t.UserId,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (m *ChatMapper) ThreadToModel(t *entity.Thread) *model.Thread {
	if t == nil {
		return nil
	}
	return &model.Thread{
		Id:        t.Id,
		UserId:    t.UserId,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:       msg.Id,
		ThreadId: msg.ThreadId,
		Sequence: msg.Sequence,
		Role:     entity.MessageRole(msg.Role),
		Content:  msg.Content,
		Usage: entity.TokenUsage{
			PromptTokens:     msg.PromptTokens,
			CompletionTokens: msg.CompletionTokens,
			TotalTokens:      msg.TotalTokens,
		},
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:               msg.Id,
		ThreadId:         msg.ThreadId,
		Sequence:         msg.Sequence,
		Role:             string(msg.Role),
		Content:          msg.Content,
		PromptTokens:     msg.Usage.PromptTokens,
		CompletionTokens: msg.Usage.CompletionTokens,
		TotalTokens:      msg.Usage.TotalTokens,
		CreatedAt:        msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(messages []*model.Message) []*entity.Message {
	out := make([]*entity.Message, len(messages))
	for i, msg := range messages {
		out[i] = m.MessageToEntity(msg)
	}
	return out
}
