package implementation

import (
	"context"
	"database/sql"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/mapper"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/repository/contract"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := specification.Apply(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.Apply(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) MaxSequence(ctx context.Context, threadId uuid.UUID) (int, bool, error) {
	var last sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("MAX(sequence)").
		Where("thread_id = ?", threadId).
		Row().
		Scan(&last)
	if err != nil {
		return 0, false, err
	}
	if !last.Valid {
		return 0, false, nil
	}
	return int(last.Int64), true, nil
}

func (r *MessageRepositoryImpl) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("thread_id = ?", threadId).Delete(&model.Message{}).Error
}

func (r *MessageRepositoryImpl) DeleteAllByUserIds(ctx context.Context, userIds []uuid.UUID) error {
	if len(userIds) == 0 {
		return nil
	}
	threadIds := r.db.Model(&model.Thread{}).Select("id").Where("user_id IN ?", userIds)
	return r.db.WithContext(ctx).Where("thread_id IN (?)", threadIds).Delete(&model.Message{}).Error
}

func (r *MessageRepositoryImpl) assistantTokensQuery(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Joins("JOIN threads ON threads.id = messages.thread_id").
		Where("messages.role = ?", string(entity.MessageRoleAssistant)).
		Where("messages.created_at > ? AND messages.created_at <= ?", from, to)
}

func (r *MessageRepositoryImpl) SumAssistantTokens(ctx context.Context, userId uuid.UUID, from, to time.Time) (int64, error) {
	var total sql.NullInt64
	err := r.assistantTokensQuery(ctx, from, to).
		Select("COALESCE(SUM(COALESCE(messages.total_tokens, 0)), 0)").
		Where("threads.user_id = ?", userId).
		Row().
		Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

func (r *MessageRepositoryImpl) SumAssistantTokensByUser(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error) {
	var rows []struct {
		UserId uuid.UUID
		Total  int64
	}
	err := r.assistantTokensQuery(ctx, from, to).
		Select("threads.user_id AS user_id, COALESCE(SUM(COALESCE(messages.total_tokens, 0)), 0) AS total").
		Group("threads.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		totals[row.UserId] = row.Total
	}
	return totals, nil
}
