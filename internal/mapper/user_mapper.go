package mapper

import (
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:            u.Id,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:            u.Id,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	out := make([]*entity.User, len(users))
	for i, u := range users {
		out[i] = m.ToEntity(u)
	}
	return out
}

func (m *UserMapper) SessionToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}
	return &entity.Session{
		Id:        s.Id,
		UserId:    s.UserId,
		ExpiresAt: s.ExpiresAt,
		IpAddress: s.IpAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *UserMapper) SessionToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}
	return &model.Session{
		Id:        s.Id,
		UserId:    s.UserId,
		ExpiresAt: s.ExpiresAt,
		IpAddress: s.IpAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *UserMapper) AccountToEntity(a *model.Account) *entity.Account {
	if a == nil {
		return nil
	}
	return &entity.Account{
		Id:                a.Id,
		UserId:            a.UserId,
		ProviderId:        a.ProviderId,
		ProviderAccountId: a.ProviderAccountId,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (m *UserMapper) AccountToModel(a *entity.Account) *model.Account {
	if a == nil {
		return nil
	}
	return &model.Account{
		Id:                a.Id,
		UserId:            a.UserId,
		ProviderId:        a.ProviderId,
		ProviderAccountId: a.ProviderAccountId,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (m *UserMapper) VerificationToEntity(v *model.Verification) *entity.Verification {
	if v == nil {
		return nil
	}
	return &entity.Verification{
		Id:         v.Id,
		Identifier: v.Identifier,
		Value:      v.Value,
		ExpiresAt:  v.ExpiresAt,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func (m *UserMapper) VerificationToModel(v *entity.Verification) *model.Verification {
	if v == nil {
		return nil
	}
	return &model.Verification{
		Id:         v.Id,
		Identifier: v.Identifier,
		Value:      v.Value,
		ExpiresAt:  v.ExpiresAt,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}
