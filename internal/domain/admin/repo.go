package admin

import "context"

type FlagRepository interface {
	Upsert(ctx context.Context, flag *FeatureFlag) error
	GetByKey(ctx context.Context, key string) (*FeatureFlag, error)
	List(ctx context.Context) ([]*FeatureFlag, error)
	Delete(ctx context.Context, key string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
}
