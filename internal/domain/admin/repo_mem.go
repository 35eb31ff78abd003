package admin

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrFlagNotFound = errors.New("feature flag not found")
	ErrUserNotFound = errors.New("user not found")
)

type MemFlagRepository struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

func NewMemFlagRepository() *MemFlagRepository {
	return &MemFlagRepository{flags: make(map[string]*FeatureFlag)}
}

func (r *MemFlagRepository) Upsert(_ context.Context, flag *FeatureFlag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *flag
	r.flags[flag.Key] = &cp
	return nil
}

func (r *MemFlagRepository) GetByKey(_ context.Context, key string) (*FeatureFlag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *MemFlagRepository) List(_ context.Context) ([]*FeatureFlag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*FeatureFlag, 0, len(r.flags))
	for _, f := range r.flags {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MemFlagRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flags[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, key)
	return nil
}

type MemUserRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemUserRepository() *MemUserRepository {
	return &MemUserRepository{users: make(map[string]*User)}
}

func (r *MemUserRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	r.users[u.ID] = &cp
	return nil
}

func (r *MemUserRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp, nil
}

func (r *MemUserRepository) List(_ context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		cp.Roles = append([]string(nil), u.Roles...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemUserRepository) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	r.users[u.ID] = &cp
	return nil
}
