// Package repotest はテスト用のインメモリリポジトリを提供する。
// 各リポジトリはErrフィールドに値を設定すると、全メソッドがそのエラーを返す。
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
)

// IngredientRepo はインメモリのIngredientRepository。
type IngredientRepo struct {
	mu    sync.Mutex
	items map[string]model.Ingredient
	// FindByIDsCalls はFindByIDsの呼び出し回数。
	FindByIDsCalls int
	Err            error
}

// NewIngredientRepo は空のIngredientRepoを生成する。
func NewIngredientRepo() *IngredientRepo {
	return &IngredientRepo{items: make(map[string]model.Ingredient)}
}

func (r *IngredientRepo) List(ctx context.Context) ([]*model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*model.Ingredient, 0, len(r.items))
	for _, ing := range r.items {
		ing := ing
		out = append(out, &ing)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *IngredientRepo) FindByID(ctx context.Context, id string) (*model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	ing, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &ing, nil
}

func (r *IngredientRepo) FindByName(ctx context.Context, name string) (*model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, ing := range r.items {
		if ing.Name == name {
			ing := ing
			return &ing, nil
		}
	}
	return nil, nil
}

func (r *IngredientRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindByIDsCalls++
	if r.Err != nil {
		return nil, r.Err
	}
	out := []*model.Ingredient{}
	seen := make(map[string]bool)
	for _, id := range ids {
		if ing, ok := r.items[id]; ok && !seen[id] {
			seen[id] = true
			ing := ing
			out = append(out, &ing)
		}
	}
	return out, nil
}

func (r *IngredientRepo) Create(ctx context.Context, ing *model.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.items {
		if existing.Name == ing.Name {
			return fmt.Errorf("insert: %w", repository.ErrUniqueViolation)
		}
	}
	r.items[ing.ID] = *ing
	return nil
}

func (r *IngredientRepo) Update(ctx context.Context, ing *model.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	current, ok := r.items[ing.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.items {
		if id != ing.ID && existing.Name == ing.Name {
			return fmt.Errorf("update: %w", repository.ErrUniqueViolation)
		}
	}
	updated := *ing
	updated.CreatedAt = current.CreatedAt
	r.items[ing.ID] = updated
	return nil
}

func (r *IngredientRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// RecipeRepo はインメモリのRecipeRepository。
type RecipeRepo struct {
	mu    sync.Mutex
	items map[string]model.Recipe
	Err   error
}

// NewRecipeRepo は空のRecipeRepoを生成する。
func NewRecipeRepo() *RecipeRepo {
	return &RecipeRepo{items: make(map[string]model.Recipe)}
}

func cloneRecipe(r model.Recipe) model.Recipe {
	r.Ingredients = append([]model.RecipeIngredient{}, r.Ingredients...)
	r.Instructions = append([]string{}, r.Instructions...)
	return r
}

func (r *RecipeRepo) List(ctx context.Context) ([]*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*model.Recipe, 0, len(r.items))
	for _, rec := range r.items {
		rec := cloneRecipe(rec)
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	rec, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	rec = cloneRecipe(rec)
	return &rec, nil
}

func (r *RecipeRepo) Create(ctx context.Context, rec *model.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.items[rec.ID] = cloneRecipe(*rec)
	return nil
}

func (r *RecipeRepo) Update(ctx context.Context, rec *model.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	current, ok := r.items[rec.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneRecipe(*rec)
	updated.CreatedAt = current.CreatedAt
	r.items[rec.ID] = updated
	return nil
}

func (r *RecipeRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// SessionRepo はインメモリのSessionRepository。
// 期限判定にはNowを使用する。
type SessionRepo struct {
	mu    sync.Mutex
	items map[string]model.Session
	Now   func() time.Time
	Err   error
}

// NewSessionRepo は空のSessionRepoを生成する。
func NewSessionRepo() *SessionRepo {
	return &SessionRepo{items: make(map[string]model.Session), Now: time.Now}
}

func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.items[s.ID] = *s
	return nil
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.items[id]
	if !ok || s.Expired(r.Now()) {
		return nil, nil
	}
	return &s, nil
}

func (r *SessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	delete(r.items, id)
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for id, s := range r.items {
		if s.Expired(r.Now()) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

// Len は保持しているセッション数を返す（期限切れを含む）。
func (r *SessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

var (
	_ repository.IngredientRepository = (*IngredientRepo)(nil)
	_ repository.RecipeRepository     = (*RecipeRepo)(nil)
	_ repository.SessionRepository    = (*SessionRepo)(nil)
)
