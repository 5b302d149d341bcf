// Package recipe はレシピ管理のドメインロジックを提供する。
//
// レシピの食材行は食材IDへの弱参照として保存され、書き込み時に参照先の存在は確認しない。
// 読み取り時は参照をまとめて展開し、存在しない参照はnullになる。
package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository"
	"github.com/hitoshi/recipebox/internal/validation"
)

const validationPrefix = "Recipe validation failed"

var validationMessages = map[string]string{
	"title.required":           "Recipe title is required",
	"title.min":                "Title must be at least 3 characters long",
	"description.required":     "Description is required",
	"description.notblank":     "Description is required",
	"ingredients.quantity.gte": "Quantity cannot be negative",
	"instructions.required":    "Instructions are required",
	"instructions.min":         "At least one instruction is required",
	"prepTime.required":        "Preparation time is required",
	"prepTime.min":             "Prep time must be at least 1 minute",
	"cookTime.required":        "Cooking time is required",
	"cookTime.min":             "Cook time cannot be negative",
	"servings.required":        "Number of servings is required",
	"servings.min":             "Must serve at least 1 person",
	"title.nomarkup":           "Title must not contain HTML markup",
	"description.nomarkup":     "Description must not contain HTML markup",
	"instructions.nomarkup":    "Instructions must not contain HTML markup",
}

// Service はレシピ管理のサービス層。
type Service struct {
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	recipes repository.RecipeRepository,
	ingredients repository.IngredientRepository,
	recorder metrics.Recorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		recipes:     recipes,
		ingredients: ingredients,
		metrics:     recorder,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List は食材参照を展開した全レシピを返す。
func (s *Service) List(ctx context.Context) ([]*model.PopulatedRecipe, error) {
	recipes, err := s.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	return s.populate(ctx, recipes...)
}

// Get は食材参照を展開した指定IDのレシピを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.PopulatedRecipe, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	populated, err := s.populate(ctx, recipe)
	if err != nil {
		return nil, err
	}
	return populated[0], nil
}

// Create はレシピを作成し、保存した形（食材はIDのまま）で返す。
func (s *Service) Create(ctx context.Context, in model.RecipeInput) (*model.Recipe, error) {
	in = in.Trimmed()
	if err := s.validate(in); err != nil {
		return nil, err
	}

	recipe := in.ToRecipe(uuid.NewString(), s.now())
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("レシピの作成に失敗しました: %w", err)
	}

	slog.Info("レシピを作成しました",
		slog.String("recipe_id", recipe.ID),
		slog.Int("ingredient_lines", len(recipe.Ingredients)),
	)
	return recipe, nil
}

// Update は指定IDのレシピを部分更新し、保存した形で返す。
// ingredientsとinstructionsは指定された場合に配列ごと置き換える。
func (s *Service) Update(ctx context.Context, id string, patch model.RecipeInput) (*model.Recipe, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := model.InputFromRecipe(current).Merge(patch.Trimmed())
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	updated := merged.ToRecipe(current.ID, current.CreatedAt)
	if err := s.recipes.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewRecipeNotFoundError()
		}
		return nil, fmt.Errorf("レシピの更新に失敗しました: %w", err)
	}
	return updated, nil
}

// Delete は指定IDのレシピを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.recipes.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecipeNotFoundError()
		}
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}

	slog.Info("レシピを削除しました", slog.String("recipe_id", id))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Recipe, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewRecipeNotFoundError()
	}

	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if recipe == nil {
		return nil, model.NewRecipeNotFoundError()
	}
	return recipe, nil
}

// populate はレシピ群が参照する食材を1回のクエリでまとめて取得し、展開する。
func (s *Service) populate(ctx context.Context, recipes ...*model.Recipe) ([]*model.PopulatedRecipe, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range recipes {
		for _, line := range r.Ingredients {
			if _, err := uuid.Parse(line.IngredientID); err != nil || seen[line.IngredientID] {
				continue
			}
			seen[line.IngredientID] = true
			ids = append(ids, line.IngredientID)
		}
	}

	byID := make(map[string]*model.Ingredient, len(ids))
	if len(ids) > 0 {
		found, err := s.ingredients.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("食材参照の展開に失敗しました: %w", err)
		}
		for _, ing := range found {
			byID[ing.ID] = ing
		}
	}

	out := make([]*model.PopulatedRecipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Populate(byID)
	}
	return out, nil
}

func (s *Service) validate(in model.RecipeInput) error {
	verr := validation.ValidateStruct(&in)
	if verr == nil {
		return nil
	}
	s.metrics.RecordValidationFailure("recipe")
	return model.NewValidationError(verr.Message(validationPrefix, validationMessages))
}
