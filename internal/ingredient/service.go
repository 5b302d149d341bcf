// Package ingredient は食材管理のドメインロジックを提供する。
package ingredient

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

const validationPrefix = "Ingredient validation failed"

// validationMessages はフィールド・タグごとのエラーメッセージ。
var validationMessages = map[string]string{
	"name.required":                           "Ingredient name is required",
	"name.min":                                "Name must be at least 2 characters long",
	"category.required":                       "Category is required",
	"nutritionalValue.required":               "Nutritional value is required",
	"nutritionalValue.calories.required":      "Calorie content is required",
	"nutritionalValue.calories.gte":           "Calories cannot be negative",
	"nutritionalValue.protein.required":       "Protein content is required",
	"nutritionalValue.protein.gte":            "Protein cannot be negative",
	"nutritionalValue.carbohydrates.required": "Carbohydrate content is required",
	"nutritionalValue.carbohydrates.gte":      "Carbohydrates cannot be negative",
	"nutritionalValue.fat.required":           "Fat content is required",
	"nutritionalValue.fat.gte":                "Fat cannot be negative",
	"shelfLife.required":                      "Shelf life is required",
	"shelfLife.min":                           "Shelf life must be at least 1 day",
	"storageInstructions.required":            "Storage instructions are required",
	"storageInstructions.notblank":            "Storage instructions are required",
	"name.nomarkup":                           "Name must not contain HTML markup",
	"storageInstructions.nomarkup":            "Storage instructions must not contain HTML markup",
}

// Service は食材管理のサービス層。
type Service struct {
	repo    repository.IngredientRepository
	metrics metrics.Recorder
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewService(repo repository.IngredientRepository, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:    repo,
		metrics: recorder,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List は全食材を返す。
func (s *Service) List(ctx context.Context) ([]*model.Ingredient, error) {
	ingredients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("食材一覧の取得に失敗しました: %w", err)
	}
	return ingredients, nil
}

// Get は指定IDの食材を返す。IDがUUIDとして不正な場合も未検出として扱う。
func (s *Service) Get(ctx context.Context, id string) (*model.Ingredient, error) {
	return s.find(ctx, id)
}

// Create は食材を作成する。
// 全フィールドを検証し、名前の重複がないことを確認してから保存する。
func (s *Service) Create(ctx context.Context, in model.IngredientInput) (*model.Ingredient, error) {
	in = in.Trimmed()
	if err := s.validate(in); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByName(ctx, *in.Name)
	if err != nil {
		return nil, fmt.Errorf("食材名の重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		s.metrics.RecordValidationFailure("ingredient")
		return nil, model.NewDuplicateIngredientNameError(*in.Name)
	}

	ing := in.ToIngredient(uuid.NewString(), s.now())
	if err := s.repo.Create(ctx, ing); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			s.metrics.RecordValidationFailure("ingredient")
			return nil, model.NewDuplicateIngredientNameError(ing.Name)
		}
		return nil, fmt.Errorf("食材の作成に失敗しました: %w", err)
	}

	slog.Info("食材を作成しました", slog.String("ingredient_id", ing.ID), slog.String("name", ing.Name))
	return ing, nil
}

// Update は指定IDの食材を部分更新する。
// 指定されたフィールドを既存レコードのコピーにマージし、マージ結果全体を検証してから
// 1回の更新で保存する。検証に失敗した場合、保存済みのレコードは変更されない。
func (s *Service) Update(ctx context.Context, id string, patch model.IngredientInput) (*model.Ingredient, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := model.InputFromIngredient(current).Merge(patch.Trimmed())
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if *merged.Name != current.Name {
		other, err := s.repo.FindByName(ctx, *merged.Name)
		if err != nil {
			return nil, fmt.Errorf("食材名の重複確認に失敗しました: %w", err)
		}
		if other != nil && other.ID != current.ID {
			s.metrics.RecordValidationFailure("ingredient")
			return nil, model.NewDuplicateIngredientNameError(*merged.Name)
		}
	}

	updated := merged.ToIngredient(current.ID, current.CreatedAt)
	if err := s.repo.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewIngredientNotFoundError()
		case errors.Is(err, repository.ErrUniqueViolation):
			s.metrics.RecordValidationFailure("ingredient")
			return nil, model.NewDuplicateIngredientNameError(updated.Name)
		}
		return nil, fmt.Errorf("食材の更新に失敗しました: %w", err)
	}

	return updated, nil
}

// Delete は指定IDの食材を削除する。
// この食材を参照するレシピはそのまま残り、読み取り時に参照がnullとして展開される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewIngredientNotFoundError()
		}
		return fmt.Errorf("食材の削除に失敗しました: %w", err)
	}

	slog.Info("食材を削除しました", slog.String("ingredient_id", id))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Ingredient, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewIngredientNotFoundError()
	}

	ing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("食材の取得に失敗しました: %w", err)
	}
	if ing == nil {
		return nil, model.NewIngredientNotFoundError()
	}
	return ing, nil
}

func (s *Service) validate(in model.IngredientInput) error {
	verr := validation.ValidateStruct(&in)
	if verr == nil {
		return nil
	}
	s.metrics.RecordValidationFailure("ingredient")
	return model.NewValidationError(verr.Message(validationPrefix, validationMessages))
}
