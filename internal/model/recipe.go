package model

import (
	"strings"
	"time"
)

// Difficulty はレシピの難易度を表す。
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// RecipeIngredient はレシピ内の食材行を表す。
// IngredientIDは食材への弱参照で、書き込み時に存在確認は行わない。
type RecipeIngredient struct {
	IngredientID string  `json:"ingredient"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Recipe はレシピを表す。保存される形（食材は参照IDのみ）。
type Recipe struct {
	ID           string             `json:"_id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     int                `json:"prepTime"`
	CookTime     int                `json:"cookTime"`
	Servings     int                `json:"servings"`
	Difficulty   Difficulty         `json:"difficulty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// PopulatedRecipeIngredient は参照を展開した食材行。
// 参照先が存在しない場合Ingredientはnil（JSONではnull）になる。
type PopulatedRecipeIngredient struct {
	Ingredient *Ingredient `json:"ingredient"`
	Quantity   float64     `json:"quantity"`
	Unit       string      `json:"unit"`
}

// PopulatedRecipe は読み取り用に食材参照を展開したレシピ。
type PopulatedRecipe struct {
	ID           string                      `json:"_id"`
	Title        string                      `json:"title"`
	Description  string                      `json:"description"`
	Ingredients  []PopulatedRecipeIngredient `json:"ingredients"`
	Instructions []string                    `json:"instructions"`
	PrepTime     int                         `json:"prepTime"`
	CookTime     int                         `json:"cookTime"`
	Servings     int                         `json:"servings"`
	Difficulty   Difficulty                  `json:"difficulty"`
	CreatedAt    time.Time                   `json:"createdAt"`
}

// Populate はingredientsByIDを使って参照を展開したレシピを返す。
func (r *Recipe) Populate(ingredientsByID map[string]*Ingredient) *PopulatedRecipe {
	lines := make([]PopulatedRecipeIngredient, len(r.Ingredients))
	for i, line := range r.Ingredients {
		lines[i] = PopulatedRecipeIngredient{
			Ingredient: ingredientsByID[line.IngredientID],
			Quantity:   line.Quantity,
			Unit:       line.Unit,
		}
	}
	return &PopulatedRecipe{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  lines,
		Instructions: r.Instructions,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Difficulty:   r.Difficulty,
		CreatedAt:    r.CreatedAt,
	}
}

// RecipeIngredientInput はリクエストで受け取る食材行。
type RecipeIngredientInput struct {
	Ingredient *string  `json:"ingredient" validate:"required,uuid"`
	Quantity   *float64 `json:"quantity" validate:"required,gte=0"`
	Unit       *string  `json:"unit" validate:"required,oneof=g kg ml l tsp tbsp cup piece"`
}

// RecipeInput はレシピの作成・更新リクエストの入力。
// スライスはnil（未指定）と空配列を区別する。
type RecipeInput struct {
	Title        *string                 `json:"title" validate:"required,min=3,nomarkup"`
	Description  *string                 `json:"description" validate:"required,notblank,nomarkup"`
	Ingredients  []RecipeIngredientInput `json:"ingredients" validate:"dive"`
	Instructions []string                `json:"instructions" validate:"required,min=1,dive,nomarkup"`
	PrepTime     *int                    `json:"prepTime" validate:"required,min=1"`
	CookTime     *int                    `json:"cookTime" validate:"required,min=0"`
	Servings     *int                    `json:"servings" validate:"required,min=1"`
	Difficulty   *string                 `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
}

// InputFromRecipe は既存のレシピから全フィールドが設定された入力を生成する。
func InputFromRecipe(r *Recipe) RecipeInput {
	title := r.Title
	description := r.Description
	prep := r.PrepTime
	cook := r.CookTime
	servings := r.Servings
	difficulty := string(r.Difficulty)

	lines := make([]RecipeIngredientInput, len(r.Ingredients))
	for i := range r.Ingredients {
		line := r.Ingredients[i]
		lines[i] = RecipeIngredientInput{
			Ingredient: &line.IngredientID,
			Quantity:   &line.Quantity,
			Unit:       &line.Unit,
		}
	}

	return RecipeInput{
		Title:        &title,
		Description:  &description,
		Ingredients:  lines,
		Instructions: append([]string{}, r.Instructions...),
		PrepTime:     &prep,
		CookTime:     &cook,
		Servings:     &servings,
		Difficulty:   &difficulty,
	}
}

// Trimmed はタイトル・説明・各手順の前後の空白を取り除いた入力を返す。
func (in RecipeInput) Trimmed() RecipeInput {
	in.Title = trimmedPtr(in.Title)
	in.Description = trimmedPtr(in.Description)
	if in.Instructions != nil {
		steps := make([]string, len(in.Instructions))
		for i, step := range in.Instructions {
			steps[i] = strings.TrimSpace(step)
		}
		in.Instructions = steps
	}
	return in
}

// Merge はpatchのnilでないフィールドをinに上書きした新しい入力を返す。
// ingredientsとinstructionsは配列単位で置き換える。
func (in RecipeInput) Merge(patch RecipeInput) RecipeInput {
	merged := in
	if patch.Title != nil {
		merged.Title = patch.Title
	}
	if patch.Description != nil {
		merged.Description = patch.Description
	}
	if patch.Ingredients != nil {
		merged.Ingredients = patch.Ingredients
	}
	if patch.Instructions != nil {
		merged.Instructions = patch.Instructions
	}
	if patch.PrepTime != nil {
		merged.PrepTime = patch.PrepTime
	}
	if patch.CookTime != nil {
		merged.CookTime = patch.CookTime
	}
	if patch.Servings != nil {
		merged.Servings = patch.Servings
	}
	if patch.Difficulty != nil {
		merged.Difficulty = patch.Difficulty
	}
	return merged
}

// ToRecipe は検証済みの入力からレシピを組み立てる。
func (in RecipeInput) ToRecipe(id string, createdAt time.Time) *Recipe {
	lines := make([]RecipeIngredient, len(in.Ingredients))
	for i, line := range in.Ingredients {
		lines[i] = RecipeIngredient{
			IngredientID: *line.Ingredient,
			Quantity:     *line.Quantity,
			Unit:         *line.Unit,
		}
	}
	return &Recipe{
		ID:           id,
		Title:        *in.Title,
		Description:  *in.Description,
		Ingredients:  lines,
		Instructions: in.Instructions,
		PrepTime:     *in.PrepTime,
		CookTime:     *in.CookTime,
		Servings:     *in.Servings,
		Difficulty:   Difficulty(*in.Difficulty),
		CreatedAt:    createdAt,
	}
}
