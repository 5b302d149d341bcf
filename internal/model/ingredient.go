// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// IngredientCategory は食材のカテゴリを表す。
type IngredientCategory string

const (
	CategoryVegetables IngredientCategory = "Vegetables"
	CategoryFruits     IngredientCategory = "Fruits"
	CategoryGrains     IngredientCategory = "Grains"
	CategoryProtein    IngredientCategory = "Protein"
	CategoryDairy      IngredientCategory = "Dairy"
	CategorySpices     IngredientCategory = "Spices"
	CategoryOther      IngredientCategory = "Other"
)

// NutritionalValue は食材の栄養価を表す。
type NutritionalValue struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
}

// Ingredient は食材を表す。
// nameは全食材で一意。
type Ingredient struct {
	ID                  string             `json:"_id"`
	Name                string             `json:"name"`
	Category            IngredientCategory `json:"category"`
	NutritionalValue    NutritionalValue   `json:"nutritionalValue"`
	IsAllergenic        bool               `json:"isAllergenic"`
	ShelfLife           int                `json:"shelfLife"`
	StorageInstructions string             `json:"storageInstructions"`
	CreatedAt           time.Time          `json:"createdAt"`
}

// NutritionalValueInput はリクエストで受け取る栄養価。
// 未指定と0を区別するためポインタで保持する。
type NutritionalValueInput struct {
	Calories      *float64 `json:"calories" validate:"required,gte=0"`
	Protein       *float64 `json:"protein" validate:"required,gte=0"`
	Carbohydrates *float64 `json:"carbohydrates" validate:"required,gte=0"`
	Fat           *float64 `json:"fat" validate:"required,gte=0"`
}

// IngredientInput は食材の作成・更新リクエストの入力。
// 更新時はnilでないフィールドのみ既存レコードに上書きされる。
type IngredientInput struct {
	Name                *string                `json:"name" validate:"required,min=2,nomarkup"`
	Category            *string                `json:"category" validate:"required,oneof=Vegetables Fruits Grains Protein Dairy Spices Other"`
	NutritionalValue    *NutritionalValueInput `json:"nutritionalValue" validate:"required"`
	IsAllergenic        *bool                  `json:"isAllergenic"`
	ShelfLife           *int                   `json:"shelfLife" validate:"required,min=1"`
	StorageInstructions *string                `json:"storageInstructions" validate:"required,notblank,nomarkup"`
}

// InputFromIngredient は既存の食材から全フィールドが設定された入力を生成する。
// 更新時のマージの土台として使用する。
func InputFromIngredient(ing *Ingredient) IngredientInput {
	name := ing.Name
	category := string(ing.Category)
	nv := ing.NutritionalValue
	allergenic := ing.IsAllergenic
	shelfLife := ing.ShelfLife
	storage := ing.StorageInstructions
	return IngredientInput{
		Name:     &name,
		Category: &category,
		NutritionalValue: &NutritionalValueInput{
			Calories:      &nv.Calories,
			Protein:       &nv.Protein,
			Carbohydrates: &nv.Carbohydrates,
			Fat:           &nv.Fat,
		},
		IsAllergenic:        &allergenic,
		ShelfLife:           &shelfLife,
		StorageInstructions: &storage,
	}
}

// Trimmed は文字列フィールドの前後の空白を取り除いた入力を返す。
// それ以外の書き換えは行わない。
func (in IngredientInput) Trimmed() IngredientInput {
	in.Name = trimmedPtr(in.Name)
	in.StorageInstructions = trimmedPtr(in.StorageInstructions)
	return in
}

func trimmedPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// Merge はpatchのnilでないフィールドをinに上書きした新しい入力を返す。
// nutritionalValueはオブジェクト単位で置き換える。
func (in IngredientInput) Merge(patch IngredientInput) IngredientInput {
	merged := in
	if patch.Name != nil {
		merged.Name = patch.Name
	}
	if patch.Category != nil {
		merged.Category = patch.Category
	}
	if patch.NutritionalValue != nil {
		merged.NutritionalValue = patch.NutritionalValue
	}
	if patch.IsAllergenic != nil {
		merged.IsAllergenic = patch.IsAllergenic
	}
	if patch.ShelfLife != nil {
		merged.ShelfLife = patch.ShelfLife
	}
	if patch.StorageInstructions != nil {
		merged.StorageInstructions = patch.StorageInstructions
	}
	return merged
}

// ToIngredient は検証済みの入力から食材を組み立てる。
// 検証を通過していない入力で呼び出してはならない。
func (in IngredientInput) ToIngredient(id string, createdAt time.Time) *Ingredient {
	ing := &Ingredient{
		ID:                  id,
		Name:                *in.Name,
		Category:            IngredientCategory(*in.Category),
		ShelfLife:           *in.ShelfLife,
		StorageInstructions: *in.StorageInstructions,
		CreatedAt:           createdAt,
		NutritionalValue: NutritionalValue{
			Calories:      *in.NutritionalValue.Calories,
			Protein:       *in.NutritionalValue.Protein,
			Carbohydrates: *in.NutritionalValue.Carbohydrates,
			Fat:           *in.NutritionalValue.Fat,
		},
	}
	if in.IsAllergenic != nil {
		ing.IsAllergenic = *in.IsAllergenic
	}
	return ing
}
