package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/lib/pq"
)

const ingredientColumns = `id, name, category, calories, protein, carbohydrates, fat,
	is_allergenic, shelf_life, storage_instructions, created_at`

// PostgresIngredientRepo はPostgreSQLを使用した食材リポジトリ。
type PostgresIngredientRepo struct {
	db *sql.DB
}

// NewPostgresIngredientRepo はPostgresIngredientRepoを生成する。
func NewPostgresIngredientRepo(db *sql.DB) *PostgresIngredientRepo {
	return &PostgresIngredientRepo{db: db}
}

// List は全食材を作成順に返す。
func (r *PostgresIngredientRepo) List(ctx context.Context) ([]*model.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// FindByID は指定IDの食材を取得する。見つからない場合はnilを返す。
func (r *PostgresIngredientRepo) FindByID(ctx context.Context, id string) (*model.Ingredient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = $1`,
		id,
	)
	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient by ID: %w", err)
	}
	return ing, nil
}

// FindByName は名前が完全一致する食材を取得する。見つからない場合はnilを返す。
func (r *PostgresIngredientRepo) FindByName(ctx context.Context, name string) (*model.Ingredient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE name = $1`,
		name,
	)
	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient by name: %w", err)
	}
	return ing, nil
}

// FindByIDs は指定IDのうち存在する食材をまとめて取得する。
// 存在しないIDは結果に含まれない。
func (r *PostgresIngredientRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Ingredient, error) {
	if len(ids) == 0 {
		return []*model.Ingredient{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredients by IDs: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// Create は食材を作成する。
func (r *PostgresIngredientRepo) Create(ctx context.Context, ing *model.Ingredient) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (`+ingredientColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ing.ID, ing.Name, string(ing.Category),
		ing.NutritionalValue.Calories, ing.NutritionalValue.Protein,
		ing.NutritionalValue.Carbohydrates, ing.NutritionalValue.Fat,
		ing.IsAllergenic, ing.ShelfLife, ing.StorageInstructions, ing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ingredient: %w", classifyError(err))
	}
	return nil
}

// Update は食材を上書き更新する。
func (r *PostgresIngredientRepo) Update(ctx context.Context, ing *model.Ingredient) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE ingredients
		 SET name = $2, category = $3, calories = $4, protein = $5, carbohydrates = $6, fat = $7,
		     is_allergenic = $8, shelf_life = $9, storage_instructions = $10
		 WHERE id = $1`,
		ing.ID, ing.Name, string(ing.Category),
		ing.NutritionalValue.Calories, ing.NutritionalValue.Protein,
		ing.NutritionalValue.Carbohydrates, ing.NutritionalValue.Fat,
		ing.IsAllergenic, ing.ShelfLife, ing.StorageInstructions,
	)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", classifyError(err))
	}
	return requireAffected(result, "ingredient", ing.ID)
}

// DeleteByID は指定IDの食材を削除する。
func (r *PostgresIngredientRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	return requireAffected(result, "ingredient", id)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngredient(row rowScanner) (*model.Ingredient, error) {
	ing := &model.Ingredient{}
	var category string
	err := row.Scan(
		&ing.ID, &ing.Name, &category,
		&ing.NutritionalValue.Calories, &ing.NutritionalValue.Protein,
		&ing.NutritionalValue.Carbohydrates, &ing.NutritionalValue.Fat,
		&ing.IsAllergenic, &ing.ShelfLife, &ing.StorageInstructions, &ing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	ing.Category = model.IngredientCategory(category)
	return ing, nil
}

func scanIngredients(rows *sql.Rows) ([]*model.Ingredient, error) {
	ingredients := []*model.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}
	return ingredients, nil
}

// classifyError はPostgreSQLの一意制約違反（23505）をErrUniqueViolationに変換する。
func classifyError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pqErr.Constraint)
	}
	return err
}

// requireAffected は更新件数が0の場合にErrNotFoundを返す。
func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// compile-time interface check
var _ IngredientRepository = (*PostgresIngredientRepo)(nil)
