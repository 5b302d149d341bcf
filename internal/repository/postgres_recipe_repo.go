package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/lib/pq"
)

const recipeColumns = `id, title, description, ingredients, instructions,
	prep_time, cook_time, servings, difficulty, created_at`

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
// 食材行はJSONB、手順はTEXT[]として1行に保存する。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

// List は全レシピを作成順に返す。
func (r *PostgresRecipeRepo) List(ctx context.Context) ([]*model.Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*model.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = $1`,
		id,
	)
	recipe, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe by ID: %w", err)
	}
	return recipe, nil
}

// Create はレシピを作成する。
func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	lines, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to encode recipe ingredients: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		recipe.ID, recipe.Title, recipe.Description, lines, pq.Array(recipe.Instructions),
		recipe.PrepTime, recipe.CookTime, recipe.Servings, string(recipe.Difficulty), recipe.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", classifyError(err))
	}
	return nil
}

// Update はレシピを上書き更新する。
func (r *PostgresRecipeRepo) Update(ctx context.Context, recipe *model.Recipe) error {
	lines, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to encode recipe ingredients: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE recipes
		 SET title = $2, description = $3, ingredients = $4, instructions = $5,
		     prep_time = $6, cook_time = $7, servings = $8, difficulty = $9
		 WHERE id = $1`,
		recipe.ID, recipe.Title, recipe.Description, lines, pq.Array(recipe.Instructions),
		recipe.PrepTime, recipe.CookTime, recipe.Servings, string(recipe.Difficulty),
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", classifyError(err))
	}
	return requireAffected(result, "recipe", recipe.ID)
}

// DeleteByID は指定IDのレシピを削除する。
func (r *PostgresRecipeRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return requireAffected(result, "recipe", id)
}

func scanRecipe(row rowScanner) (*model.Recipe, error) {
	recipe := &model.Recipe{}
	var (
		lines      []byte
		difficulty string
	)
	err := row.Scan(
		&recipe.ID, &recipe.Title, &recipe.Description, &lines, pq.Array(&recipe.Instructions),
		&recipe.PrepTime, &recipe.CookTime, &recipe.Servings, &difficulty, &recipe.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	recipe.Difficulty = model.Difficulty(difficulty)

	recipe.Ingredients = []model.RecipeIngredient{}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &recipe.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to decode recipe ingredients: %w", err)
		}
	}
	if recipe.Instructions == nil {
		recipe.Instructions = []string{}
	}
	return recipe, nil
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)
