package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/model"
)

// RecipeServiceInterface はレシピハンドラーが必要とするサービスインターフェース。
type RecipeServiceInterface interface {
	List(ctx context.Context) ([]*model.PopulatedRecipe, error)
	Get(ctx context.Context, id string) (*model.PopulatedRecipe, error)
	Create(ctx context.Context, in model.RecipeInput) (*model.Recipe, error)
	Update(ctx context.Context, id string, patch model.RecipeInput) (*model.Recipe, error)
	Delete(ctx context.Context, id string) error
}

// RecipeHandler はレシピ管理のHTTPハンドラー。
type RecipeHandler struct {
	errorResponder
	service RecipeServiceInterface
}

// NewRecipeHandler はRecipeHandlerを生成する。
func NewRecipeHandler(service RecipeServiceInterface, exposeErrorDetail bool) *RecipeHandler {
	return &RecipeHandler{
		errorResponder: errorResponder{exposeDetail: exposeErrorDetail},
		service:        service,
	}
}

// List はレシピ一覧を返す。
// GET /api/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []*model.PopulatedRecipe{}
	}

	middleware.WriteJSON(w, http.StatusOK, recipes)
}

// Get はレシピを1件返す。
// GET /api/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rec)
}

// Create はレシピを登録する。
// POST /api/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	rec, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, rec)
}

// Update はレシピを部分更新する。
// PUT /api/recipes/{id}
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.RecipeInput
	if err := decodePatch(w, r, &patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	rec, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rec)
}

// Delete はレシピを削除する。
// DELETE /api/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Recipe deleted"})
}
