package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/model"
)

// IngredientServiceInterface は食材ハンドラーが必要とするサービスインターフェース。
type IngredientServiceInterface interface {
	List(ctx context.Context) ([]*model.Ingredient, error)
	Get(ctx context.Context, id string) (*model.Ingredient, error)
	Create(ctx context.Context, in model.IngredientInput) (*model.Ingredient, error)
	Update(ctx context.Context, id string, patch model.IngredientInput) (*model.Ingredient, error)
	Delete(ctx context.Context, id string) error
}

// IngredientHandler は食材管理のHTTPハンドラー。
type IngredientHandler struct {
	errorResponder
	service IngredientServiceInterface
}

// NewIngredientHandler はIngredientHandlerを生成する。
func NewIngredientHandler(service IngredientServiceInterface, exposeErrorDetail bool) *IngredientHandler {
	return &IngredientHandler{
		errorResponder: errorResponder{exposeDetail: exposeErrorDetail},
		service:        service,
	}
}

// List は食材一覧を返す。
// GET /api/ingredients
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if ingredients == nil {
		ingredients = []*model.Ingredient{}
	}

	middleware.WriteJSON(w, http.StatusOK, ingredients)
}

// Get は食材を1件返す。
// GET /api/ingredients/{id}
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	ing, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, ing)
}

// Create は食材を登録する。
// POST /api/ingredients
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.IngredientInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	ing, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, ing)
}

// Update は食材を部分更新する。
// PUT /api/ingredients/{id}
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.IngredientInput
	if err := decodePatch(w, r, &patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	ing, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, ing)
}

// Delete は食材を削除する。
// DELETE /api/ingredients/{id}
func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Ingredient deleted"})
}
