package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- モック定義 ---

type mockIngredientService struct {
	listFn   func(ctx context.Context) ([]*model.Ingredient, error)
	getFn    func(ctx context.Context, id string) (*model.Ingredient, error)
	createFn func(ctx context.Context, in model.IngredientInput) (*model.Ingredient, error)
	updateFn func(ctx context.Context, id string, patch model.IngredientInput) (*model.Ingredient, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockIngredientService) List(ctx context.Context) ([]*model.Ingredient, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockIngredientService) Get(ctx context.Context, id string) (*model.Ingredient, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewIngredientNotFoundError()
}

func (m *mockIngredientService) Create(ctx context.Context, in model.IngredientInput) (*model.Ingredient, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockIngredientService) Update(ctx context.Context, id string, patch model.IngredientInput) (*model.Ingredient, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, nil
}

func (m *mockIngredientService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// newIngredientTestRouter はURLパラメータを解決するためにchiルーターへハンドラーを登録する。
func newIngredientTestRouter(svc IngredientServiceInterface, exposeDetail bool) http.Handler {
	h := NewIngredientHandler(svc, exposeDetail)
	r := chi.NewRouter()
	r.Get("/api/ingredients", h.List)
	r.Post("/api/ingredients", h.Create)
	r.Get("/api/ingredients/{id}", h.Get)
	r.Put("/api/ingredients/{id}", h.Update)
	r.Delete("/api/ingredients/{id}", h.Delete)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- テスト ---

func TestIngredientHandler_List_EmptyArray(t *testing.T) {
	router := newIngredientTestRouter(&mockIngredientService{}, false)

	w := serve(router, http.MethodGet, "/api/ingredients", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestIngredientHandler_Get_PassesID(t *testing.T) {
	var gotID string
	svc := &mockIngredientService{
		getFn: func(_ context.Context, id string) (*model.Ingredient, error) {
			gotID = id
			return &model.Ingredient{ID: id, Name: "Egg", Category: model.CategoryProtein}, nil
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodGet, "/api/ingredients/abc-123", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", gotID)
	assert.Contains(t, w.Body.String(), `"_id":"abc-123"`)
	assert.Contains(t, w.Body.String(), `"name":"Egg"`)
}

func TestIngredientHandler_Get_NotFound(t *testing.T) {
	router := newIngredientTestRouter(&mockIngredientService{}, false)

	w := serve(router, http.MethodGet, "/api/ingredients/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Ingredient not found"}`, w.Body.String())
}

func TestIngredientHandler_Create_DecodesInput(t *testing.T) {
	var got model.IngredientInput
	svc := &mockIngredientService{
		createFn: func(_ context.Context, in model.IngredientInput) (*model.Ingredient, error) {
			got = in
			return &model.Ingredient{ID: "new-id", Name: *in.Name}, nil
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodPost, "/api/ingredients",
		`{"name":"Egg","nutritionalValue":{"calories":155,"protein":0},"shelfLife":21}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Egg", *got.Name)
	require.NotNil(t, got.NutritionalValue)
	require.NotNil(t, got.NutritionalValue.Protein)
	assert.Equal(t, 0.0, *got.NutritionalValue.Protein)
	assert.Nil(t, got.NutritionalValue.Fat)
	assert.Nil(t, got.Category)
	require.NotNil(t, got.ShelfLife)
	assert.Equal(t, 21, *got.ShelfLife)
}

func TestIngredientHandler_Create_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "空", body: ""},
		{name: "不正なJSON", body: `{"name":`},
		{name: "型の不一致", body: `{"shelfLife":"three weeks"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockIngredientService{
				createFn: func(context.Context, model.IngredientInput) (*model.Ingredient, error) {
					t.Fatal("service should not be called")
					return nil, nil
				},
			}
			router := newIngredientTestRouter(svc, false)

			w := serve(router, http.MethodPost, "/api/ingredients", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"Invalid request body"}`, w.Body.String())
		})
	}
}

func TestIngredientHandler_Create_ValidationError(t *testing.T) {
	svc := &mockIngredientService{
		createFn: func(context.Context, model.IngredientInput) (*model.Ingredient, error) {
			return nil, model.NewValidationError("Ingredient validation failed: name: Ingredient name is required")
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodPost, "/api/ingredients", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Ingredient validation failed: name: Ingredient name is required"}`, w.Body.String())
}

func TestIngredientHandler_Update(t *testing.T) {
	var gotID string
	svc := &mockIngredientService{
		updateFn: func(_ context.Context, id string, patch model.IngredientInput) (*model.Ingredient, error) {
			gotID = id
			return &model.Ingredient{ID: id, ShelfLife: *patch.ShelfLife}, nil
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodPut, "/api/ingredients/id-1", `{"shelfLife":30}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "id-1", gotID)
	assert.Contains(t, w.Body.String(), `"shelfLife":30`)
}

func TestIngredientHandler_Update_EmptyBodyIsEmptyPatch(t *testing.T) {
	called := false
	svc := &mockIngredientService{
		updateFn: func(_ context.Context, id string, patch model.IngredientInput) (*model.Ingredient, error) {
			called = true
			assert.Equal(t, model.IngredientInput{}, patch)
			return &model.Ingredient{ID: id, Name: "Egg"}, nil
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodPut, "/api/ingredients/id-1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestIngredientHandler_Update_MalformedBody(t *testing.T) {
	svc := &mockIngredientService{
		updateFn: func(context.Context, string, model.IngredientInput) (*model.Ingredient, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodPut, "/api/ingredients/id-1", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid request body"}`, w.Body.String())
}

func TestIngredientHandler_Delete(t *testing.T) {
	var gotID string
	svc := &mockIngredientService{
		deleteFn: func(_ context.Context, id string) error {
			gotID = id
			return nil
		},
	}
	router := newIngredientTestRouter(svc, false)

	w := serve(router, http.MethodDelete, "/api/ingredients/id-9", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "id-9", gotID)
	assert.JSONEq(t, `{"message":"Ingredient deleted"}`, w.Body.String())
}

func TestIngredientHandler_InternalError(t *testing.T) {
	storeErr := fmt.Errorf("食材一覧の取得に失敗しました: %w", errors.New("connection refused"))
	svc := &mockIngredientService{
		listFn: func(context.Context) ([]*model.Ingredient, error) {
			return nil, storeErr
		},
	}

	t.Run("本番環境では詳細を隠す", func(t *testing.T) {
		w := serve(newIngredientTestRouter(svc, false), http.MethodGet, "/api/ingredients", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
	})

	t.Run("開発環境では詳細を返す", func(t *testing.T) {
		w := serve(newIngredientTestRouter(svc, true), http.MethodGet, "/api/ingredients", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}
