package promo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), &Code{
		ID: "promo_1", Code: "OASISAI15",
		DiscountType: DiscountPercentage, DiscountValue: 15,
		AppliesTo: AppliesSetup, IsActive: true,
	}))

	handler := NewHandler(NewResolver(store, nil), DefaultFallback(), store)
	r := gin.New()
	handler.RegisterRoutes(r.Group("/v1"))
	handler.RegisterAdminRoutes(r.Group("/v1/admin"))
	return r, store
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestValidateCode_HappyPath(t *testing.T) {
	r, _ := newHandlerRouter(t)

	w := postJSON(r, "/v1/promo/validate",
		`{"code":"oasisai15","userEmail":"alice@example.com","setupCostCents":149700}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Valid         bool  `json:"valid"`
		SetupDiscount int64 `json:"setupDiscount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, int64(22455), resp.SetupDiscount)
}

func TestValidateCode_BadEmail(t *testing.T) {
	r, _ := newHandlerRouter(t)

	w := postJSON(r, "/v1/promo/validate",
		`{"code":"OASISAI15","userEmail":"not-an-email","setupCostCents":149700}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestValidateCode_MalformedCodeSkipsLookup(t *testing.T) {
	// Codes with characters outside the allowed set cannot exist in the
	// store; the handler answers not_found without a store round trip.
	r, _ := newHandlerRouter(t)

	w := postJSON(r, "/v1/promo/validate",
		`{"code":"15% OFF; DROP","userEmail":"alice@example.com","setupCostCents":149700}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, ReasonNotFound, resp.Error)
}

func TestValidateCode_NegativeCostRejected(t *testing.T) {
	r, _ := newHandlerRouter(t)

	w := postJSON(r, "/v1/promo/validate",
		`{"code":"OASISAI15","userEmail":"alice@example.com","setupCostCents":-100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCode_Creates(t *testing.T) {
	r, store := newHandlerRouter(t)

	w := postJSON(r, "/v1/admin/promo/codes",
		`{"code":"launch-20","discountType":"percentage","discountValue":20,"appliesTo":"setup"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	code, err := store.GetByCode(context.Background(), "LAUNCH-20")
	require.NoError(t, err)
	assert.Equal(t, int64(20), code.DiscountValue)
	assert.True(t, code.IsActive)
}

func TestCreateCode_MalformedCodeRejected(t *testing.T) {
	r, _ := newHandlerRouter(t)

	w := postJSON(r, "/v1/admin/promo/codes",
		`{"code":"BAD CODE!","discountType":"percentage","discountValue":20,"appliesTo":"setup"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestCreateCode_NonPositiveDiscountRejected(t *testing.T) {
	r, _ := newHandlerRouter(t)

	w := postJSON(r, "/v1/admin/promo/codes",
		`{"code":"FREEBIE","discountType":"fixed","discountValue":-500,"appliesTo":"setup"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "discountValue")
}

func TestCreateCode_DuplicateConflicts(t *testing.T) {
	r, _ := newHandlerRouter(t)

	body := `{"code":"OASISAI15","discountType":"percentage","discountValue":15,"appliesTo":"setup"}`
	w := postJSON(r, "/v1/admin/promo/codes", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}
