package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasisai/commerce/internal/validation"
)

func newHandlerRouter(t *testing.T) (*gin.Engine, *fakeProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, provider := newTestService(t, 0)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/v1"))
	return r, provider
}

func postCheckout(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCheckout_SanitizesCustomerFields(t *testing.T) {
	r, provider := newHandlerRouter(t)

	// Padding and NUL bytes must not survive into provider metadata.
	body, err := json.Marshal(map[string]any{
		"productId":   "launchpad",
		"productType": "bundle",
		"customer": map[string]string{
			"email": "alice@example.com",
			"name":  "  Alice Smith" + string(rune(0)) + "   ",
			"phone": " +1 555 0100" + string(rune(0)) + "  ",
		},
	})
	require.NoError(t, err)

	w := postCheckout(r, string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, 1, provider.calls)
	assert.Equal(t, "Alice Smith", provider.lastReq.Metadata["customer_name"])
	assert.Equal(t, "+1 555 0100", provider.lastReq.Metadata["customer_phone"])
}

func TestCreateCheckout_BadEmailRejected(t *testing.T) {
	r, provider := newHandlerRouter(t)

	w := postCheckout(r, `{
		"productId": "launchpad",
		"productType": "bundle",
		"customer": {"email": "not-an-email"}
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Equal(t, 0, provider.calls)
}

func TestCreateCheckout_OverlongPromoCodeRejected(t *testing.T) {
	r, provider := newHandlerRouter(t)

	code := strings.Repeat("A", validation.MaxCodeLength+1)
	w := postCheckout(r, `{
		"productId": "launchpad",
		"productType": "bundle",
		"promoCode": "`+code+`",
		"customer": {"email": "alice@example.com"}
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "promoCode")
	assert.Equal(t, 0, provider.calls)
}
