package validator

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func contextFor(req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestBind_TranslatesMissingFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"admin"}`))
	req.Header.Set("Content-Type", "application/json")

	var dst model.AdminLoginRequest
	fields := Bind(contextFor(req), &dst)

	require.NotNil(t, fields)
	assert.Contains(t, fields, "password")
	assert.NotContains(t, fields, "username")
	assert.Equal(t, "password is a required field", fields["password"])
}

func TestBind_SyntaxErrorIsDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")

	var dst model.AdminLoginRequest
	fields := Bind(contextFor(req), &dst)
	assert.Contains(t, fields, "detail")
}

func TestBindForm_CreateBus(t *testing.T) {
	form := url.Values{}
	form.Set("route", "12A")
	form.Set("description", "City loop")
	form.Set("fare", "-1")
	form.Set("timings", "6am-10pm")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var dst model.CreateBusRequest
	fields := BindForm(contextFor(req), &dst)

	require.NotNil(t, fields)
	assert.Contains(t, fields, "fare")
	assert.Contains(t, fields, "stops")
	assert.NotContains(t, fields, "route")
}

func TestBindForm_PartialUpdate(t *testing.T) {
	form := url.Values{}
	form.Set("fare", "20")
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var dst model.UpdateBusRequest
	require.Nil(t, BindForm(contextFor(req), &dst))
	require.NotNil(t, dst.Fare)
	assert.Equal(t, 20.0, *dst.Fare)
	assert.Nil(t, dst.Route)
	assert.Nil(t, dst.Stops)
}

func TestBindForm_BusNumberCharset(t *testing.T) {
	cases := []struct {
		number string
		ok     bool
	}{
		{"12A", true},
		{"E2E-77X", true},
		{"N 5", true},
		{"12/A", false},
		{"a?b", false},
		{"-12", false},
	}
	for _, tc := range cases {
		t.Run(tc.number, func(t *testing.T) {
			form := url.Values{}
			form.Set("busNumber", tc.number)
			form.Set("route", "City loop")
			form.Set("description", "d")
			form.Set("fare", "10")
			form.Set("timings", "6am-10pm")
			form.Set("stops", "A,B")
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			var dst model.CreateBusRequest
			fields := BindForm(contextFor(req), &dst)
			if tc.ok {
				assert.Nil(t, fields)
				return
			}
			require.NotNil(t, fields)
			assert.Contains(t, fields["busNumber"], "may only contain")
		})
	}
}
