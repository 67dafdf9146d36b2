package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`+"\n", string(body))
}

func TestRender_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		Error(w, "something terrible happened", CodeInternal, http.StatusInternalServerError)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"error": "something terrible happened",
			"code": "INTERNAL_ERROR"
		}`,
		string(body),
	)
}

func TestRender_BindAndValidate(t *testing.T) {
	type registerRequest struct {
		Name     string `json:"name" validate:"required,min=2"`
		Email    string `json:"email" validate:"required,email"`
		UserType string `json:"userType" validate:"required,usertype"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, err := BindAndValidate[registerRequest](w, r)
		if err != nil {
			return
		}
		JSON(w, value)
	}))
	defer ts.Close()

	post := func(t *testing.T, body string) (*http.Response, string) {
		resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		return resp, string(raw)
	}

	t.Run("valid body passes through", func(t *testing.T) {
		resp, body := post(t, `{"name": "João", "email": "joao@fazenda.com.br", "userType": "PRODUTOR"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"name": "João", "email": "joao@fazenda.com.br", "userType": "PRODUTOR"}`, body)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, body := post(t, `not-json-at-all`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, `"code":"INVALID_JSON"`)
	})

	t.Run("wrong field type", func(t *testing.T) {
		resp, body := post(t, `{"name": 42}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Invalid data type for field 'name'")
	})

	t.Run("validation failures per field", func(t *testing.T) {
		resp, body := post(t, `{"name": "J", "email": "not-an-email", "userType": "ALIEN"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{
			"error": "Request validation failed",
			"code": "VALIDATION_ERROR",
			"fields": {
				"name": "Value is too short (minimum 2)",
				"email": "Must be a valid email address",
				"userType": "Must be one of PRODUTOR, COOPERATIVA, COMPRADOR"
			}
		}`, body)
	})

	t.Run("missing required field", func(t *testing.T) {
		resp, body := post(t, `{"email": "joao@fazenda.com.br", "userType": "PRODUTOR"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, `"name":"This field is required"`)
	})
}

func TestRender_GrainTypeTag(t *testing.T) {
	type processRequest struct {
		GrainType string `json:"grainType" validate:"required,graintype"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, err := BindAndValidate[processRequest](w, r)
		if err != nil {
			return
		}
		JSON(w, value)
	}))
	defer ts.Close()

	t.Run("known grain ok", func(t *testing.T) {
		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{"grainType": "Café"}`))
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown grain fails", func(t *testing.T) {
		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{"grainType": "Quinoa"}`))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(body), "Unknown grain type")
	})
}
