package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "papertrader/internal/errors"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// echoOperator responds with the operator the middleware stored.
func echoOperator(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"operator": c.GetString(OperatorKey)})
}

func TestPipelineAuthMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{name: "valid_api_key", configuredKey: "pipeline-key", requestKey: "pipeline-key", wantStatus: http.StatusOK},
		{name: "invalid_api_key", configuredKey: "pipeline-key", requestKey: "wrong", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "missing_api_key", configuredKey: "pipeline-key", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "prefix_rejected", configuredKey: "pipeline-key", requestKey: "pipeline", wantStatus: http.StatusUnauthorized, wantErrorCode: "INVALID_API_KEY"},
		{name: "not_configured", requestKey: "any", wantStatus: http.StatusServiceUnavailable, wantErrorCode: "PIPELINE_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/test", PipelineAuthMiddleware(tt.configuredKey), echoOperator)

			headers := map[string]string{}
			if tt.requestKey != "" {
				headers["X-API-Key"] = tt.requestKey
			}
			rec := doRequest(r, headers)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantErrorCode != "" {
				if code := errorCode(t, rec); code != tt.wantErrorCode {
					t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
				}
				return
			}
			if op := parseBody(t, rec)["operator"]; op != PipelineActor {
				t.Errorf("operator = %v, want %q", op, PipelineActor)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/test", AuthMiddleware(testSecret), echoOperator)

	t.Run("accepts_valid_token", func(t *testing.T) {
		token, err := GenerateOperatorToken(testSecret, "alice", time.Hour)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		rec := doRequest(r, map[string]string{"Authorization": "Bearer " + token})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if op := parseBody(t, rec)["operator"]; op != "alice" {
			t.Errorf("operator = %v, want alice", op)
		}
	})

	t.Run("rejects_missing_header", func(t *testing.T) {
		rec := doRequest(r, nil)
		if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "UNAUTHORIZED" {
			t.Errorf("expected 401 UNAUTHORIZED, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects_malformed_header", func(t *testing.T) {
		rec := doRequest(r, map[string]string{"Authorization": "Token abc"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects_wrong_secret", func(t *testing.T) {
		token, _ := GenerateOperatorToken("other-secret", "alice", time.Hour)
		rec := doRequest(r, map[string]string{"Authorization": "Bearer " + token})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects_expired_token", func(t *testing.T) {
		token, _ := GenerateOperatorToken(testSecret, "alice", -time.Minute)
		rec := doRequest(r, map[string]string{"Authorization": "Bearer " + token})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects_foreign_issuer", func(t *testing.T) {
		claims := &OperatorClaims{
			Operator: "alice",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		rec := doRequest(r, map[string]string{"Authorization": "Bearer " + token})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestGenerateOperatorToken_RequiresOperator(t *testing.T) {
	if _, err := GenerateOperatorToken(testSecret, "", time.Hour); err == nil {
		t.Error("expected error for empty operator")
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        *gin.Error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "app_error",
			err:        &gin.Error{Err: apperrors.ErrStaleQuote, Type: gin.ErrorTypePrivate},
			wantStatus: http.StatusConflict,
			wantCode:   "STALE_QUOTE",
		},
		{
			name:       "bind_error",
			err:        &gin.Error{Err: errors.New("quantity is required"), Type: gin.ErrorTypeBind},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "unexpected_error",
			err:        &gin.Error{Err: errors.New("boom"), Type: gin.ErrorTypePrivate},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.POST("/test", func(c *gin.Context) {
				c.Errors = append(c.Errors, tt.err)
			})

			rec := doRequest(r, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	t.Run("leaves_written_response", func(t *testing.T) {
		r := gin.New()
		r.Use(ErrorHandler())
		r.POST("/test", func(c *gin.Context) {
			c.JSON(http.StatusAccepted, gin.H{"ok": true})
			_ = c.Error(errors.New("late"))
		})

		rec := doRequest(r, nil)
		if rec.Code != http.StatusAccepted {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
		}
	})
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString(RequestIDKey)})
	})

	t.Run("generates_request_id", func(t *testing.T) {
		rec := doRequest(r, nil)
		id := rec.Header().Get("X-Request-ID")
		if id == "" {
			t.Fatal("expected X-Request-ID header")
		}
		if parseBody(t, rec)["request_id"] != id {
			t.Error("expected context request ID to match header")
		}
	})

	t.Run("keeps_valid_incoming_id", func(t *testing.T) {
		const incoming = "0190d5f4-8a4e-7c3b-9f2e-1a2b3c4d5e6f"
		rec := doRequest(r, map[string]string{"X-Request-ID": incoming})
		if got := rec.Header().Get("X-Request-ID"); got != incoming {
			t.Errorf("X-Request-ID = %q, want %q", got, incoming)
		}
	})

	t.Run("replaces_malformed_incoming_id", func(t *testing.T) {
		rec := doRequest(r, map[string]string{"X-Request-ID": "not-a-uuid"})
		if got := rec.Header().Get("X-Request-ID"); got == "not-a-uuid" {
			t.Error("expected malformed request ID to be replaced")
		}
	})
}
