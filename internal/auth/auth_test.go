package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brigadez/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	v := auth.NewVerifier("secret")

	token, err := v.Issue("user-42", time.Minute)
	require.NoError(t, err)

	userID, err := v.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewVerifier("secret").Issue("user-42", time.Minute)
	require.NoError(t, err)

	_, err = auth.NewVerifier("other").Parse(token)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	v := auth.NewVerifier("secret")
	token, err := v.Issue("user-42", -time.Minute)
	require.NoError(t, err)

	_, err = v.Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRequiresSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewVerifier("secret").Parse(token)
	require.Error(t, err)
}

func TestParseRejectsOtherAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "user-42"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewVerifier("secret").Parse(token)
	require.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearerabc":    "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		require.Equal(t, want, auth.ExtractToken(req), header)
	}
}

func TestMiddleware(t *testing.T) {
	v := auth.NewVerifier("secret")
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := v.Middleware(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"missing token","code":"unauthenticated"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, gotUser)

	token, err := v.Issue("user-42", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "user-42", gotUser)
}

func TestUserIDFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := auth.UserIDFromContext(req.Context())
	require.False(t, ok)

	_, ok = auth.UserIDFromContext(auth.WithUserID(req.Context(), ""))
	require.False(t, ok)
}
