package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kana-labs/kana-auth/adapters/store"
	"github.com/kana-labs/kana-auth/adapters/tokenizer"
	"github.com/kana-labs/kana-auth/core"
	"github.com/kana-labs/kana-auth/ports"
	"github.com/kana-labs/kana-auth/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExchanger struct {
	configured bool
	identity   *ports.OAuthIdentity
}

func (f *fakeExchanger) Configured() bool { return f.configured }

func (f *fakeExchanger) AuthURL(state string) (string, error) {
	if !f.configured {
		return "", core.ErrNotConfigured
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?client_id=test", nil
}

func (f *fakeExchanger) Exchange(ctx context.Context, code, redirectURI string) (*ports.OAuthIdentity, error) {
	return f.identity, nil
}

type noopPublisher struct{}

func (*noopPublisher) PublishLogout(ctx context.Context, subject, tokenID string) error {
	return nil
}

func newTestRouter(t *testing.T, oauth ports.OAuthExchanger) *gin.Engine {
	t.Helper()
	svc := service.NewAuthService(
		store.NewMemoryChallengeStore(),
		store.NewMemoryRevocationRegistry(),
		store.NewMemoryIdentityDirectory(),
		tokenizer.NewJWTTokenizer([]byte("test-secret"), time.Hour),
		oauth,
		&noopPublisher{},
		zap.NewNop(),
	)
	return SetupRouter(svc, zap.NewNop())
}

func newWallet(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub), priv
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// walletLogin runs the challenge/verify flow and returns a bearer token.
func walletLogin(t *testing.T, router *gin.Engine, addr string, priv ed25519.PrivateKey) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/auth/challenge?wallet_address="+addr, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	message := decodeBody(t, w)["challenge"].(string)

	w = doJSON(router, http.MethodPost, "/auth/verify", "", gin.H{
		"wallet_address": addr,
		"signature":      base58.Encode(ed25519.Sign(priv, []byte(message))),
		"message":        message,
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decodeBody(t, w)["access_token"].(string)
}

func TestChallengeEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})
	addr, _ := newWallet(t)

	w := doJSON(router, http.MethodPost, "/auth/challenge?wallet_address="+addr, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, addr, body["wallet_address"])
	require.Contains(t, body["challenge"], "Sign this message to authenticate")
	require.NotEmpty(t, body["expires_at"])
}

func TestChallengeEndpointMissingAddress(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})

	w := doJSON(router, http.MethodPost, "/auth/challenge", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "bad_request", decodeBody(t, w)["code"])
}

func TestVerifyEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})
	addr, priv := newWallet(t)

	w := doJSON(router, http.MethodPost, "/auth/challenge?wallet_address="+addr, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	message := decodeBody(t, w)["challenge"].(string)
	signature := base58.Encode(ed25519.Sign(priv, []byte(message)))

	w = doJSON(router, http.MethodPost, "/auth/verify", "", gin.H{
		"wallet_address": addr,
		"signature":      signature,
		"message":        message,
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.NotEmpty(t, body["access_token"])
	require.Equal(t, "bearer", body["token_type"])
	require.Equal(t, float64(3600), body["expires_in"])
	require.Equal(t, addr, body["wallet_address"])

	// Replaying the identical request fails
	w = doJSON(router, http.MethodPost, "/auth/verify", "", gin.H{
		"wallet_address": addr,
		"signature":      signature,
		"message":        message,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthorized", decodeBody(t, w)["code"])
}

func TestProfileEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})
	addr, priv := newWallet(t)
	token := walletLogin(t, router, addr, priv)

	w := doJSON(router, http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, addr, body["wallet_address"])
	require.Equal(t, "wallet", body["auth_method"])
}

func TestProfileRequiresToken(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})

	w := doJSON(router, http.MethodGet, "/auth/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/auth/profile", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})
	addr, priv := newWallet(t)
	token := walletLogin(t, router, addr, priv)

	w := doJSON(router, http.MethodPost, "/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.NotEmpty(t, body["access_token"])
	require.NotEqual(t, token, body["access_token"])
}

func TestLogoutEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})
	addr, priv := newWallet(t)
	token := walletLogin(t, router, addr, priv)

	w := doJSON(router, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Every protected call with the revoked token now fails
	w = doJSON(router, http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/refresh", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleLoginUnconfigured(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{configured: false})

	w := doJSON(router, http.MethodGet, "/auth/google/login", "", nil)
	require.Equal(t, http.StatusNotImplemented, w.Code)
	require.Equal(t, "not_configured", decodeBody(t, w)["code"])
}

func TestGoogleCallbackEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{
		configured: true,
		identity:   &ports.OAuthIdentity{Email: "u@x.com", EmailVerified: true},
	})

	w := doJSON(router, http.MethodGet, "/auth/google/login", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, decodeBody(t, w)["auth_url"])

	w = doJSON(router, http.MethodPost, "/auth/google/callback", "", gin.H{
		"code":         "auth-code",
		"redirect_uri": "http://localhost/cb",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.NotEmpty(t, body["access_token"])
	require.Equal(t, "u@x.com", body["email"])
	require.Equal(t, "google", body["auth_method"])
}

func TestLinkWalletEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{
		configured: true,
		identity:   &ports.OAuthIdentity{Email: "u@x.com", EmailVerified: true},
	})
	addr, _ := newWallet(t)

	w := doJSON(router, http.MethodPost, "/auth/google/callback", "", gin.H{"code": "auth-code"})
	require.Equal(t, http.StatusOK, w.Code)
	googleToken := decodeBody(t, w)["access_token"].(string)

	w = doJSON(router, http.MethodPost, "/auth/link-wallet?wallet_address="+addr, googleToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "u@x.com", body["email"])
	require.Equal(t, addr, body["wallet_address"])
}

func TestLinkWalletWrongMethod(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})
	addr, priv := newWallet(t)
	other, _ := newWallet(t)
	token := walletLogin(t, router, addr, priv)

	w := doJSON(router, http.MethodPost, "/auth/link-wallet?wallet_address="+other, token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "bad_request", decodeBody(t, w)["code"])
}

func TestLinkWalletConflictEndpoint(t *testing.T) {
	exchanger := &fakeExchanger{
		configured: true,
		identity:   &ports.OAuthIdentity{Email: "u@x.com", EmailVerified: true},
	}
	router := newTestRouter(t, exchanger)
	addr, _ := newWallet(t)

	w := doJSON(router, http.MethodPost, "/auth/google/callback", "", gin.H{"code": "c"})
	require.Equal(t, http.StatusOK, w.Code)
	firstToken := decodeBody(t, w)["access_token"].(string)

	w = doJSON(router, http.MethodPost, "/auth/link-wallet?wallet_address="+addr, firstToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	exchanger.identity = &ports.OAuthIdentity{Email: "other@x.com", EmailVerified: true}
	w = doJSON(router, http.MethodPost, "/auth/google/callback", "", gin.H{"code": "c"})
	require.Equal(t, http.StatusOK, w.Code)
	secondToken := decodeBody(t, w)["access_token"].(string)

	w = doJSON(router, http.MethodPost, "/auth/link-wallet?wallet_address="+addr, secondToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "conflict", decodeBody(t, w)["code"])
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeExchanger{})

	w := doJSON(router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
