package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/auraflow/internal/config"
	"github.com/teemow/auraflow/internal/toolerr"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		wantErr bool
	}{
		{"simple", "local", false},
		{"email", "jane.doe+cal@example.com", false},
		{"uuid", "6f1c2d3e-1111-2222-3333-444455556666", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"traversal", "..", true},
		{"hidden", ".profile", true},
		{"space", "my user", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUserID(tt.userID)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateUserID(%q) error = %v, wantErr %v", tt.userID, err, tt.wantErr)
			}
		})
	}
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())

	assert.False(t, store.Has("alice"))
	_, err := store.Load("alice")
	assert.ErrorIs(t, err, ErrNoToken)

	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, store.Save("alice", tok))
	assert.True(t, store.Has("alice"))

	got, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)

	assert.Error(t, store.Save("../bob", tok))
	assert.False(t, store.Has("../bob"))
}

func tokenServer(t *testing.T, calls *atomic.Int32, access string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		if r.Form.Get("refresh_token") == "revoked" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","refresh_token":"rt2","expires_in":3600}`, access)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return NewOAuthConfig(config.GoogleConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/callback",
	}, &oauth2.Endpoint{AuthURL: "https://auth.example.com", TokenURL: tokenURL})
}

func TestAuthURL(t *testing.T) {
	conf := testOAuthConfig("https://token.example.com")
	u, err := url.Parse(AuthURL(conf, "xyz"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/calendar")
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/tasks")
}

func TestExchange_StoresToken(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, "fresh")
	store := NewFileTokenStore(t.TempDir())

	require.NoError(t, Exchange(context.Background(), testOAuthConfig(srv.URL), store, "alice", "code-123"))

	tok, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
}

func TestClientFactory_MissingToken(t *testing.T) {
	f := NewClientFactory(testOAuthConfig("http://unused"), NewFileTokenStore(t.TempDir()), nil, nil)

	_, err := f.HTTPClient(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, toolerr.KindAuthExpired, toolerr.KindOf(err))
	assert.False(t, f.HasToken("nobody"))
}

func TestClientFactory_RefreshIsPersisted(t *testing.T) {
	var calls atomic.Int32
	tokens := tokenServer(t, &calls, "refreshed")

	var sawAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	store := NewFileTokenStore(t.TempDir())
	require.NoError(t, store.Save("alice", &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	f := NewClientFactory(testOAuthConfig(tokens.URL), store, nil, nil)
	client, err := f.HTTPClient(context.Background(), "alice")
	require.NoError(t, err)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer refreshed", sawAuth.Load())
	assert.EqualValues(t, 1, calls.Load())

	saved, err := store.Load("alice")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", saved.AccessToken)
}

func TestClientFactory_RevokedRefreshIsAuthExpired(t *testing.T) {
	var calls atomic.Int32
	tokens := tokenServer(t, &calls, "never")

	store := NewFileTokenStore(t.TempDir())
	require.NoError(t, store.Save("alice", &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	f := NewClientFactory(testOAuthConfig(tokens.URL), store, nil, nil)
	client, err := f.HTTPClient(context.Background(), "alice")
	require.NoError(t, err)

	_, err = client.Get("http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.Equal(t, toolerr.KindAuthExpired, toolerr.KindOf(err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want toolerr.Kind
	}{
		{"404", &googleapi.Error{Code: 404, Message: "Not Found"}, toolerr.KindNotFound},
		{"410 deleted", fmt.Errorf("events.delete: %w", &googleapi.Error{Code: 410}), toolerr.KindNotFound},
		{"401", &googleapi.Error{Code: 401}, toolerr.KindAuthExpired},
		{"403", &googleapi.Error{Code: 403, Message: "insufficientPermissions"}, toolerr.KindGeneric},
		{"400", &googleapi.Error{Code: 400}, toolerr.KindInvalidArgument},
		{"invalid_grant", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}, toolerr.KindAuthExpired},
		{"no token", ErrNoToken, toolerr.KindAuthExpired},
		{"deadline", context.DeadlineExceeded, toolerr.KindTimeout},
		{"other", errors.New("connection reset"), toolerr.KindGeneric},
		{"already tagged", toolerr.New(toolerr.KindNoMatch, "tasks", "no match"), toolerr.KindNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("op", tt.err)
			assert.Equal(t, tt.want, toolerr.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, Classify("op", nil))
}
