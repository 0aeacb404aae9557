package model

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_SingleFetchUnderConcurrency(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(`{"data":[{"id":"qwen2.5-7b","object":"model"}]}`))
	}))
	defer srv.Close()

	b, err := NewChatBackend(HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	catalog := NewBackendCatalog(b)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			id, err := catalog.DefaultModel(context.Background())
			if err == nil && id != "qwen2.5-7b" {
				err = errors.New("unexpected default " + id)
			}
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int64(1), catalog.Fetches())

	_, err = catalog.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "cached after the first fetch")
}

func TestCatalog_SharedFetchOutlivesFirstCaller(t *testing.T) {
	started := make(chan struct{})
	catalog := NewCatalog(func(ctx context.Context) ([]ModelInfo, error) {
		close(started)
		select {
		case <-time.After(100 * time.Millisecond):
			return []ModelInfo{{ID: "llama-3"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	errA := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := catalog.Models(ctx)
		errA <- err
	}()
	<-started

	models, err := catalog.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "llama-3", models[0].ID)

	assert.ErrorIs(t, <-errA, context.DeadlineExceeded)
	assert.Equal(t, int64(1), catalog.Fetches())
}

func TestCatalog_RefreshAndInvalidate(t *testing.T) {
	calls := 0
	catalog := NewCatalog(func(context.Context) ([]ModelInfo, error) {
		calls++
		return []ModelInfo{{ID: "gpt-4o-mini"}}, nil
	})
	ctx := context.Background()

	_, err := catalog.Models(ctx)
	require.NoError(t, err)
	_, err = catalog.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = catalog.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	catalog.Invalidate()
	_, err = catalog.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCatalog_FailedFetchIsRetried(t *testing.T) {
	calls := 0
	catalog := NewCatalog(func(context.Context) ([]ModelInfo, error) {
		calls++
		if calls == 1 {
			return nil, &UnavailableError{Backend: "chat", Err: errors.New("down")}
		}
		return []ModelInfo{{ID: "m"}}, nil
	})

	_, err := catalog.Models(context.Background())
	require.Error(t, err)
	models, err := catalog.Models(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	catalog := NewCatalog(func(context.Context) ([]ModelInfo, error) {
		return []ModelInfo{{ID: "a"}}, nil
	})
	first, err := catalog.Models(context.Background())
	require.NoError(t, err)
	first[0].ID = "mutated"

	second, err := catalog.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", second[0].ID)
}

func TestSelectDefault(t *testing.T) {
	ids := func(names ...string) []ModelInfo {
		out := make([]ModelInfo, len(names))
		for i, n := range names {
			out[i] = ModelInfo{ID: n}
		}
		return out
	}

	tests := []struct {
		name   string
		models []ModelInfo
		prefs  []string
		want   string
		ok     bool
	}{
		{name: "preference order beats list order", models: ids("gpt-4o", "mistral-7b", "llama-3.1-8b"), prefs: DefaultPreferences, want: "llama-3.1-8b", ok: true},
		{name: "case-insensitive", models: ids("Qwen2.5-72B-Instruct"), prefs: DefaultPreferences, want: "Qwen2.5-72B-Instruct", ok: true},
		{name: "non-chat models skipped", models: ids("llama-embed-v1", "whisper-1", "gpt-4o-mini"), prefs: DefaultPreferences, want: "gpt-4o-mini", ok: true},
		{name: "fallback to first chat-capable", models: ids("text-embedding-3", "claude-like", "other"), prefs: DefaultPreferences, want: "claude-like", ok: true},
		{name: "custom preferences", models: ids("llama-3", "gemma-2"), prefs: []string{"gemma"}, want: "gemma-2", ok: true},
		{name: "nothing chat-capable", models: ids("tts-1", "dall-e-3", "bge-rerank"), prefs: DefaultPreferences, ok: false},
		{name: "empty catalog", models: nil, prefs: DefaultPreferences, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectDefault(tt.models, tt.prefs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_DefaultModelWithoutChatModel(t *testing.T) {
	catalog := NewCatalog(func(context.Context) ([]ModelInfo, error) {
		return []ModelInfo{{ID: "text-embedding-3"}}, nil
	})
	_, err := catalog.DefaultModel(context.Background())
	var invalid *ResponseInvalidError
	assert.ErrorAs(t, err, &invalid)
}
