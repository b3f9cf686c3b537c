package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestInstagramPublisher_TwoPhaseSuccess(t *testing.T) {
	var createCalls, publishCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acc1/media":
			createCalls++
			body := decodeBody(t, r)
			assert.Equal(t, "https://cdn.example.com/x.jpg", body["image_url"])
			assert.Equal(t, "Hello", body["caption"])
			assert.Equal(t, "tok", body["access_token"])
			json.NewEncoder(w).Encode(map[string]string{"id": "container1"})
		case "/acc1/media_publish":
			publishCalls++
			body := decodeBody(t, r)
			assert.Equal(t, "container1", body["creation_id"])
			assert.Equal(t, "tok", body["access_token"])
			json.NewEncoder(w).Encode(map[string]string{"id": "IG123"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewInstagramPublisher(srv.Client()).WithBaseURL(srv.URL)

	result, err := p.Publish(context.Background(), &Publication{
		AccountID:   "acc1",
		AccessToken: "tok",
		MediaURL:    "https://cdn.example.com/x.jpg",
		MediaKind:   "image",
		Caption:     "Hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "IG123", result.PlatformPostID)
	assert.Equal(t, 1, createCalls)
	assert.Equal(t, 1, publishCalls)
}

func TestInstagramPublisher_VideoUsesReels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/acc1/media" {
			body := decodeBody(t, r)
			assert.Equal(t, "https://cdn.example.com/x.mp4", body["video_url"])
			assert.Equal(t, "REELS", body["media_type"])
			assert.Nil(t, body["image_url"])
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "any"})
	}))
	defer srv.Close()

	p := NewInstagramPublisher(srv.Client()).WithBaseURL(srv.URL)

	_, err := p.Publish(context.Background(), &Publication{
		AccountID:   "acc1",
		AccessToken: "tok",
		MediaURL:    "https://cdn.example.com/x.mp4",
		MediaKind:   "video",
	})
	require.NoError(t, err)
}

func TestInstagramPublisher_Phase1FailureStopsPhase2(t *testing.T) {
	var publishCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acc1/media":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "Invalid image URL"},
			})
		case "/acc1/media_publish":
			publishCalls++
		}
	}))
	defer srv.Close()

	p := NewInstagramPublisher(srv.Client()).WithBaseURL(srv.URL)

	_, err := p.Publish(context.Background(), &Publication{
		AccountID:   "acc1",
		AccessToken: "tok",
		MediaURL:    "https://private/x.jpg",
		MediaKind:   "image",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid image URL", err.Error())
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 0, publishCalls, "phase 2 must never run after a phase 1 failure")
}

func TestInstagramPublisher_Phase2Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acc1/media":
			json.NewEncoder(w).Encode(map[string]string{"id": "container1"})
		case "/acc1/media_publish":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "Media not ready"},
			})
		}
	}))
	defer srv.Close()

	p := NewInstagramPublisher(srv.Client()).WithBaseURL(srv.URL)

	_, err := p.Publish(context.Background(), &Publication{
		AccountID:   "acc1",
		AccessToken: "tok",
		MediaURL:    "https://cdn.example.com/x.jpg",
		MediaKind:   "image",
	})
	require.Error(t, err)
	assert.Equal(t, "Media not ready", err.Error())
}

func TestInstagramPublisher_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	p := NewInstagramPublisher(srv.Client()).WithBaseURL(srv.URL)

	_, err := p.Publish(context.Background(), &Publication{
		AccountID:   "acc1",
		AccessToken: "tok",
		MediaURL:    "https://cdn.example.com/x.jpg",
		MediaKind:   "image",
	})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestInstagramPublisher_EmbeddedErrorOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Application request limit reached"},
		})
	}))
	defer srv.Close()

	p := NewInstagramPublisher(srv.Client()).WithBaseURL(srv.URL)

	_, err := p.Publish(context.Background(), &Publication{
		AccountID:   "acc1",
		AccessToken: "tok",
		MediaURL:    "https://cdn.example.com/x.jpg",
		MediaKind:   "image",
	})
	require.Error(t, err)
	assert.Equal(t, "Application request limit reached", err.Error())
}
