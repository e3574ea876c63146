package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSeriesRecommendationRanksByLikes(t *testing.T) {
	env := newTestEnv(t)
	env.registerAdmin(t, "rootadmin", "longenough")
	cookie := env.login(t, "rootadmin", "longenough")

	body, contentType := multipartBody(t, map[string]string{"title": "Quiet"}, thumbnailFormField, "a.png", "image/png")
	request := httptest.NewRequest(http.MethodPost, "/series", body)
	request.Header.Set("Content-Type", contentType)
	request.AddCookie(cookie)
	if recorder := env.do(t, request); recorder.Code != http.StatusCreated {
		t.Fatalf("series creation returned %d: %s", recorder.Code, recorder.Body.String())
	}

	body, contentType = multipartBody(t, map[string]string{"title": "Popular"}, thumbnailFormField, "b.png", "image/png")
	request = httptest.NewRequest(http.MethodPost, "/series", body)
	request.Header.Set("Content-Type", contentType)
	request.AddCookie(cookie)
	if recorder := env.do(t, request); recorder.Code != http.StatusCreated {
		t.Fatalf("series creation returned %d: %s", recorder.Code, recorder.Body.String())
	}

	popularID := int64(2)
	postID := env.createPost(t, cookie, `{"title":"Hit","body":"AAA","seriesId":2}`)
	if err := env.posts.RegisterLike(context.Background(), postID, "2001:db8::1"); err != nil {
		t.Fatalf("failed to seed like: %v", err)
	}

	recorder := env.do(t, httptest.NewRequest(http.MethodGet, "/series/recommand", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("recommendation returned %d", recorder.Code)
	}
	var recommendations []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &recommendations); err != nil {
		t.Fatalf("failed to decode recommendations: %v", err)
	}
	if len(recommendations) == 0 || recommendations[0].ID != popularID {
		t.Fatalf("liked series must rank first, got %v", recommendations)
	}
}

func TestSeriesDeleteReportsStrandedThumbnail(t *testing.T) {
	env := newTestEnv(t)
	env.registerAdmin(t, "rootadmin", "longenough")
	cookie := env.login(t, "rootadmin", "longenough")

	body, contentType := multipartBody(t, map[string]string{"title": "Quiet"}, thumbnailFormField, "a.png", "image/png")
	request := httptest.NewRequest(http.MethodPost, "/series", body)
	request.Header.Set("Content-Type", contentType)
	request.AddCookie(cookie)
	if recorder := env.do(t, request); recorder.Code != http.StatusCreated {
		t.Fatalf("series creation returned %d: %s", recorder.Code, recorder.Body.String())
	}

	env.store.failDelete = true
	request = httptest.NewRequest(http.MethodDelete, "/series/1", nil)
	request.AddCookie(cookie)
	recorder := env.do(t, request)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("stranded thumbnail delete returned %d, want 400", recorder.Code)
	}

	if recorder := env.do(t, httptest.NewRequest(http.MethodGet, "/series/1", nil)); recorder.Code != http.StatusNotFound {
		t.Fatalf("series row must be removed even when asset cleanup fails, got %d", recorder.Code)
	}
}
