package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// FakeAPIKey is the key the fake service accepts.
const FakeAPIKey = "test-key"

// Operations that can be made to fail with FailOn.
const (
	OpPresign = "presign"
	OpUpload  = "upload"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpFeed    = "feed"
)

// PresignCall is one recorded presigned URL request.
type PresignCall struct {
	Category string
	Path     string
	ItemID   string
}

// UploadCall is one recorded presigned PUT.
type UploadCall struct {
	Slot        string
	ContentType string
	Size        int
	HadAPIKey   bool
}

// ItemCall is one recorded item create or update.
type ItemCall struct {
	Method string
	ID     string
	Body   map[string]any
}

// FakeFeed is an in-process stand-in for the content service.
type FakeFeed struct {
	Server *httptest.Server

	mu          sync.Mutex
	presigns    []PresignCall
	uploads     []UploadCall
	items       []ItemCall
	failOps     map[string]int
	failPaths   map[string]bool
	nextMedia   int
	nextItem    int
	mediaPrefix string
}

// NewFakeFeed starts a fake service and closes it when the test ends.
func NewFakeFeed(t *testing.T) *FakeFeed {
	t.Helper()
	f := &FakeFeed{
		failOps:     map[string]int{},
		failPaths:   map[string]bool{},
		mediaPrefix: "https://media.fake/m/",
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(f.requireKey)
		r.Post("/api/media_files/presigned_urls/", f.presign)
		r.Post("/api/items/", f.createItem)
		r.Put("/api/items/{id}/", f.updateItem)
		r.Get("/api/feed/", f.feed)
	})
	r.Put("/upload/{slot}", f.upload)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake service.
func (f *FakeFeed) URL() string {
	return f.Server.URL
}

// FailOn makes every call of op answer with status.
func (f *FakeFeed) FailOn(op string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOps[op] = status
}

// FailPath makes presigned URL requests for the given file name fail.
func (f *FakeFeed) FailPath(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPaths[name] = true
}

// Presigns returns the recorded presigned URL requests.
func (f *FakeFeed) Presigns() []PresignCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PresignCall(nil), f.presigns...)
}

// Uploads returns the recorded presigned PUTs.
func (f *FakeFeed) Uploads() []UploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UploadCall(nil), f.uploads...)
}

// Items returns the recorded item writes.
func (f *FakeFeed) Items() []ItemCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ItemCall(nil), f.items...)
}

func (f *FakeFeed) failure(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOps[op]
}

func (f *FakeFeed) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-MicrofeedAPI-Key") != FakeAPIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeFeed) presign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Path     string `json:"full_local_file_path"`
		ItemID   string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if status := f.failure(OpPresign); status != 0 {
		writeJSON(w, status, map[string]string{"error": "presign failed"})
		return
	}

	f.mu.Lock()
	if f.failPaths[req.Path] {
		f.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "presign failed for " + req.Path})
		return
	}
	f.presigns = append(f.presigns, PresignCall{Category: req.Category, Path: req.Path, ItemID: req.ItemID})
	f.nextMedia++
	slot := fmt.Sprintf("slot%d", f.nextMedia)
	mediaURL := fmt.Sprintf("%s%s/%d%s", f.mediaPrefix, req.Category, f.nextMedia, path.Ext(req.Path))
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"presigned_url": f.Server.URL + "/upload/" + slot,
		"media_url":     mediaURL,
	})
}

func (f *FakeFeed) upload(w http.ResponseWriter, r *http.Request) {
	if status := f.failure(OpUpload); status != 0 {
		w.WriteHeader(status)
		return
	}
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.uploads = append(f.uploads, UploadCall{
		Slot:        chi.URLParam(r, "slot"),
		ContentType: r.Header.Get("Content-Type"),
		Size:        len(data),
		HadAPIKey:   r.Header.Get("X-MicrofeedAPI-Key") != "",
	})
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *FakeFeed) createItem(w http.ResponseWriter, r *http.Request) {
	if status := f.failure(OpCreate); status != 0 {
		writeJSON(w, status, map[string]string{"error": "create failed"})
		return
	}
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.nextItem++
	id := fmt.Sprintf("item-%d", f.nextItem)
	f.items = append(f.items, ItemCall{Method: http.MethodPost, ID: id, Body: body})
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "url": "https://feed.fake/i/" + id})
}

func (f *FakeFeed) updateItem(w http.ResponseWriter, r *http.Request) {
	if status := f.failure(OpUpdate); status != 0 {
		writeJSON(w, status, map[string]string{"error": "update failed"})
		return
	}
	id := chi.URLParam(r, "id")
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.items = append(f.items, ItemCall{Method: http.MethodPut, ID: id, Body: body})
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (f *FakeFeed) feed(w http.ResponseWriter, _ *http.Request) {
	if status := f.failure(OpFeed); status != 0 {
		writeJSON(w, status, map[string]string{"error": "feed failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": "https://jsonfeed.org/version/1.1", "items": []any{}})
}

// MediaPrefix is the scheme and host of every media URL the fake hands out.
func (f *FakeFeed) MediaPrefix() string {
	return strings.TrimSuffix(f.mediaPrefix, "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
