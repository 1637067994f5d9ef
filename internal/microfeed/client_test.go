package microfeed

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/media"
	"github.com/starford/feedpost/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func testClient(t *testing.T) (*Client, *testutil.FakeFeed) {
	t.Helper()
	feed := testutil.NewFakeFeed(t)
	c, err := New(feed.URL()+"/", testutil.FakeAPIKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, feed
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	if _, err := New("", "key"); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("empty url: err = %v, want ErrConfiguration", err)
	}
	if _, err := New("https://feed.test", " "); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("empty key: err = %v, want ErrConfiguration", err)
	}
}

func TestUploadMedia(t *testing.T) {
	c, feed := testClient(t)
	ctx := context.Background()

	url, err := c.UploadMedia(ctx, pngHeader, media.KindImage, "cover.png", "item-9")
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if url == "" {
		t.Fatal("empty media url")
	}

	presigns := feed.Presigns()
	if len(presigns) != 1 {
		t.Fatalf("presigns = %+v", presigns)
	}
	if p := presigns[0]; p.Category != "image" || p.Path != "cover.png" || p.ItemID != "item-9" {
		t.Errorf("presign = %+v", p)
	}

	uploads := feed.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %+v", uploads)
	}
	if uploads[0].HadAPIKey {
		t.Error("presigned PUT must not carry the API key")
	}
	if uploads[0].Size != len(pngHeader) {
		t.Errorf("size = %d, want %d", uploads[0].Size, len(pngHeader))
	}
	if uploads[0].ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", uploads[0].ContentType)
	}
}

func TestUploadMedia_NoItemIDOmitted(t *testing.T) {
	c, feed := testClient(t)
	if _, err := c.UploadMedia(context.Background(), []byte("x"), media.KindDocument, "a.txt", ""); err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if got := feed.Presigns()[0].ItemID; got != "" {
		t.Errorf("item id = %q, want empty", got)
	}
}

func TestUploadMedia_PresignFailure(t *testing.T) {
	c, feed := testClient(t)
	feed.FailOn(testutil.OpPresign, http.StatusForbidden)

	_, err := c.UploadMedia(context.Background(), []byte("x"), media.KindAudio, "a.mp3", "")
	var remote *apperr.RemoteServiceError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want RemoteServiceError", err)
	}
	if remote.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", remote.StatusCode)
	}
	if len(feed.Uploads()) != 0 {
		t.Error("no transfer expected after presign failure")
	}
}

func TestUploadMedia_TransferFailure(t *testing.T) {
	c, feed := testClient(t)
	feed.FailOn(testutil.OpUpload, http.StatusBadGateway)

	_, err := c.UploadMedia(context.Background(), []byte("x"), media.KindAudio, "a.mp3", "")
	var remote *apperr.RemoteServiceError
	if !errors.As(err, &remote) || remote.StatusCode != http.StatusBadGateway {
		t.Fatalf("err = %v, want 502 RemoteServiceError", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	feed := testutil.NewFakeFeed(t)
	c, err := New(feed.URL(), "wrong")
	if err != nil {
		t.Fatal(err)
	}
	err = c.Ping(context.Background())
	var remote *apperr.RemoteServiceError
	if !errors.As(err, &remote) || remote.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if remote.Body == "" {
		t.Error("expected response body in error")
	}
}

func TestCreateAndUpdateItem(t *testing.T) {
	c, feed := testClient(t)
	ctx := context.Background()
	item := &Item{
		Title:       "Hello",
		Status:      StatusUnlisted,
		ContentHTML: "<p>hi</p>",
		Attachment:  &Attachment{Category: media.KindExternalLink, URL: "https://example.com"},
		Extensions:  map[string]any{"itunes:episode": 3},
	}

	ref, err := c.CreateItem(ctx, item)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if ref.ID == "" || ref.URL == "" {
		t.Fatalf("ref = %+v", ref)
	}

	item.Title = "Hello again"
	upd, err := c.UpdateItem(ctx, ref.ID, item)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if upd.ID != ref.ID {
		t.Errorf("update id = %q, want %q", upd.ID, ref.ID)
	}

	calls := feed.Items()
	if len(calls) != 2 {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].Method != http.MethodPost || calls[1].Method != http.MethodPut || calls[1].ID != ref.ID {
		t.Errorf("calls = %+v", calls)
	}
	body := calls[0].Body
	if body["status"] != "unlisted" || body["content_html"] != "<p>hi</p>" {
		t.Errorf("body = %v", body)
	}
	att, _ := body["attachment"].(map[string]any)
	if att["category"] != "external_url" {
		t.Errorf("attachment = %v", att)
	}
	ext, _ := body["_microfeed"].(map[string]any)
	if ext["itunes:episode"] != float64(3) {
		t.Errorf("_microfeed = %v", ext)
	}
	if _, ok := body["image"]; ok {
		t.Error("empty image should be omitted")
	}
}

func TestCreateItem_Invalid(t *testing.T) {
	c, feed := testClient(t)
	_, err := c.CreateItem(context.Background(), &Item{Title: "", Status: "draft"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(feed.Items()) != 0 {
		t.Error("invalid item must not be sent")
	}
}

func TestCreateItem_RemoteError(t *testing.T) {
	c, feed := testClient(t)
	feed.FailOn(testutil.OpCreate, http.StatusInternalServerError)
	_, err := c.CreateItem(context.Background(), &Item{Title: "T", Status: StatusPublished})
	var remote *apperr.RemoteServiceError
	if !errors.As(err, &remote) || remote.Op != "create item" {
		t.Fatalf("err = %v", err)
	}
}

func TestPing(t *testing.T) {
	c, feed := testClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	feed.FailOn(testutil.OpFeed, http.StatusServiceUnavailable)
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected ping failure")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("unpublished"); !ok || s != StatusUnpublished {
		t.Errorf("ParseStatus(unpublished) = %q, %v", s, ok)
	}
	if _, ok := ParseStatus("draft"); ok {
		t.Error("draft should be invalid")
	}
}
