package photostore

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"telegram-marketplace-bot/internal/config"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testStore(t *testing.T, endpoint string) *S3Store {
	t.Helper()
	logger := nopLogger()
	return NewS3Store(&config.PhotosConfig{
		Endpoint:  endpoint,
		Region:    "ru-central1",
		Bucket:    "photos",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		MaxWidth:  800,
		MaxHeight: 600,
	}, logger)
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

var keyPattern = regexp.MustCompile(`^/photos/[0-9a-f-]{36}_42_\d{14}\.jpg$`)

func TestS3Store_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads resized jpeg under a generated key", func(t *testing.T) {
		source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(encodeJPEG(t, 1600, 1200))
		}))
		defer source.Close()

		var putPath string
		var putBody []byte
		var authHeader string
		bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("unexpected method %s", r.Method)
			}
			putPath = r.URL.Path
			putBody, _ = io.ReadAll(r.Body)
			authHeader = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		defer bucket.Close()

		store := testStore(t, bucket.URL)
		urls := store.Upload(ctx, 42, []string{source.URL + "/photo.jpg"})
		if len(urls) != 1 {
			t.Fatalf("expected 1 url, got %v", urls)
		}
		if !keyPattern.MatchString(putPath) {
			t.Errorf("unexpected object key %q", putPath)
		}
		if !strings.HasPrefix(urls[0], bucket.URL+"/photos/") {
			t.Errorf("unexpected public url %q", urls[0])
		}
		if !strings.HasPrefix(authHeader, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/") {
			t.Errorf("unexpected authorization %q", authHeader)
		}
		if !strings.Contains(authHeader, "SignedHeaders=host;x-amz-content-sha256;x-amz-date") {
			t.Errorf("unexpected signed headers in %q", authHeader)
		}

		img, format, err := image.Decode(bytes.NewReader(putBody))
		if err != nil {
			t.Fatalf("stored object is not an image: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("expected jpeg, got %s", format)
		}
		b := img.Bounds()
		if b.Dx() > 800 || b.Dy() > 600 {
			t.Errorf("image not downscaled: %dx%d", b.Dx(), b.Dy())
		}
		// Aspect ratio of 4:3 fits exactly.
		if b.Dx() != 800 || b.Dy() != 600 {
			t.Errorf("expected 800x600, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("small image keeps its size", func(t *testing.T) {
		source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(encodeJPEG(t, 400, 300))
		}))
		defer source.Close()

		var putBody []byte
		bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			putBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer bucket.Close()

		store := testStore(t, bucket.URL)
		urls := store.Upload(ctx, 42, []string{source.URL})
		if len(urls) != 1 {
			t.Fatalf("expected 1 url, got %v", urls)
		}
		img, _, err := image.Decode(bytes.NewReader(putBody))
		if err != nil {
			t.Fatalf("decode stored object: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
			t.Errorf("small image must not be upscaled, got %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("failed sources are skipped, not fatal", func(t *testing.T) {
		good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(encodeJPEG(t, 100, 100))
		}))
		defer good.Close()
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer bad.Close()

		bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer bucket.Close()

		store := testStore(t, bucket.URL)
		urls := store.Upload(ctx, 42, []string{bad.URL, good.URL})
		if len(urls) != 1 {
			t.Fatalf("expected only the good photo, got %v", urls)
		}
	})

	t.Run("rejected put drops the photo", func(t *testing.T) {
		source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(encodeJPEG(t, 100, 100))
		}))
		defer source.Close()

		bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "access denied", http.StatusForbidden)
		}))
		defer bucket.Close()

		store := testStore(t, bucket.URL)
		if urls := store.Upload(ctx, 42, []string{source.URL}); len(urls) != 0 {
			t.Errorf("expected no urls, got %v", urls)
		}
	})
}
