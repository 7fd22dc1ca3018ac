package photostore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"telegram-marketplace-bot/internal/config"
	"telegram-marketplace-bot/internal/domain/ports/adapter"
	"telegram-marketplace-bot/internal/infra/logging"
	"telegram-marketplace-bot/internal/infra/metrics"
)

var _ adapter.PhotoStore = (*S3Store)(nil)

// S3Store uploads chat photos into an S3-compatible bucket. Sources are
// fetched over HTTP (Telegram file URLs), downscaled to bounded JPEG and
// stored under a generated key.
type S3Store struct {
	endpoint  string
	region    string
	bucket    string
	signer    *v4Signer
	maxWidth  int
	maxHeight int
	client    *http.Client
	log       *zerolog.Logger
}

func NewS3Store(cfg *config.PhotosConfig, logger *zerolog.Logger) *S3Store {
	return &S3Store{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		region:    cfg.Region,
		bucket:    cfg.Bucket,
		signer:    newV4Signer(cfg.AccessKey, cfg.SecretKey, cfg.Region),
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       logger,
	}
}

// Upload stores each source photo and returns the public URLs of the ones
// that made it. Failures are logged and skipped, never fatal: a listing
// with fewer photos beats a lost listing.
func (s *S3Store) Upload(ctx context.Context, userID int64, sourceURIs []string) []string {
	urls := make([]string, 0, len(sourceURIs))
	for _, src := range sourceURIs {
		url, err := s.uploadOne(ctx, userID, src)
		if err != nil {
			metrics.IncPhotosDropped()
			logging.With(ctx, s.log).Warn().Err(err).Str("source", src).Msg("photo upload dropped")
			continue
		}
		metrics.IncPhotosUploaded()
		urls = append(urls, url)
	}
	return urls
}

func (s *S3Store) uploadOne(ctx context.Context, userID int64, src string) (string, error) {
	start := time.Now()
	url, err := s.doUpload(ctx, userID, src)
	metrics.ObserveGatewayCall("photostore", "upload", start, err)
	return url, err
}

func (s *S3Store) doUpload(ctx context.Context, userID int64, src string) (string, error) {
	raw, err := s.fetch(ctx, src)
	if err != nil {
		return "", fmt.Errorf("fetch source: %w", err)
	}

	body, err := s.normalize(raw)
	if err != nil {
		return "", fmt.Errorf("normalize image: %w", err)
	}

	key := fmt.Sprintf("%s_%d_%s.jpg", uuid.NewString(), userID, time.Now().UTC().Format("20060102150405"))
	objectURL := fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objectURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.ContentLength = int64(len(body))
	s.signer.sign(req, body, time.Now().UTC())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("put object: status %d: %s", resp.StatusCode, string(snippet))
	}
	return objectURL, nil
}

func (s *S3Store) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}

// normalize re-encodes the photo as JPEG, downscaling so it fits inside
// maxWidth x maxHeight with the aspect ratio kept.
func (s *S3Store) normalize(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > s.maxWidth || h > s.maxHeight {
		scale := float64(s.maxWidth) / float64(w)
		if sh := float64(s.maxHeight) / float64(h); sh < scale {
			scale = sh
		}
		nw, nh := int(float64(w)*scale), int(float64(h)*scale)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
