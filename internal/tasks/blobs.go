package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
)

// HandleBlobDeleteTask retries a blob deletion that failed on the request
// path. Deleting a missing blob succeeds, so redelivery is harmless.
func (p *TaskProcessor) HandleBlobDeleteTask(ctx context.Context, t *asynq.Task) error {
	var payload BlobDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Key == "" {
		return fmt.Errorf("invalid blob delete payload %q: %w", string(t.Payload()), asynq.SkipRetry)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.BlobCallTimeout)
	defer cancel()
	if err := p.blobStore.Delete(callCtx, payload.Key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", payload.Key, err)
	}
	log.Printf("Deferred blob deletion done: %s", payload.Key)
	return nil
}

// HandleImageNormalizeTask shrinks an uploaded image whose longer side is
// above the configured maximum. The object is rewritten under the same key,
// so its public URL stays valid.
func (p *TaskProcessor) HandleImageNormalizeTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageNormalizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Key == "" {
		return fmt.Errorf("invalid image normalize payload %q: %w", string(t.Payload()), asynq.SkipRetry)
	}

	data, contentType, err := p.blobStore.Download(ctx, payload.Key)
	if err != nil {
		return fmt.Errorf("failed to download image %s: %w", payload.Key, err)
	}

	out, outType, changed, err := NormalizeImage(data, uint(p.cfg.ImageMaxDimension))
	if err != nil {
		log.Printf("Skipping normalization of %s (%s): %v", payload.Key, contentType, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if !changed {
		return nil
	}

	if _, err := p.blobStore.Upload(ctx, payload.Key, out, outType); err != nil {
		return fmt.Errorf("failed to upload normalized image %s: %w", payload.Key, err)
	}
	log.Printf("Normalized image %s (%d -> %d bytes)", payload.Key, len(data), len(out))
	return nil
}

// NormalizeImage downsizes img to fit maxDimension on its longer side,
// keeping PNG as PNG and re-encoding JPEG as JPEG. GIFs are left alone so
// animations and the stored content type survive. It reports whether the
// image was changed.
func NormalizeImage(data []byte, maxDimension uint) ([]byte, string, bool, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("unsupported image format or corrupt image: %w", err)
	}
	if format == "gif" {
		return data, "", false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("corrupt %s image: %w", format, err)
	}

	b := img.Bounds()
	if maxDimension == 0 || (uint(b.Dx()) <= maxDimension && uint(b.Dy()) <= maxDimension) {
		return data, "", false, nil
	}

	resized := resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, resized); err != nil {
			return nil, "", false, fmt.Errorf("failed to encode resized png: %w", err)
		}
		return buf.Bytes(), "image/png", true, nil
	}
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", false, fmt.Errorf("failed to encode resized jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", true, nil
}
