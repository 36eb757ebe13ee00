package backendapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/ports"
)

var _ ports.StyleTransferBackend = (*Client)(nil)

// StyleTransfer uploads both images as multipart parts content_image and
// style_image and returns the generated image. The returned Image has no ID.
func (c *Client) StyleTransfer(ctx context.Context, content, style studio.Image) (studio.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StyleTransferTimeout)
	defer cancel()

	body, contentType, err := encodeImages(map[studio.Slot]studio.Image{
		studio.SlotContent: content,
		studio.SlotStyle:   style,
	})
	if err != nil {
		return studio.Image{}, err
	}

	req, err := c.newRequest(ctx, c.cfg.StyleTransferPath, contentType, body)
	if err != nil {
		return studio.Image{}, err
	}
	resp, err := c.do(req, "style_transfer", maxImageBodyBytes)
	if err != nil {
		return studio.Image{}, err
	}
	if !resp.ok() {
		return studio.Image{}, fmt.Errorf("style transfer: %w: %d %s", ErrUnexpectedStatus, resp.status, c.detail(resp.body))
	}

	return c.decodeResult(resp)
}

// decodeResult accepts a raw image body or a JSON body carrying a data URL.
func (c *Client) decodeResult(resp response) (studio.Image, error) {
	mediaType, _, _ := mime.ParseMediaType(resp.contentType)

	if mediaType == "application/json" {
		dataURL := c.stringAt(decodeJSON(resp.body), c.cfg.ImagePath)
		if dataURL == "" {
			return studio.Image{}, apperrors.Network(errors.New("style transfer: JSON response has no image"))
		}
		ct, data, err := parseDataURL(dataURL)
		if err != nil {
			return studio.Image{}, apperrors.Network(fmt.Errorf("style transfer: %w", err))
		}
		return studio.Image{ContentType: ct, Data: data}, nil
	}

	if len(resp.body) == 0 {
		return studio.Image{}, apperrors.Network(errors.New("style transfer: empty response"))
	}
	ct := mediaType
	if !studio.IsImageMediaType(ct) {
		ct = http.DetectContentType(resp.body)
	}
	if !studio.IsImageMediaType(ct) {
		return studio.Image{}, apperrors.Network(fmt.Errorf("style transfer: response is %s, not an image", ct))
	}
	return studio.Image{ContentType: ct, Data: resp.body}, nil
}

func encodeImages(images map[studio.Slot]studio.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, slot := range []studio.Slot{studio.SlotContent, studio.SlotStyle} {
		img := images[slot]
		filename := img.Filename
		if filename == "" {
			filename = string(slot) + extensionFor(img.ContentType)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     slot.FormField(),
			"filename": filename,
		}))
		h.Set("Content-Type", img.ContentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create %s part: %w", slot, err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", fmt.Errorf("write %s part: %w", slot, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// parseDataURL decodes "data:<type>;base64,<payload>".
func parseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("image is not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URL")
	}
	ct, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URL is not base64 encoded")
	}
	if !studio.IsImageMediaType(ct) {
		return "", nil, fmt.Errorf("data URL type %q is not an image", ct)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return ct, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
