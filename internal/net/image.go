package net

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrEmptySource = errors.New("empty image source")

// DecodeDataURL returns the payload of a data: URL.
func DecodeDataURL(src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return data, err
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// Resolve turns a possibly relative image source into an absolute URL on
// the panel.
func (c *Client) Resolve(src string) (string, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	return c.endpoint.ResolveReference(ref).String(), nil
}

// FetchBytes returns the raw bytes behind an image source: data: URLs are
// decoded locally and everything else is downloaded with the panel cookies.
func (c *Client) FetchBytes(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmptySource
	}
	if strings.HasPrefix(src, "data:") {
		return DecodeDataURL(src)
	}

	target, err := c.Resolve(src)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// FetchImage downloads and decodes an image source.
func (c *Client) FetchImage(ctx context.Context, src string) (image.Image, error) {
	data, err := c.FetchBytes(ctx, src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// BackgroundSize reports the natural size of the background image.
func (c *Client) BackgroundSize(ctx context.Context, src string) (int, int, error) {
	data, err := c.FetchBytes(ctx, src)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode background: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// EncodeDataURL wraps raw bytes in a base64 data: URL with a sniffed type.
func EncodeDataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
