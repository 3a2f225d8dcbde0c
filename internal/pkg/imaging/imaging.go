package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height for stored images.
const MaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxPixels bounds width*height of an image before it is decoded.
const MaxPixels = 40_000_000

// MaxImageSize is the largest accepted upload.
const MaxImageSize = int64(10 * 1024 * 1024) // 10MB

// AllowedExtensions lists the accepted upload file extensions.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// allowedMIME maps sniffed types to the extension they are stored with.
var allowedMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var ErrInvalidImage = errors.New("invalid image")

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data []byte
	MIME string
	Ext  string
}

// ValidateHeader checks the declared size and extension of an upload.
func ValidateHeader(header *multipart.FileHeader) error {
	if header.Size > MaxImageSize {
		return fmt.Errorf("%w: file size exceeds maximum allowed size of %d MB", ErrInvalidImage, MaxImageSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: file type %q not allowed. Allowed types: %s", ErrInvalidImage, ext, strings.Join(AllowedExtensions, ", "))
}

// Process reads image data and validates the format by sniffing bytes.
// JPEG and PNG are downscaled if larger than MaxDimension and re-encoded as JPEG.
// GIF and WebP are stored unchanged.
func Process(r io.Reader) (*ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if int64(len(data)) > MaxImageSize {
		return nil, fmt.Errorf("%w: file size exceeds maximum allowed size", ErrInvalidImage)
	}

	detected := http.DetectContentType(data)
	ext, ok := allowedMIME[detected]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image format %s", ErrInvalidImage, detected)
	}

	if detected == "image/gif" || detected == "image/webp" {
		return &ProcessResult{Data: data, MIME: detected, Ext: ext}, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: reading image header: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: image dimensions %dx%d exceed %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrInvalidImage, err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &ProcessResult{
		Data: buf.Bytes(),
		MIME: "image/jpeg",
		Ext:  ext,
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
