package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/doclens/doclens/pkg/model"
	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gographics/imagick.v2/imagick"
)

// The MagickWand runtime is process-wide state: MagickWandTerminus is only
// safe once every wand is destroyed, and extractions run concurrently. It is
// initialized once and never torn down.
var imagickSetup sync.Once

// imageExtractor runs OCR over raster images. The image is normalized first
// (alpha stripped, sRGB, re-encoded as PNG), Tesseract is unreliable on
// exotic color modes.
type imageExtractor struct {
	language string
	logger   *logrus.Entry
}

func (e *imageExtractor) Extract(raw []byte) (string, Metadata, error) {

	normalized, dimensions, err := normalizeImage(raw)
	if err != nil {
		return "", Metadata{}, fmt.Errorf("normalizing image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", Metadata{}, fmt.Errorf("configuring ocr language %q: %w", e.language, err)
	}
	if err := client.SetImageFromBytes(normalized); err != nil {
		return "", Metadata{}, fmt.Errorf("loading image into ocr: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", Metadata{}, fmt.Errorf("running ocr: %w", err)
	}

	return strings.TrimSpace(text), Metadata{ImageDimensions: dimensions}, nil
}

func normalizeImage(raw []byte) ([]byte, *model.ImageDimensions, error) {

	imagickSetup.Do(imagick.Initialize)

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImageBlob(raw); err != nil {
		return nil, nil, fmt.Errorf("decoding image: %w", err)
	}

	dimensions := &model.ImageDimensions{
		Width:  int(mw.GetImageWidth()),
		Height: int(mw.GetImageHeight()),
	}

	if err := mw.SetImageAlphaChannel(imagick.ALPHA_CHANNEL_REMOVE); err != nil {
		return nil, nil, fmt.Errorf("flattening image alpha: %w", err)
	}
	if err := mw.TransformImageColorspace(imagick.COLORSPACE_SRGB); err != nil {
		return nil, nil, fmt.Errorf("converting image colorspace: %w", err)
	}
	if err := mw.SetImageFormat("png"); err != nil {
		return nil, nil, fmt.Errorf("re-encoding image: %w", err)
	}

	return mw.GetImageBlob(), dimensions, nil
}
