// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SolidTexture returns staging data for a single-pixel texture of the given color.
//
// Parameters:
//   - r, g, b, a: the pixel color
//
// Returns:
//   - TextureStagingData: a 1x1 RGBA texture
func SolidTexture(r, g, b, a uint8) TextureStagingData {
	return TextureStagingData{Pixels: []byte{r, g, b, a}, Width: 1, Height: 1}
}

// TextureFromImage converts any decoded image into RGBA staging data.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - TextureStagingData: the RGBA pixels and dimensions of img
func TextureFromImage(img image.Image) TextureStagingData {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// LoadTexture decodes a PNG or JPEG from raw bytes or, when data is empty, from the file at path.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - path: the file to read when data is empty
//   - data: encoded image bytes
//
// Returns:
//   - TextureStagingData: the decoded RGBA texture
//   - error: error if neither source is usable or decoding fails
func LoadTexture(path string, data []byte) (TextureStagingData, error) {
	var img image.Image
	var err error

	switch {
	case len(data) > 0:
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	case path != "":
		file, fileErr := os.Open(path)
		if fileErr != nil {
			return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", path, err)
		}
	default:
		return TextureStagingData{}, fmt.Errorf("texture has neither data nor path")
	}

	return TextureFromImage(img), nil
}
