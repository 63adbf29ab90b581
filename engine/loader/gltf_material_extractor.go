package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-ocean/engine/scene"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// gltfMaterialExtractor converts glTF materials and the base colour textures they reference.
// Textures shared between materials are decoded once and shared.
type gltfMaterialExtractor struct {
	parser   gltfParser
	textures map[int]*scene.Texture
}

// extractMaterials converts the metallic-roughness factors and base colour texture of every
// glTF material. Missing factors take the glTF defaults.
//
// Parameters:
//   - p: a parser holding a loaded document
//
// Returns:
//   - []scene.Material: one material per glTF material, in document order
//   - error: error if a referenced texture cannot be read or decoded
func extractMaterials(p gltfParser) ([]scene.Material, error) {
	e := &gltfMaterialExtractor{parser: p, textures: make(map[int]*scene.Texture)}
	doc := p.Document()

	out := make([]scene.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		m := scene.DefaultMaterial()
		m.BaseColor = [4]float32{1, 1, 1, 1}
		m.Roughness = 1
		m.Metallic = 1
		if pbr := gm.PBR; pbr != nil {
			if pbr.BaseColorFactor != nil {
				m.BaseColor = *pbr.BaseColorFactor
			}
			if pbr.RoughnessFactor != nil {
				m.Roughness = *pbr.RoughnessFactor
			}
			if pbr.MetallicFactor != nil {
				m.Metallic = *pbr.MetallicFactor
			}
			if info := pbr.BaseColorTexture; info != nil && info.TexCoord == 0 {
				tex, err := e.texture(info.Index)
				if err != nil {
					return nil, fmt.Errorf("material %d (%s): %w", i, gm.Name, err)
				}
				m.BaseColorTexture = tex
			}
		}
		out[i] = m
	}
	return out, nil
}

// texture returns the decoded image of a glTF texture, or nil when the texture has no source.
func (e *gltfMaterialExtractor) texture(textureIndex int) (*scene.Texture, error) {
	if tex, ok := e.textures[textureIndex]; ok {
		return tex, nil
	}

	doc := e.parser.Document()
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	gt := &doc.Textures[textureIndex]
	if gt.Source == nil {
		e.textures[textureIndex] = nil
		return nil, nil
	}
	imageIndex := *gt.Source
	if imageIndex < 0 || imageIndex >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}
	img := &doc.Images[imageIndex]

	data, err := e.imageData(img)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", imageIndex, err)
	}
	tex, err := decodeTexture(data)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", imageIndex, err)
	}
	tex.Name = img.Name
	if tex.Name == "" {
		tex.Name = gt.Name
	}

	e.textures[textureIndex] = tex
	return tex, nil
}

// imageData reads the encoded bytes of an image from its bufferView, data URI or file.
func (e *gltfMaterialExtractor) imageData(img *gltfImage) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		data, err := e.parser.ReadBufferView(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		return data, nil
	case strings.HasPrefix(img.URI, "data:"):
		data, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		return data, nil
	case img.URI != "":
		data, err := os.ReadFile(filepath.Join(e.parser.BaseDir(), img.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to load %q: %w", img.URI, err)
		}
		return data, nil
	default:
		return nil, errors.New("image has neither bufferView nor URI")
	}
}

// decodeTexture decodes a PNG, JPEG, BMP or WebP image into tightly packed RGBA8 pixels.
func decodeTexture(data []byte) (*scene.Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &scene.Texture{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}, nil
}
