package utils

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/tiff"
)

type Raster interface {
	GetNoData() float64
}

type ByteRaster struct {
	Data          []uint8
	Height, Width int
	NoData        float64
}

func (r *ByteRaster) GetNoData() float64 {
	return r.NoData
}

type Int16Raster struct {
	Data          []int16
	Height, Width int
	NoData        float64
}

func (r *Int16Raster) GetNoData() float64 {
	return r.NoData
}

type UInt16Raster struct {
	Data          []uint16
	Height, Width int
	NoData        float64
}

func (r *UInt16Raster) GetNoData() float64 {
	return r.NoData
}

type Float32Raster struct {
	Data          []float32
	Height, Width int
	NoData        float64
}

func (r *Float32Raster) GetNoData() float64 {
	return r.NoData
}

// ValidateRasterSlice checks all bands share one size and data type
// and reports them.
func ValidateRasterSlice(rs []Raster) (int, int, string, error) {
	var width, height int
	var rasterType string
	var err error

	check := func(w, h int, t string) {
		if rasterType == "" {
			rasterType = t
		} else if rasterType != t {
			err = fmt.Errorf("Mixed types")
		}

		if width == 0 {
			width = w
		} else if width != w {
			err = fmt.Errorf("Mixed width sizes")
		}

		if height == 0 {
			height = h
		} else if height != h {
			err = fmt.Errorf("Mixed height sizes")
		}
	}

	for _, r := range rs {
		switch t := r.(type) {
		case *ByteRaster:
			check(t.Width, t.Height, "Byte")
		case *Int16Raster:
			check(t.Width, t.Height, "Int16")
		case *UInt16Raster:
			check(t.Width, t.Height, "UInt16")
		case *Float32Raster:
			check(t.Width, t.Height, "Float32")
		default:
			err = fmt.Errorf("Raster type not implemented")
		}
	}
	return width, height, rasterType, err
}

// rasterToGray flattens one band into a grayscale image. Int16 values
// are offset into the unsigned range so ordering survives.
func rasterToGray(r Raster) (image.Image, error) {
	switch t := r.(type) {
	case *ByteRaster:
		img := image.NewGray(image.Rect(0, 0, t.Width, t.Height))
		copy(img.Pix, t.Data)
		return img, nil
	case *UInt16Raster:
		img := image.NewGray16(image.Rect(0, 0, t.Width, t.Height))
		for i, v := range t.Data {
			img.Pix[2*i] = uint8(v >> 8)
			img.Pix[2*i+1] = uint8(v)
		}
		return img, nil
	case *Int16Raster:
		img := image.NewGray16(image.Rect(0, 0, t.Width, t.Height))
		for i, v := range t.Data {
			u := uint16(int32(v) + 32768)
			img.Pix[2*i] = uint8(u >> 8)
			img.Pix[2*i+1] = uint8(u)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("Raster type not supported for image encoding")
	}
}

// rastersToImage builds the canvas for the image encoders: one band
// becomes grayscale, three byte bands become RGBA with nodata pixels
// left transparent.
func rastersToImage(rs []Raster) (image.Image, error) {
	if _, _, _, err := ValidateRasterSlice(rs); err != nil {
		return nil, err
	}

	switch len(rs) {
	case 1:
		return rasterToGray(rs[0])
	case 3:
		rasterR, okR := rs[0].(*ByteRaster)
		rasterG, okG := rs[1].(*ByteRaster)
		rasterB, okB := rs[2].(*ByteRaster)
		if !okR || !okG || !okB {
			return nil, fmt.Errorf("3 band encoding requires Byte rasters")
		}

		canvas := image.NewRGBA(image.Rect(0, 0, rasterR.Width, rasterR.Height))
		var start int
		for i := 0; i < rasterR.Width*rasterR.Height; i++ {
			if rasterR.Data[i] != 0xFF || rasterG.Data[i] != 0xFF || rasterB.Data[i] != 0xFF {
				start = i * 4
				canvas.Pix[start] = rasterR.Data[i]
				canvas.Pix[start+1] = rasterG.Data[i]
				canvas.Pix[start+2] = rasterB.Data[i]
				canvas.Pix[start+3] = 0xFF
			}
		}
		return canvas, nil
	default:
		return nil, fmt.Errorf("Cannot encode other than 1 or 3 bands into an image: Received %d", len(rs))
	}
}

func EncodePNG(w io.Writer, rs []Raster) error {
	canvas, err := rastersToImage(rs)
	if err != nil {
		return err
	}
	return png.Encode(w, canvas)
}

func EncodeJPEG(w io.Writer, rs []Raster) error {
	canvas, err := rastersToImage(rs)
	if err != nil {
		return err
	}
	if rgba, ok := canvas.(*image.RGBA); ok {
		// JPEG has no alpha; flatten nodata onto white.
		opaque := image.NewRGBA(rgba.Rect)
		for i := 0; i < len(rgba.Pix); i += 4 {
			if rgba.Pix[i+3] == 0 {
				opaque.Pix[i] = 0xFF
				opaque.Pix[i+1] = 0xFF
				opaque.Pix[i+2] = 0xFF
			} else {
				opaque.Pix[i] = rgba.Pix[i]
				opaque.Pix[i+1] = rgba.Pix[i+1]
				opaque.Pix[i+2] = rgba.Pix[i+2]
			}
			opaque.Pix[i+3] = 0xFF
		}
		canvas = opaque
	}
	return jpeg.Encode(w, canvas, &jpeg.Options{Quality: 90})
}

func EncodeTIFF(w io.Writer, rs []Raster) error {
	canvas, err := rastersToImage(rs)
	if err != nil {
		return err
	}
	return tiff.Encode(w, canvas, &tiff.Options{Compression: tiff.Deflate})
}

// NewCoverageEncoder binds an output format to its encoder over the
// given raster bands.
func NewCoverageEncoder(format *OutputFormat, rs []Raster) (CoverageEncoder, error) {
	switch strings.ToLower(format.MimeType) {
	case "image/png":
		return CoverageEncoderFunc(func(w io.Writer) error { return EncodePNG(w, rs) }), nil
	case "image/jpeg":
		return CoverageEncoderFunc(func(w io.Writer) error { return EncodeJPEG(w, rs) }), nil
	case "image/tiff", "image/geotiff":
		return CoverageEncoderFunc(func(w io.Writer) error { return EncodeTIFF(w, rs) }), nil
	default:
		return nil, InvalidParameterValue("format", fmt.Sprintf("Unsupported encoding format: %v", format.MimeType))
	}
}

