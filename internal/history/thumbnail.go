package history

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/MeKo-Tech/stylizer/internal/imageio"
	"github.com/MeKo-Tech/stylizer/internal/raster"
)

// ThumbnailSize bounds the longer side of stored thumbnails.
const ThumbnailSize = 128

// MakeThumbnail encodes a PNG preview of img no larger than ThumbnailSize.
func MakeThumbnail(img *raster.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, imageio.ResizeBounded(img, ThumbnailSize), imageio.FormatPNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gzipCompress compresses data with gzip.
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}

	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
