package launchlibrary

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// readCloser pairs a decoding reader with the Close of the layers underneath it.
type readCloser struct {
	io.Reader
	close func() error
}

func (rc *readCloser) Close() error {
	return rc.close()
}

// decodeBody returns a reader over the decompressed response body.
// gzip and br are handled since the client advertises both in Accept-Encoding;
// the body is capped at maxBodyBytes after decompression.
func decodeBody(res *http.Response) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(res.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return &readCloser{Reader: io.LimitReader(res.Body, maxBodyBytes), close: res.Body.Close}, nil
	case "gzip":
		gzipReader, err := gzip.NewReader(res.Body)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return &readCloser{
			Reader: io.LimitReader(gzipReader, maxBodyBytes),
			close: func() error {
				gzipReader.Close()
				return res.Body.Close()
			},
		}, nil
	case "br":
		brotliReader := brotli.NewReader(res.Body)
		return &readCloser{Reader: io.LimitReader(brotliReader, maxBodyBytes), close: res.Body.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
