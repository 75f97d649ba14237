package odata

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// countingReader records how many bytes pass through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// skipBOM returns r without a leading UTF-8 byte order mark, which some
// OData services put in front of JSON bodies.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// readBody reads at most limit bytes of body with any BOM removed and
// invalid UTF-8 replaced. It also reports the raw byte count read.
func readBody(body io.Reader, limit int64) ([]byte, int64, error) {
	cr := &countingReader{r: io.LimitReader(body, limit)}
	data, err := io.ReadAll(skipBOM(cr))
	if err != nil {
		return nil, cr.n, err
	}
	return bytes.ToValidUTF8(data, []byte("�")), cr.n, nil
}
