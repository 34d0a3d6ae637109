package codec

import (
	"bufio"
	"bytes"
)

func newBufReader(p []byte) *bufio.Reader {
	return bufio.NewReader(bytes.NewReader(p))
}
