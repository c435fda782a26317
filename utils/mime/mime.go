package mime

import (
	"fmt"
	"io"
	"net/http"
)

// SniffContentType 从流头部嗅探 MIME 类型，读完后把流拨回起始位置
func SniffContentType(stream io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)

	n, err := stream.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read stream for mime sniffing: %w", err)
	}

	contentType := http.DetectContentType(buffer[:n])

	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek stream back to start after sniffing: %w", err)
	}

	return contentType, nil
}
