package discord

import (
	"encoding/base64"
	"net/http"
)

// bytesToBase64Data converts image bytes into a data URI for transport.
// Returns ErrUnsupportedImageType for anything that is not a jpeg, png,
// gif or webp.
func bytesToBase64Data(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)

	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
	default:
		return "", ErrUnsupportedImageType
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
