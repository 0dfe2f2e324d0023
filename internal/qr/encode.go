package qr

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/junhee/namecard-go/internal/constants"
)

// EncodeBase64PNG renders payload as a QR image with error correction L
// (vCard payloads are long, so the lowest redundancy keeps the symbol
// scannable) and returns the PNG base64-encoded for embedding in a JSON
// response.
func EncodeBase64PNG(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Low, constants.QRConfig.ImageSize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
