package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/skip2/go-qrcode"
)

const (
	minQRSize = 64
	maxQRSize = 1024
)

// SeasonQR encodes a PNG QR code linking to the live page of seasonID.
func SeasonQR(publicURL, seasonID string, size int) ([]byte, error) {
	link := publicURL + "/?season=" + url.QueryEscape(seasonID)
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// qrSize reads ?size=, clamped to a sane range.
func qrSize(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		n = def
	}
	return min(max(n, minQRSize), maxQRSize)
}
