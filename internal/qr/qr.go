package qr

import (
	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

// EncodeInviteURL renders the public invite link as a PNG for the host
// dashboard.
func EncodeInviteURL(inviteURL string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultSize
	}
	return qrcode.Encode(inviteURL, qrcode.Medium, size)
}
