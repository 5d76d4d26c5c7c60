package model

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// MaxInvoiceImages caps the attachments per invoice.
	MaxInvoiceImages = 6
	// MaxImageBytes caps a single attachment at 2 MB of raw data.
	MaxImageBytes = 2 << 20
)

var ErrImageTooLarge = fmt.Errorf("image exceeds the 2 MB limit")

// EncodeImage turns raw uploaded bytes into an InvoiceImage holding a
// base64 data URL. The content type is sniffed from the data; anything
// that is not an image is rejected.
func EncodeImage(name string, data []byte) (InvoiceImage, error) {
	if int64(len(data)) > MaxImageBytes {
		return InvoiceImage{}, ErrImageTooLarge
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return InvoiceImage{}, fmt.Errorf("unsupported attachment type %s", mime)
	}
	return InvoiceImage{
		Name: name,
		Data: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		Size: int64(len(data)),
	}, nil
}
