package receipt

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// QRGenerator renders an order reference as a PNG QR code.
type QRGenerator struct {
	Size int
}

func Payload(orderID uuid.UUID) string {
	return "order:" + orderID.String()
}

func (g QRGenerator) Generate(orderID uuid.UUID) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(Payload(orderID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
