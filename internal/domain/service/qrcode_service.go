package service

import "github.com/google/uuid"

// QRCodeService generates share QR codes for CRM records.
type QRCodeService interface {
	// GenerateClientQR returns a PNG QR code encoding the client detail URL.
	GenerateClientQR(clientID uuid.UUID) ([]byte, error)
}
