package auth

import (
	"encoding/base64"
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// totpIssuer is the label authenticator apps show for enrolled accounts.
const totpIssuer = "StitchTales"

// Enrollment is what a user needs to add StitchTales to an authenticator app.
type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
	QRCode string `json:"qr_code"` // base64 PNG
}

// NewEnrollment generates a fresh TOTP secret for account and renders its
// provisioning URL as a QR code.
func NewEnrollment(account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// ValidateCode checks a 6-digit code against secret for the current period.
func ValidateCode(code, secret string) bool {
	return totp.Validate(code, secret)
}
