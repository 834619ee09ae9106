// Package qrcode renders MFA provisioning artifacts as QR code images so the
// otpauth:// URI produced during enrollment can be scanned by authenticator
// apps. Output is either raw PNG bytes or a base64 data URI for direct
// embedding in HTML.
package qrcode
