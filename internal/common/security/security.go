// Package security provides input sanitization and PII masking for chat text.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// MaxInputLength bounds sanitized user input.
const MaxInputLength = 1000

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	dangerousRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\bDROP\b|\bDELETE\b|\bINSERT\b|\bUPDATE\b|\bCREATE\b|\bALTER\b)`),
		regexp.MustCompile(`(--|;|/\*|\*/)`),
		regexp.MustCompile(`(?i)(\bUNION\b.*\bSELECT\b)`),
		regexp.MustCompile(`(?i)(\bEXEC\b|\bEXECUTE\b)`),
		regexp.MustCompile(`(?i)(javascript:|onerror=|onload=)`),
	}

	emailRe      = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	phoneRe      = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	ssnRe        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	creditCardRe = regexp.MustCompile(`\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`)

	validEmailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneSepRe   = regexp.MustCompile(`[\-.\s()]`)
	tenDigitsRe  = regexp.MustCompile(`^\d{10}$`)

	suspiciousRes = []*regexp.Regexp{
		regexp.MustCompile(`<script`),
		regexp.MustCompile(`javascript:`),
		regexp.MustCompile(`onerror=`),
		regexp.MustCompile(`eval\(`),
		regexp.MustCompile(`\bdrop\s+table\b`),
		regexp.MustCompile(`\.\./`),
	}
)

// SanitizeInput strips markup and injection patterns from raw user input
// and bounds its length.
func SanitizeInput(text string) string {
	if text == "" {
		return ""
	}

	text = htmlTagRe.ReplaceAllString(text, "")
	for _, re := range dangerousRes {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.ReplaceAll(text, "\x00", "")

	if len(text) > MaxInputLength {
		text = text[:MaxInputLength]
	}

	return strings.TrimSpace(text)
}

// MaskPII masks emails, phone numbers, SSNs and card numbers before logging.
func MaskPII(text string) string {
	if text == "" {
		return ""
	}

	text = emailRe.ReplaceAllStringFunc(text, func(m string) string {
		at := strings.Index(m, "@")
		if at <= 0 {
			return "[EMAIL]"
		}
		return m[:1] + "***@" + m[at+1:]
	})

	text = creditCardRe.ReplaceAllString(text, "XXXX-XXXX-XXXX-XXXX")
	text = ssnRe.ReplaceAllString(text, "XXX-XX-XXXX")
	text = phoneRe.ReplaceAllString(text, "XXX-XXX-XXXX")

	return text
}

// ValidateEmail reports whether email has a plausible address format.
func ValidateEmail(email string) bool {
	return validEmailRe.MatchString(email)
}

// ValidatePhone reports whether phone is a 10-digit number after stripping
// common separators.
func ValidatePhone(phone string) bool {
	clean := phoneSepRe.ReplaceAllString(phone, "")
	return tenDigitsRe.MatchString(clean)
}

// IsSuspicious reports whether the text contains patterns that suggest
// script or SQL injection attempts.
func IsSuspicious(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range suspiciousRes {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// HashIdentifier returns a stable SHA-256 hex digest for a user identifier.
func HashIdentifier(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])
}
