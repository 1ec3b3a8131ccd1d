package logger

import (
	"regexp"
	"strings"
)

var secretKeys = []string{"token", "secret", "password", "auth_code", "authorization"}

// bearer headers and access_token=... query fragments that leak into error strings
var (
	bearerRegex     = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-~+/]+=*`)
	tokenParamRegex = regexp.MustCompile(`(?i)((?:access|refresh)_token=)[^&\s"]+`)
)

// RedactToken masks an opaque credential for safe logging.
// "ya29.a0AfH6SMBx" -> "ya29***"; values of 6 chars or less are fully masked.
func RedactToken(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:4] + "***"
}

func redactSecretValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(key, k) {
			return RedactToken(val)
		}
	}
	val = bearerRegex.ReplaceAllString(val, "Bearer ***")
	return tokenParamRegex.ReplaceAllString(val, "${1}***")
}
