package utils

import (
	"strings"
)

// RenderCacheKey keys a rendered receipt document. Only verified receipts are cached,
// and verified is terminal, so the number and format fully determine the content.
func RenderCacheKey(receiptNumber, format string) string {
	return "receipts:render:v1:" + strings.ToUpper(strings.TrimSpace(receiptNumber)) +
		":format=" + strings.ToLower(format)
}

func ShareTokenKey(token string) string {
	return "receipts:share:v1:" + token
}
