// internal/bank/email.go

package bank

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsEmailValid 回報 s 是否為可接受的帳戶 email。
// 純函式，任何輸入都不會 panic。
func IsEmailValid(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}

	at := strings.IndexByte(s, '@')
	dot := strings.LastIndexByte(s, '.')

	// '@' 必須存在，且不在頭尾
	if at <= 0 || at >= len(s)-1 {
		return false
	}

	// '@' 之後必須有 '.'，且 '.' 不在結尾
	if dot < at || dot >= len(s)-1 {
		return false
	}

	first, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) {
		return false
	}

	if strings.Contains(s, " ") {
		return false
	}

	// 網域第一段不可為空
	if s[at+1] == '.' || dot == at+1 {
		return false
	}

	return !strings.Contains(s, "..")
}
