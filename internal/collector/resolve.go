package collector

import (
	"strings"

	"EquitySheet/internal/model"
)

// ResolveCode maps a user-supplied identifier to a security key. A bare
// six-digit A-share code gets its exchange from the leading digit; a
// CODE.EXCH identifier is accepted for SH, SZ and BJ.
func ResolveCode(identifier string) (model.SecurityKey, error) {
	id := strings.ToUpper(strings.TrimSpace(identifier))
	code, exchange, hasSuffix := strings.Cut(id, ".")
	if !isSixDigits(code) {
		return model.SecurityKey{}, &model.UnresolvableSecurityError{Identifier: identifier}
	}
	if hasSuffix {
		switch exchange {
		case "SH", "SZ", "BJ":
			return model.SecurityKey{Exchange: exchange, Code: code}, nil
		}
		return model.SecurityKey{}, &model.UnresolvableSecurityError{Identifier: identifier}
	}

	switch code[0] {
	case '6':
		exchange = "SH"
	case '0', '3':
		exchange = "SZ"
	case '4', '8':
		exchange = "BJ"
	default:
		return model.SecurityKey{}, &model.UnresolvableSecurityError{Identifier: identifier}
	}
	return model.SecurityKey{Exchange: exchange, Code: code}, nil
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
