package tenancy

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidationError 租戶輸入不合法；一律在任何寫入前回報
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NormalizeSubdomain 去除空白並轉小寫
func NormalizeSubdomain(subdomain string) string {
	return strings.ToLower(strings.TrimSpace(subdomain))
}

// ValidateSubdomain 格式、長度與保留字檢查（唯一性由註冊表負責）
func ValidateSubdomain(subdomain string, reserved []string) error {
	if len(subdomain) < 2 {
		return invalid("subdomain", "subdomain must be at least 2 characters")
	}
	if !subdomainPattern.MatchString(subdomain) {
		return invalid("subdomain", "subdomain may only contain lowercase letters, digits and inner hyphens (max 63)")
	}
	if IsReserved(subdomain, reserved) {
		return invalid("subdomain", "subdomain '%s' is reserved", subdomain)
	}
	return nil
}

func IsReserved(subdomain string, reserved []string) bool {
	for _, r := range reserved {
		if strings.EqualFold(subdomain, r) {
			return true
		}
	}
	return false
}

// DatabaseNameFor 預設資料庫名稱 {prefix}_{subdomain}；'-' 換成 '_' 以免網路型引擎需要引號
func DatabaseNameFor(prefix, subdomain string) string {
	return prefix + "_" + strings.ReplaceAll(subdomain, "-", "_")
}

// SubdomainFromHost 從 Host header 取出候選子網域。
// 回傳 ok=false 代表沒有子網域（IP、沒有點、或等於 base domain）。
func SubdomainFromHost(host, baseDomain string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if host == "" || net.ParseIP(host) != nil {
		return "", false
	}

	baseDomain = strings.ToLower(strings.Trim(baseDomain, "."))
	if baseDomain != "" {
		if host == baseDomain {
			return "", false
		}
		if rest, found := strings.CutSuffix(host, "."+baseDomain); found {
			host = rest
			label, _, _ := strings.Cut(host, ".")
			return label, label != ""
		}
	}

	label, _, hasDot := strings.Cut(host, ".")
	if !hasDot || label == "" {
		return "", false
	}
	return label, true
}
