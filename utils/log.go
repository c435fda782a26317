package utils

import (
	"strings"
	"unicode"
)

// SanitizeLogMessage 过滤日志中的控制字符，避免日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == 10 || r == 9 {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogFilename 截断过长文件名后再过滤
func SanitizeLogFilename(name string) string {
	if len(name) > 128 {
		name = name[:128] + "..."
	}
	return SanitizeLogMessage(name)
}
