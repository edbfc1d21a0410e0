package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactAddress masks a street line, keeping only its first two characters.
// "1234 Elm Street" → "12***". Empty input stays empty.
func RedactAddress(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	r := []rune(line)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}
	return "***"
}
