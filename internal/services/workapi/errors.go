package workapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// APIError is a non-2xx response. Message is the server's human-readable
// explanation when it sent one.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
}

// serverMessage pulls a message out of an error body. JSON bodies may use
// "message", "error" or "detail"; anything else is returned as trimmed text.
func serverMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.Message, payload.Error, payload.Detail} {
			if c := strings.TrimSpace(candidate); c != "" {
				return c
			}
		}
		if strings.HasPrefix(text, "{") {
			return ""
		}
	}
	const maxRunes = 300
	if utf8.RuneCountInString(text) > maxRunes {
		text = string([]rune(text)[:maxRunes]) + "..."
	}
	return text
}
