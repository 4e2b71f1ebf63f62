// Package redact removes sensitive information from strings before they are
// logged, stored as job error messages, or returned in error responses.
//
// Secrets strips credentials only and is used for upstream messages that end
// up in job status responses. String additionally hides internal details such
// as file paths, SQL, hosts and stack traces.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

type rule struct {
	re          *regexp.Regexp
	placeholder string
}

var credentialRules = []rule{
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb|db|database|connection)://[^@\s]+@`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/=]{8,}`), "Bearer " + RedactedKeyPlaceholder},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED_JWT]"},
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{30,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`(AKIA|AccessKey(Id)?)([^a-zA-Z0-9])?[A-Z0-9]{8,}`), RedactedKeyPlaceholder},
}

var internalRules = []rule{
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`), "[REDACTED_SQL]"},
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`), "[REDACTED_HOST]"},
}

func apply(input string, rules []rule) string {
	for _, r := range rules {
		input = r.re.ReplaceAllString(input, r.placeholder)
	}
	return input
}

// Secrets removes credentials, API keys and tokens from input.
func Secrets(input string) string {
	if input == "" {
		return input
	}
	return apply(input, credentialRules)
}

// String removes credentials and internal details from input.
func String(input string) string {
	if input == "" {
		return input
	}
	return apply(apply(input, credentialRules), internalRules)
}

// Error redacts an error's Error() output with String.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
