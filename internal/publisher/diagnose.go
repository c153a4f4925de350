package publisher

import "strings"

// Diagnosis is a human-readable explanation of a failure, paired with the
// most likely fix.
type Diagnosis struct {
	Problem  string
	Solution string
}

// Diagnose classifies a failed Result into a known failure family. The
// status code is preferred when the failure carried one; the message text
// is the fallback for failures that never reached the remote API.
func Diagnose(result Result) Diagnosis {
	msg := result.Message
	switch {
	case result.StatusCode == 406 || strings.Contains(msg, "406"):
		return Diagnosis{
			Problem:  "The site's ModSecurity / web application firewall is blocking REST API write requests (406 Not Acceptable).",
			Solution: "Ask the hosting provider to whitelist the /wp-json/wp/v2/ endpoints for POST requests, or disable the offending ModSecurity rule.",
		}
	case result.StatusCode == 401 || result.StatusCode == 403 ||
		strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return Diagnosis{
			Problem:  "WordPress rejected the credentials or the user lacks the required capability (401/403).",
			Solution: "Verify the username and application password in the sites file, and ensure the user has the editor or administrator role.",
		}
	case strings.Contains(msg, "OpenAI"):
		return Diagnosis{
			Problem:  "The image generation provider returned an error.",
			Solution: "Check the OPENAI_API_KEY, the account quota, and the configured model name.",
		}
	case strings.Contains(strings.ToLower(msg), "upload"):
		return Diagnosis{
			Problem:  "The image upload to the WordPress media library failed.",
			Solution: "Check the site's upload size limits and that the media endpoint accepts multipart POST requests.",
		}
	default:
		return Diagnosis{
			Problem:  "The failure does not match a known pattern.",
			Solution: "Inspect the full error message and the WordPress and provider logs: " + msg,
		}
	}
}
