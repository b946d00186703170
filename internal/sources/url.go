package sources

import (
	"net/url"
	"regexp"
	"strings"
)

// metadataURLKeys are tried, in order, when a result carries no direct URL.
var metadataURLKeys = []string{"url", "link", "file_url", "document_url", "source_url"}

// driveContentPath matches the Drive file-content API path form
// (.../drive/v3/files/{id}?alt=media and variants).
var driveContentPath = regexp.MustCompile(`/files/([A-Za-z0-9_-]+)`)

// ResolveURL validates, repairs or rewrites a URL-shaped string into something
// a browser can open. It never returns a syntactically invalid URL and never
// panics: anything unusable yields "".
//
// Google Drive internal API URLs (the file-content endpoint and the uc?id=
// download form) are rewritten to the public viewer URL, since the API forms
// 403 without an Authorization header.
func ResolveURL(candidate string, metadata map[string]interface{}) string {
	if strings.TrimSpace(candidate) == "" {
		for _, key := range metadataURLKeys {
			if v, ok := metadata[key].(string); ok && strings.TrimSpace(v) != "" {
				candidate = v
				break
			}
		}
	}

	s := strings.TrimSpace(candidate)
	if s == "" {
		return ""
	}

	if id := driveFileID(s); id != "" {
		return "https://drive.google.com/file/d/" + id + "/view"
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if validURL(s) {
			return s
		}
		return ""
	}

	// Protocol-relative
	if strings.HasPrefix(s, "//") {
		if repaired := "https:" + s; validURL(repaired) {
			return repaired
		}
		return ""
	}

	// A bare path has no host to anchor a scheme to.
	if strings.HasPrefix(s, "/") {
		return ""
	}

	// Any other scheme (ftp://, mailto:...) is not openable in a browser tab;
	// prefixing https would only manufacture garbage.
	if strings.Contains(s, "://") {
		return ""
	}

	// Looks like a hostname ("example.com/doc"): try https.
	if strings.Contains(s, ".") && !strings.ContainsAny(s, " \t\n") {
		if repaired := "https://" + s; validURL(repaired) {
			return repaired
		}
	}

	return ""
}

// driveFileID extracts the file id from either known Drive internal URL form.
func driveFileID(s string) string {
	lower := strings.ToLower(s)

	// Content API form: https://...googleapis.com/drive/v3/files/{id}?alt=media
	if strings.Contains(lower, "googleapis.com") && strings.Contains(lower, "/files/") {
		if m := driveContentPath.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}

	// Download form: https://drive.google.com/uc?id={id}
	if strings.Contains(lower, "drive.google.com/uc") {
		if u, err := url.Parse(s); err == nil {
			if id := u.Query().Get("id"); id != "" && validDriveID(id) {
				return id
			}
		}
	}

	return ""
}

func validDriveID(id string) bool {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return len(id) > 0
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
