package util

import "strings"

// MakeAllowedOriginValidator builds the origin check used by the CORS middleware.
// "*" allows every origin, entries may be exact origins, bare hosts, or
// wildcard patterns such as "https://*.example.com".
func MakeAllowedOriginValidator(allowedOrigins []string) func(origin string) bool {
	for _, o := range allowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return func(origin string) bool {
				return true
			}
		}
	}

	return func(origin string) bool {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return false
		}

		for _, allowed := range allowedOrigins {
			allowed = strings.TrimSpace(allowed)

			if allowed == origin {
				return true
			}

			originHost := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
			if originHost == allowed {
				return true
			}

			if prefix, suffix, ok := strings.Cut(allowed, "*"); ok {
				if strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
					return true
				}
			}
		}

		return false
	}
}
