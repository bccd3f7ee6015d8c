package resolver

import (
	"net/http"
	"regexp"
	"strings"
)

// Extractor pulls a candidate version token from a request.
// ok is false when the request does not carry the field the extractor reads.
type Extractor struct {
	Name    string
	Extract func(r *http.Request) (version string, ok bool)
}

var pathVersion = regexp.MustCompile(`/api/(v\d+)(?:/|$)`)

// PathExtractor matches /api/v{digits}/... in the URL path.
func PathExtractor() Extractor {
	return Extractor{
		Name: "path",
		Extract: func(r *http.Request) (string, bool) {
			m := pathVersion.FindStringSubmatch(r.URL.Path)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
	}
}

// AcceptExtractor matches application/vnd.{product}.v{digits}+json in the Accept header.
func AcceptExtractor(product string) Extractor {
	re := regexp.MustCompile(`application/vnd\.` + regexp.QuoteMeta(product) + `\.(v\d+)\+json`)
	return Extractor{
		Name: "accept",
		Extract: func(r *http.Request) (string, bool) {
			for _, accept := range r.Header.Values("Accept") {
				if m := re.FindStringSubmatch(accept); m != nil {
					return m[1], true
				}
			}
			return "", false
		},
	}
}

// HeaderExtractor reads a header verbatim, lower-cased.
func HeaderExtractor(name string) Extractor {
	return Extractor{
		Name: "header",
		Extract: func(r *http.Request) (string, bool) {
			return lowered(r.Header.Get(name))
		},
	}
}

// QueryExtractor reads a query parameter verbatim, lower-cased.
func QueryExtractor(param string) Extractor {
	return Extractor{
		Name: "query",
		Extract: func(r *http.Request) (string, bool) {
			return lowered(r.URL.Query().Get(param))
		},
	}
}

// DefaultExtractors returns the strategies in priority order: path, Accept,
// X-API-Version header, then the version query parameter.
func DefaultExtractors(product string) []Extractor {
	return []Extractor{
		PathExtractor(),
		AcceptExtractor(product),
		HeaderExtractor("X-API-Version"),
		QueryExtractor("version"),
	}
}

func lowered(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	return v, v != ""
}
