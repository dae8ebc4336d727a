package middleware

import (
	"mime"
	"net/http"
	"strings"

	apperrors "slotbook/pkg/errors"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
)

const MediaTypeJSON = "application/json"

// ContentTypeRule overrides the accepted media type for paths ending in
// Suffix.
type ContentTypeRule struct {
	Suffix    string
	MediaType string
}

// ContentTypeValidation requires a JSON body on writes unless a rule says
// otherwise. Requests without a body pass, so bodiless actions such as a
// submit need no header.
func ContentTypeValidation(log *logger.Logger, rules ...ContentTypeRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r) {
				want := expectedMediaType(r.URL.Path, rules)
				got := extractContentType(r.Header.Get("Content-Type"))

				if got != want {
					rejectInvalidContentType(w, log, r, got, want)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.ContentLength != 0 || len(r.TransferEncoding) > 0
}

func expectedMediaType(path string, rules []ContentTypeRule) string {
	for _, rule := range rules {
		if strings.HasSuffix(path, rule.Suffix) {
			return rule.MediaType
		}
	}
	return MediaTypeJSON
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(header, ";")[0]))
	}
	return mediaType
}

func rejectInvalidContentType(w http.ResponseWriter, log *logger.Logger, r *http.Request, contentType, want string) {
	log.Warn("Invalid Content-Type header",
		"request_id", RequestID(r.Context()),
		"content_type", contentType,
		"expected", want,
		"path", r.URL.Path,
		"method", r.Method,
	)

	_ = httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{
		Error: "Content-Type must be " + want,
		Code:  apperrors.CodeBadRequest,
	})
}
