package jsonapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteDocument writes a JSON:API document to the response.
func WriteDocument(w http.ResponseWriter, status int, doc Document) error {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(doc)
}

// WriteError writes an error response with one or more errors.
// The HTTP status is derived from the first error's status field.
func WriteError(w http.ResponseWriter, errs ...Error) error {
	if len(errs) == 0 {
		return WriteDocument(w, http.StatusInternalServerError, NewErrorDocument(ErrInternal("")))
	}

	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return WriteDocument(w, status, NewErrorDocument(errs...))
}

// WriteMethodNotAllowed is a convenience for 405 errors.
// It sets the Allow header per RFC 7231.
func WriteMethodNotAllowed(w http.ResponseWriter, method string, allowedMethods []string) error {
	if len(allowedMethods) > 0 {
		w.Header().Set("Allow", strings.Join(allowedMethods, ", "))
	}
	return WriteError(w, ErrMethodNotAllowed(method, allowedMethods))
}

// AcceptsDocument reports whether an Accept header permits a JSON:API
// response. Per JSON:API 1.0 a server must respond 406 when every
// instance of the JSON:API media type in Accept carries media type
// parameters.
func AcceptsDocument(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}

	sawJSONAPI := false
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		mediaType = strings.TrimSpace(mediaType)
		if mediaType != ContentType {
			continue
		}
		sawJSONAPI = true
		if strings.TrimSpace(params) == "" {
			return true
		}
	}
	return !sawJSONAPI
}
