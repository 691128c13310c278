package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// presentedKey returns the key sent by the client, from X-API-Key or an
// "Authorization: Bearer" header.
func presentedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(key)
	}
	return ""
}

// apiKeyMiddleware rejects requests that do not carry expectedKey.
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	expected := []byte(expectedKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			switch {
			case key == "":
				w.Header().Set("WWW-Authenticate", `Bearer realm="pagecodec"`)
				sendError(w, "Missing API key", http.StatusUnauthorized)
			case subtle.ConstantTimeCompare([]byte(key), expected) != 1:
				sendError(w, "Invalid API key", http.StatusUnauthorized)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func sendSuccess(w http.ResponseWriter, data interface{}) {
	writeResponse(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func sendCreated(w http.ResponseWriter, data interface{}) {
	writeResponse(w, http.StatusCreated, APIResponse{Success: true, Data: data})
}

func sendError(w http.ResponseWriter, message string, statusCode int) {
	writeResponse(w, statusCode, APIResponse{Error: message})
}

// sendFault is sendError for codec and store failures; kind names the
// class of fault so clients need not parse the message.
func sendFault(w http.ResponseWriter, message, kind string, statusCode int) {
	writeResponse(w, statusCode, APIResponse{Error: message, Kind: kind})
}

func writeResponse(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
