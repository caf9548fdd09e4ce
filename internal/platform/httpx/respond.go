package httpx

import (
	"encoding/json"
	"net/http"
)

// Failure is the wire shape for every failed operation.
type Failure struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail sends a structured failure response.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Failure{Error: true, Message: message})
}

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
