package utils

import (
	"net/http"

	"github.com/chatterbox/chatterbox-backend/responses"
)

// HandleError writes the status code and message carried by a custom API
// error, falling back to a plain 500 for anything else.
func HandleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(responses.APIError); ok {
		http.Error(w, apiErr.Error(), apiErr.StatusCode())
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
