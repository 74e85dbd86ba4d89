package handlers

import "net/http"

// Health reports that the server is up.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Server is working correctly"})
}
