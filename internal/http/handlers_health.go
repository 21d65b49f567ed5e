package httpx

import "net/http"

type healthBody struct {
	Status string `json:"status"`
}

// healthHandler reports liveness. HEAD gets headers only.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, healthBody{Status: "ok"})
}
