package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// apiResponse is the envelope for every JSON response the server writes.
type apiResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func okResponse(data any) apiResponse {
	return apiResponse{Status: "ok", Data: data}
}

func errorResponse(msg string) apiResponse {
	return apiResponse{Status: "error", Error: msg}
}

// fallbackErrorResponse is pre-marshaled so a failing json.Marshal at
// request time still produces a valid body.
var fallbackErrorResponse = []byte(`{"status":"error","error":"internal server error"}`)

// writeJSONResponse writes a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response apiResponse) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}
