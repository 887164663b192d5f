package errors

import (
	"encoding/json"
	"net/http"
)

// errorResponse estructura interna para la serialización JSON.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// flowBlockResponse es el contrato del bloqueo recuperable de flujo: el
// cliente puede reintentar vía el redirect indicado.
type flowBlockResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

// WriteFlowBlock responde 503 con la razón del bloqueo y la URL que lo
// resuelve (character_not_found, missing_scopes).
func WriteFlowBlock(w http.ResponseWriter, reason, redirect string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(flowBlockResponse{Error: reason, Redirect: redirect})
}
