package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/models"
	"gym-buddy/internal/services"
)

// writeJSONResponse 是一个辅助函数，用于发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("无法编码 JSON 响应: %v", err)
		}
	}
}

// writeJSONError 发送带错误码的 JSON 错误响应。
func writeJSONError(w http.ResponseWriter, message, code string, statusCode int) {
	writeJSONResponse(w, statusCode, imtypes.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps profile and buddy service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrProfileNotFound):
		writeJSONError(w, "资料不存在", imtypes.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		writeJSONError(w, err.Error(), imtypes.CodePermissionDenied, http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, models.ErrInvalidFitnessLevel),
		errors.Is(err, services.ErrBuddyRequestSelf):
		writeJSONError(w, err.Error(), imtypes.CodeInvalidArgument, http.StatusBadRequest)
	case errors.Is(err, services.ErrRecipientNotFound), errors.Is(err, services.ErrBuddyRequestMissing):
		writeJSONError(w, err.Error(), imtypes.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, services.ErrAlreadyBuddies), errors.Is(err, services.ErrBuddyRequestExists):
		writeJSONError(w, err.Error(), imtypes.CodeAlreadyExists, http.StatusConflict)
	default:
		log.Printf("处理请求 %s %s 失败: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "服务器内部错误", imtypes.CodeInternal, http.StatusInternalServerError)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
