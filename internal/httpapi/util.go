package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/consumer"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/repository"
	"github.com/LuzuJ/Agro-RedConect-sub001/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// statusForError 业务错误映射到 HTTP 状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, consumer.ErrNoCachedAlerts):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
