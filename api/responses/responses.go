package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteJSON writes payload as-is, without the data envelope.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

// WriteEmpty acknowledges with a status and no body.
func WriteEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	payload := types.ErrorEnvelope{
		Success: false,
		Error:   typed.PublicMessage(),
		Code:    string(typed.Code()),
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Details = details
		}
	}

	if logg != nil {
		logRequestError(ctx, logg, err, typed, meta.HTTPStatus)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func logRequestError(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error, status int) {
	fields := pkgerrors.Dump(err).LogFields()
	if dm, ok := typed.Details().(map[string]any); ok {
		if step, ok := dm["step"]; ok {
			fields["step"] = step
		}
	}

	ctx = logg.WithFields(ctx, fields)
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
