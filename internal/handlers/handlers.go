package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/Brownie44l1/emotion-api/internal/apperr"
	"github.com/Brownie44l1/emotion-api/internal/media"
	"github.com/Brownie44l1/emotion-api/internal/model"
	"github.com/Brownie44l1/emotion-api/internal/web/static"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// formMemory is how much of a multipart body is held in memory before the
// remainder spills to temporary files.
const formMemory = 10 << 20

// Predictor is the prediction pipeline the handlers drive.
type Predictor interface {
	Predict(ctx context.Context, u media.Upload) (model.Prediction, error)
	PredictInputs(ctx context.Context, values []float32) (model.Prediction, error)
}

type Handler struct {
	predictor      Predictor
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewHandler(predictor Predictor, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		predictor:      predictor,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// PredictionResponse is the success body of POST /predict.
type PredictionResponse struct {
	Emotion string `json:"emotion"`
}

// InputsRequest is the JSON body variant of POST /predict.
type InputsRequest struct {
	Inputs any `json:"inputs"`
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(static.Index())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Predict accepts either a multipart upload in field "file" or a JSON body
// {"inputs": [...]}.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	var (
		prediction model.Prediction
		err        error
	)
	if isJSON(r) {
		prediction, err = h.predictInputs(r)
	} else {
		prediction, err = h.predictUpload(r)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PredictionResponse{Emotion: prediction.Label})
}

func (h *Handler) predictUpload(r *http.Request) (model.Prediction, error) {
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return model.Prediction{}, h.bodyError(err, "File not found in the request")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return model.Prediction{}, apperr.MissingFile("File not found in the request")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.Prediction{}, apperr.Internal("failed to read uploaded file", err)
	}

	h.logger.Debug("received file",
		zap.String("filename", header.Filename),
		zap.String("content_type", header.Header.Get("Content-Type")),
		zap.Int64("size", header.Size))

	upload, err := media.New(data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		return model.Prediction{}, err
	}
	return h.predictor.Predict(r.Context(), upload)
}

func (h *Handler) predictInputs(r *http.Request) (model.Prediction, error) {
	var req InputsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return model.Prediction{}, h.bodyError(err, "Invalid JSON")
	}

	values, err := flatten(req.Inputs)
	if err != nil {
		return model.Prediction{}, err
	}
	return h.predictor.PredictInputs(r.Context(), values)
}

// bodyError classifies a failure to read the request body.
func (h *Handler) bodyError(err error, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.TooLarge(maxErr.Limit)
	}
	return apperr.MissingFile(msg)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	fields := []zap.Field{
		zap.Error(err),
		zap.Stringer("kind", kind),
		zap.Int("status", status),
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("prediction failed", fields...)
	} else {
		h.logger.Warn("prediction rejected", fields...)
	}

	respondError(w, status, err.Error())
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInternal:
		return http.StatusInternalServerError
	case apperr.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func isJSON(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/json"
}

// flatten turns arbitrarily nested JSON number arrays into a flat slice in
// row-major order.
func flatten(v any) ([]float32, error) {
	if v == nil {
		return nil, nil
	}
	var out []float32
	var walk func(any) error
	walk = func(v any) error {
		switch x := v.(type) {
		case float64:
			out = append(out, float32(x))
		case []any:
			for _, item := range x {
				if err := walk(item); err != nil {
					return err
				}
			}
		case nil:
			return apperr.ShapeMismatch("inputs must not contain null")
		default:
			return apperr.ShapeMismatch("inputs must be numbers or arrays of numbers, got %T", x)
		}
		return nil
	}
	if err := walk(v); err != nil {
		return nil, err
	}
	return out, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
