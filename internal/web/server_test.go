package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/Brownie44l1/emotion-api/internal/handlers"
	"github.com/Brownie44l1/emotion-api/internal/media"
	"github.com/Brownie44l1/emotion-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	panicOn bool
}

func (s stubPredictor) Predict(ctx context.Context, u media.Upload) (model.Prediction, error) {
	if s.panicOn {
		panic("model crashed")
	}
	return model.Prediction{Label: "Happy"}, nil
}

func (s stubPredictor) PredictInputs(ctx context.Context, values []float32) (model.Prediction, error) {
	return model.Prediction{Label: "Sad"}, nil
}

func newTestServer(p handlers.Predictor) *httptest.Server {
	s := NewServer(":0", handlers.NewHandler(p, 1<<20, nil), nil)
	return httptest.NewServer(s.Router())
}

func uploadImage(t *testing.T, url, contentType string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="face.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/predict", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRoutes(t *testing.T) {
	ts := newTestServer(stubPredictor{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp, err = http.Get(ts.URL + "/predict")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/predict", "application/json", bytes.NewReader([]byte(`{"inputs": [1]}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Sad", out["emotion"])
}

func TestPredictUpload(t *testing.T) {
	ts := newTestServer(stubPredictor{})
	defer ts.Close()

	resp := uploadImage(t, ts.URL, "image/png")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecovererKeepsServing(t *testing.T) {
	ts := newTestServer(stubPredictor{panicOn: true})
	defer ts.Close()

	resp := uploadImage(t, ts.URL, "image/png")
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
