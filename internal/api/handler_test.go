package api

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mrand "math/rand/v2"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/internal/directory"
	"github.com/kochabx/curvebox/internal/history"
)

type lockedReader struct {
	mu  sync.Mutex
	src *mrand.ChaCha8
}

func (r *lockedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Read(p)
}

type fixture struct {
	router  *gin.Engine
	metrics *Metrics
	hist    *history.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := ecies.NewEngine(ecies.WithRandom(&lockedReader{src: mrand.NewChaCha8([32]byte{42})}))
	batcher, err := ecies.NewBatcher(engine, 4)
	require.NoError(t, err)
	t.Cleanup(batcher.Close)

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	hist := history.NewRecorder(history.NewMemoryStore(), history.WithPlaintextPreview(true))
	h := New(Options{
		Engine:    engine,
		Batcher:   batcher,
		Directory: directory.NewService(directory.NewMemoryStore()),
		History:   hist,
		Metrics:   m,
		MaxBatch:  3,
	})

	r := gin.New()
	h.Register(r)
	return &fixture{router: r, metrics: m, hist: hist}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

const toyCurve = `{"name":"toy17","a":"2","b":"2","p":"17","Gx":"5","Gy":"1","n":"19"}`

func TestCurves(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodGet, "/api/v1/curves", "")
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Presets []string `json:"presets"`
		Default string   `json:"default"`
	}](t, env.Data)
	assert.Equal(t, []string{"secp256k1", "secp256r1"}, list.Presets)
	assert.Equal(t, "secp256k1", list.Default)

	status, env = f.do(t, http.MethodGet, "/api/v1/curves/secp256r1", "")
	require.Equal(t, http.StatusOK, status)
	info := decode[map[string]any](t, env.Data)
	params := info["params"].(map[string]any)
	assert.Equal(t, "secp256r1", params["name"])

	status, _ = f.do(t, http.MethodGet, "/api/v1/curves/p521", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidateCurve(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodPost, "/api/v1/curves/validate", toyCurve)
	require.Equal(t, http.StatusOK, status)

	bad := strings.Replace(toyCurve, `"Gy":"1"`, `"Gy":"2"`, 1)
	status, env := f.do(t, http.MethodPost, "/api/v1/curves/validate", bad)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	detail := decode[struct {
		Reason string `json:"reason"`
		Extra  struct {
			Suggestions []curve.Point `json:"suggestions"`
		} `json:"extra"`
	}](t, env.Data)
	assert.Equal(t, "INVALID_GENERATOR", detail.Reason)
	assert.Len(t, detail.Extra.Suggestions, 18)
	assert.Equal(t, "(0, 6)", detail.Extra.Suggestions[0].String())

	status, env = f.do(t, http.MethodPost, "/api/v1/curves/validate", `{"a":"1"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "curve file must contain fields: a, b, p, Gx, Gy, n", env.Msg)

	records, err := f.hist.Curves(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, history.SourceCustom, records[0].Source)
	assert.Equal(t, "Custom curve", records[0].Label)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ops.WithLabelValues("validate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ops.WithLabelValues("validate", "invalid_generator")))
}

func TestRandomCurve(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/v1/curves/random", "")
	require.Equal(t, http.StatusOK, status)
	info := decode[struct {
		Params curve.Params `json:"params"`
	}](t, env.Data)
	c, err := curve.New(info.Params)
	require.NoError(t, err)
	assert.LessOrEqual(t, c.P().Int64(), int64(31))

	records, err := f.hist.Curves(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, history.SourceRandom, records[0].Source)
	assert.Equal(t, "Random curve", records[0].Label)
}

func TestEnumeratePoints(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/v1/curves/points", `{"a":"2","b":"2","p":"17"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 18, decode[PointsResponse](t, env.Data).Count)

	status, env = f.do(t, http.MethodPost, "/api/v1/curves/points", `{"a":"2","b":"2","p":"503"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "FIELD_TOO_LARGE")

	status, _ = f.do(t, http.MethodPost, "/api/v1/curves/points", `{"a":"x","b":"2","p":"17"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	// field errors come back as metadata keyed by json name
	status, env = f.do(t, http.MethodPost, "/api/v1/curves/points", `{"a":"x","b":"2"}`)
	require.Equal(t, http.StatusBadRequest, status)
	detail := decode[struct {
		Reason   string            `json:"reason"`
		Metadata map[string]string `json:"metadata"`
	}](t, env.Data)
	assert.Equal(t, "BAD_REQUEST", detail.Reason)
	assert.Contains(t, detail.Metadata["a"], "decimal integer")
	assert.Contains(t, detail.Metadata["p"], "required")
	assert.NotContains(t, detail.Metadata, "b")
}

func TestKeys(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/v1/keys", "")
	require.Equal(t, http.StatusOK, status)
	key := decode[KeyResponse](t, env.Data)
	assert.Equal(t, "secp256k1", key.Curve)
	assert.NotEmpty(t, key.Private)
	assert.True(t, strings.HasPrefix(key.Hex, "04"))

	status, env = f.do(t, http.MethodPost, "/api/v1/keys/derive",
		`{"curve":"secp256k1","private":"`+key.Private+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, key.Compact, decode[KeyResponse](t, env.Data).Compact)

	status, env = f.do(t, http.MethodPost, "/api/v1/keys/derive", `{"curve":`+toyCurve+`,"private":"19"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), `"max":"18"`)

	status, env = f.do(t, http.MethodPost, "/api/v1/keys/derive", `{"curve":`+toyCurve+`,"private":"18"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "5|16", decode[KeyResponse](t, env.Data).Compact)
}

func TestEncryptDecryptByPoint(t *testing.T) {
	f := newFixture(t)

	_, env := f.do(t, http.MethodPost, "/api/v1/keys/derive", `{"private":"12345"}`)
	key := decode[KeyResponse](t, env.Data)

	body, _ := json.Marshal(map[string]any{
		"to":      map[string]string{"x": key.Public.X().String(), "y": key.Public.Y().String()},
		"message": "hello",
	})
	status, env := f.do(t, http.MethodPost, "/api/v1/encrypt", string(body))
	require.Equal(t, http.StatusOK, status, env.Msg)
	enc := decode[EncryptResponse](t, env.Data)
	assert.Len(t, strings.Split(enc.Envelope, "|"), 4)

	body, _ = json.Marshal(DecryptRequest{Private: "12345", Envelope: enc.Envelope})
	status, env = f.do(t, http.MethodPost, "/api/v1/decrypt", string(body))
	require.Equal(t, http.StatusOK, status, env.Msg)
	assert.Equal(t, "hello", decode[DecryptResponse](t, env.Data).Message)

	body, _ = json.Marshal(DecryptRequest{Private: "12346", Envelope: enc.Envelope})
	status, env = f.do(t, http.MethodPost, "/api/v1/decrypt", string(body))
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(env.Data), "AUTHENTICATION_FAILED")

	body, _ = json.Marshal(DecryptRequest{Private: "12345", Envelope: "1|2|3"})
	status, env = f.do(t, http.MethodPost, "/api/v1/decrypt", string(body))
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "MALFORMED_ENVELOPE")

	records, err := f.hist.Encryptions(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hello", records[0].Preview)
	assert.Equal(t, enc.Envelope, records[0].Envelope)
}

func TestEncryptErrors(t *testing.T) {
	f := newFixture(t)

	status, env := f.do(t, http.MethodPost, "/api/v1/encrypt", `{"message":"x"}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(env.Data), "NO_RECIPIENT")

	status, env = f.do(t, http.MethodPost, "/api/v1/encrypt", `{"to":{"x":"1","y":"1"},"message":"x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "INVALID_POINT")

	status, _ = f.do(t, http.MethodPost, "/api/v1/encrypt", `{"to_user":"ghost","message":"x"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodPost, "/api/v1/encrypt", ``)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDirectoryAndUserEncryption(t *testing.T) {
	f := newFixture(t)

	_, env := f.do(t, http.MethodPost, "/api/v1/keys/derive", `{"curve":`+toyCurve+`,"private":"7"}`)
	key := decode[KeyResponse](t, env.Data)

	publish, _ := json.Marshal(map[string]any{
		"curve": json.RawMessage(toyCurve),
		"x":     key.Public.X().String(),
		"y":     key.Public.Y().String(),
	})
	status, env := f.do(t, http.MethodPut, "/api/v1/directory/bob", string(publish))
	require.Equal(t, http.StatusOK, status, env.Msg)

	status, env = f.do(t, http.MethodGet, "/api/v1/directory/bob", "")
	require.Equal(t, http.StatusOK, status)
	entry := decode[directory.Entry](t, env.Data)
	assert.Equal(t, "toy17", entry.Curve.Name)

	status, env = f.do(t, http.MethodGet, "/api/v1/directory", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"username":"bob"`)

	status, env = f.do(t, http.MethodPost, "/api/v1/encrypt", `{"to_user":"bob","message":"hi bob"}`)
	require.Equal(t, http.StatusOK, status, env.Msg)
	enc := decode[EncryptResponse](t, env.Data)
	assert.Equal(t, "bob", enc.Recipient)

	body, _ := json.Marshal(map[string]any{"curve": json.RawMessage(toyCurve), "private": "7", "envelope": enc.Envelope})
	status, env = f.do(t, http.MethodPost, "/api/v1/decrypt", string(body))
	require.Equal(t, http.StatusOK, status, env.Msg)
	assert.Equal(t, "hi bob", decode[DecryptResponse](t, env.Data).Message)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/directory/bob/qrcode", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	status, _ = f.do(t, http.MethodPut, "/api/v1/directory/bad%20name", string(publish))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodDelete, "/api/v1/directory/bob", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, http.MethodGet, "/api/v1/directory/bob", "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = f.do(t, http.MethodDelete, "/api/v1/directory/bob", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEncryptBatch(t *testing.T) {
	f := newFixture(t)

	for i, user := range []string{"alice", "bob"} {
		pub, err := ecies.DerivePublic(curve.Secp256k1(), big.NewInt(int64(i+2)))
		require.NoError(t, err)
		body, _ := json.Marshal(PublishRequest{Curve: CurveRef{Name: "secp256k1"}, X: pub.X().String(), Y: pub.Y().String()})
		status, env := f.do(t, http.MethodPut, "/api/v1/directory/"+user, string(body))
		require.Equal(t, http.StatusOK, status, env.Msg)
	}

	status, env := f.do(t, http.MethodPost, "/api/v1/encrypt/batch", `{"users":["alice","ghost","bob"],"message":"all"}`)
	require.Equal(t, http.StatusOK, status, env.Msg)
	res := decode[struct {
		Results []BatchItem `json:"results"`
	}](t, env.Data)
	require.Len(t, res.Results, 3)
	assert.NotEmpty(t, res.Results[0].Envelope)
	assert.Equal(t, "PUBLIC_KEY_NOT_FOUND", res.Results[1].Reason)
	assert.NotEmpty(t, res.Results[2].Envelope)

	status, _ = f.do(t, http.MethodPost, "/api/v1/encrypt/batch", `{"users":["a","b","c","d"],"message":"x"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = f.do(t, http.MethodPost, "/api/v1/encrypt/batch", `{"curve":"secp256r1","users":["alice"],"message":"x"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "CURVE_MISMATCH")

	status, env = f.do(t, http.MethodGet, "/api/v1/history/encryptions?limit=1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[EncryptionHistory](t, env.Data).Records, 1)

	status, env = f.do(t, http.MethodGet, "/api/v1/history/curves", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[CurveHistory](t, env.Data).Records)
}

func TestCurveRef(t *testing.T) {
	var r CurveRef
	require.NoError(t, json.Unmarshal([]byte(`"secp256r1"`), &r))
	assert.Equal(t, "secp256r1", r.Name)

	require.NoError(t, json.Unmarshal([]byte(toyCurve), &r))
	require.NotNil(t, r.Params)
	assert.Equal(t, int64(17), r.Params.P.Int64())

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"p":"17"`)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"1"}`), &r))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", result(nil))
	assert.Equal(t, "error", result(assert.AnError))
	_, err := ecies.ParseCompact("")
	assert.Equal(t, "malformed_envelope", result(err))
}
