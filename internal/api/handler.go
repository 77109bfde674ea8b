// Package api exposes the engine, the public key directory and the history
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/core/validator"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/internal/directory"
	"github.com/kochabx/curvebox/internal/history"
	"github.com/kochabx/curvebox/log"
	khttp "github.com/kochabx/curvebox/transport/http"
)

const (
	defaultMaxBatch   = 100
	defaultMaxMessage = 1 << 20
	qrcodeSize        = 256
)

var (
	ErrBadRequest      = errors.BadRequest("invalid request body").WithReason("BAD_REQUEST")
	ErrMessageTooLarge = errors.New(413, "message too large").WithReason("MESSAGE_TOO_LARGE")
	ErrNoRecipient     = errors.BadRequest("either to or to_user is required").WithReason("NO_RECIPIENT")
	ErrBatchTooLarge   = errors.BadRequest("too many users in one batch").WithReason("BATCH_TOO_LARGE")
	ErrCurveMismatch   = errors.UnprocessableEntity("recipient key is on a different curve").WithReason("CURVE_MISMATCH")
)

// Options configures a Handler. Engine, Batcher, Directory and History are
// required.
type Options struct {
	Engine       *ecies.Engine
	Batcher      *ecies.Batcher
	Directory    *directory.Service
	History      *history.Recorder
	Metrics      *Metrics
	Logger       *log.Logger
	DefaultCurve string
	MaxBatch     int
	MaxMessage   int
}

// Handler serves /api/v1.
type Handler struct {
	engine       *ecies.Engine
	batcher      *ecies.Batcher
	dir          *directory.Service
	hist         *history.Recorder
	metrics      *Metrics
	logger       *log.Logger
	defaultCurve string
	maxBatch     int
	maxMessage   int
}

func New(o Options) *Handler {
	h := &Handler{
		engine:       o.Engine,
		batcher:      o.Batcher,
		dir:          o.Directory,
		hist:         o.History,
		metrics:      o.Metrics,
		logger:       o.Logger,
		defaultCurve: o.DefaultCurve,
		maxBatch:     o.MaxBatch,
		maxMessage:   o.MaxMessage,
	}
	if h.logger == nil {
		h.logger = log.G
	}
	if h.defaultCurve == "" {
		h.defaultCurve = curve.NameSecp256k1
	}
	if h.maxBatch <= 0 {
		h.maxBatch = defaultMaxBatch
	}
	if h.maxMessage <= 0 {
		h.maxMessage = defaultMaxMessage
	}
	return h
}

// Register mounts the routes on r under /api/v1.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	curves := v1.Group("/curves")
	curves.GET("", h.listCurves)
	curves.GET("/:name", h.getCurve)
	curves.POST("/validate", h.validateCurve)
	curves.POST("/random", h.randomCurve)
	curves.POST("/points", h.enumeratePoints)

	v1.POST("/keys", h.generateKey)
	v1.POST("/keys/derive", h.deriveKey)

	v1.POST("/encrypt", h.encrypt)
	v1.POST("/encrypt/batch", h.encryptBatch)
	v1.POST("/decrypt", h.decrypt)

	dir := v1.Group("/directory")
	dir.GET("", h.listDirectory)
	dir.PUT("/:username", h.publish)
	dir.GET("/:username", h.lookup)
	dir.GET("/:username/qrcode", h.qrcode)
	dir.DELETE("/:username", h.remove)

	hist := v1.Group("/history")
	hist.GET("/curves", h.curveHistory)
	hist.GET("/encryptions", h.encryptionHistory)
}

// fail logs once and renders err.
func (h *Handler) fail(c *gin.Context, op string, err error, extra ...any) {
	code := errors.Code(err)
	event := h.logger.Debug()
	if code >= 500 {
		event = h.logger.Error()
	}
	event.Err(err).Str("op", op).Str("path", c.FullPath()).Msg("request failed")
	khttp.GinError(c, err, extra...)
}

func (h *Handler) bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return e
		}
		if errors.Is(err, io.EOF) {
			return ErrBadRequest.WithMessage("request body is empty")
		}
		return ErrBadRequest.WithCause(err)
	}
	if err := validator.Validate.Struct(v); err != nil {
		if validator.IsValidationError(err) {
			return ErrBadRequest.WithMessage("%s", err.Error()).WithMetadata(validator.Fields(err))
		}
		return ErrBadRequest.WithCause(err)
	}
	return nil
}

// resolve returns the curve a request refers to. Parameter objects are
// validated, and an invalid generator comes back with suggested points.
func (h *Handler) resolve(ref CurveRef) (*curve.Curve, []curve.Point, error) {
	if ref.Params != nil {
		c, err := curve.New(*ref.Params)
		if err != nil {
			return nil, curve.SuggestFor(*ref.Params, err), err
		}
		return c, nil, nil
	}
	name := ref.Name
	if name == "" {
		name = h.defaultCurve
	}
	c, err := curve.Preset(name)
	return c, nil, err
}

// run times fn and records its outcome under op.
func (h *Handler) run(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	h.metrics.observe(op, start, err)
	return err
}

func (h *Handler) listCurves(c *gin.Context) {
	khttp.GinJSON(c, gin.H{"presets": curve.PresetNames(), "default": h.defaultCurve})
}

func (h *Handler) getCurve(c *gin.Context) {
	cv, err := curve.Preset(c.Param("name"))
	if err != nil {
		h.fail(c, "curve", err)
		return
	}
	khttp.GinJSON(c, CurveInfo{Params: cv.Params(), Singular: cv.IsSingular()})
}

func (h *Handler) validateCurve(c *gin.Context) {
	var params curve.Params
	if err := h.bind(c, &params); err != nil {
		h.fail(c, "validate", err)
		return
	}

	var cv *curve.Curve
	err := h.run("validate", func() (err error) {
		cv, err = curve.New(params)
		return err
	})
	if err != nil {
		h.fail(c, "validate", err, suggestionsExtra(curve.SuggestFor(params, err)))
		return
	}

	source := history.SourceCustom
	if preset, perr := curve.Preset(params.Name); perr == nil && preset.Equal(cv) {
		source = history.SourceStandard
	}
	h.recordCurve(c.Request.Context(), source, cv)
	khttp.GinJSON(c, CurveInfo{Params: cv.Params(), Singular: cv.IsSingular()})
}

func (h *Handler) randomCurve(c *gin.Context) {
	var cv *curve.Curve
	err := h.run("random_curve", func() (err error) {
		cv, err = curve.FindRandomTestCurve(h.engine.Rand())
		return err
	})
	if err != nil {
		h.fail(c, "random_curve", err)
		return
	}
	h.recordCurve(c.Request.Context(), history.SourceRandom, cv)
	khttp.GinJSON(c, CurveInfo{Params: cv.Params(), Singular: cv.IsSingular()})
}

func (h *Handler) recordCurve(ctx context.Context, source history.Source, cv *curve.Curve) {
	// history failures never fail the request
	_, _ = h.hist.RecordCurve(ctx, source, cv.Params())
}

func (h *Handler) enumeratePoints(c *gin.Context) {
	var req PointsRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, "points", err)
		return
	}
	a, okA := new(big.Int).SetString(req.A, 10)
	b, okB := new(big.Int).SetString(req.B, 10)
	p, okP := new(big.Int).SetString(req.P, 10)
	if !okA || !okB || !okP {
		h.fail(c, "points", ErrBadRequest.WithMessage("a, b and p must be decimal integers"))
		return
	}

	var points []curve.Point
	err := h.run("points", func() (err error) {
		points, err = curve.EnumeratePoints(a, b, p)
		return err
	})
	if err != nil {
		h.fail(c, "points", err)
		return
	}
	khttp.GinJSON(c, PointsResponse{Count: len(points), Points: points})
}

func (h *Handler) generateKey(c *gin.Context) {
	var req KeyRequest
	if err := h.bindOptional(c, &req); err != nil {
		h.fail(c, "generate_key", err)
		return
	}
	cv, suggestions, err := h.resolve(req.Curve)
	if err != nil {
		h.fail(c, "generate_key", err, suggestionsExtra(suggestions))
		return
	}

	var key *ecies.PrivateKey
	err = h.run("generate_key", func() (err error) {
		key, err = h.engine.GenerateKey(cv)
		return err
	})
	if err != nil {
		h.fail(c, "generate_key", err)
		return
	}
	defer key.Destroy()

	resp := keyResponse(key.Public())
	resp.Private = key.Scalar().String()
	khttp.GinJSON(c, resp)
}

func (h *Handler) deriveKey(c *gin.Context) {
	var req DeriveRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, "derive_key", err)
		return
	}
	cv, suggestions, err := h.resolve(req.Curve)
	if err != nil {
		h.fail(c, "derive_key", err, suggestionsExtra(suggestions))
		return
	}
	d, err := ecies.ParseScalar(req.Private)
	if err != nil {
		h.fail(c, "derive_key", err)
		return
	}
	defer d.SetInt64(0)

	var pub *ecies.PublicKey
	err = h.run("derive_key", func() (err error) {
		pub, err = ecies.DerivePublic(cv, d)
		return err
	})
	if err != nil {
		h.fail(c, "derive_key", err)
		return
	}
	khttp.GinJSON(c, keyResponse(pub))
}

func (h *Handler) encrypt(c *gin.Context) {
	var req EncryptRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, "encrypt", err)
		return
	}
	if len(req.Message) > h.maxMessage {
		h.fail(c, "encrypt", ErrMessageTooLarge.WithMetadata(map[string]string{"max": strconv.Itoa(h.maxMessage)}))
		return
	}

	ctx := c.Request.Context()
	var (
		cv        *curve.Curve
		recipient curve.Point
		label     string
	)
	switch {
	case req.ToUser != "":
		pub, err := h.dir.Lookup(ctx, req.ToUser)
		if err != nil {
			h.fail(c, "encrypt", err)
			return
		}
		cv, recipient, label = pub.Curve(), pub.Point(), req.ToUser
	case req.To != nil:
		var suggestions []curve.Point
		var err error
		cv, suggestions, err = h.resolve(req.Curve)
		if err != nil {
			h.fail(c, "encrypt", err, suggestionsExtra(suggestions))
			return
		}
		pub, err := ecies.ParsePublicKey(cv, req.To.X, req.To.Y)
		if err != nil {
			h.fail(c, "encrypt", err)
			return
		}
		recipient, label = pub.Point(), pub.Compact()
	default:
		h.fail(c, "encrypt", ErrNoRecipient)
		return
	}

	var env *ecies.Envelope
	err := h.run("encrypt", func() (err error) {
		env, err = h.engine.EncryptMessage(cv, recipient, req.Message)
		return err
	})
	if err != nil {
		h.fail(c, "encrypt", err)
		return
	}

	compact := env.Compact()
	_, _ = h.hist.RecordEncryption(ctx, curveLabel(cv), label, req.Message, compact)
	khttp.GinJSON(c, EncryptResponse{
		Envelope:  compact,
		Ephemeral: env.Ephemeral,
		IV:        env.IV,
		Recipient: label,
	})
}

func (h *Handler) encryptBatch(c *gin.Context) {
	var req BatchRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, "encrypt_batch", err)
		return
	}
	if len(req.Users) > h.maxBatch {
		h.fail(c, "encrypt_batch", ErrBatchTooLarge.WithMetadata(map[string]string{"max": strconv.Itoa(h.maxBatch)}))
		return
	}
	if len(req.Message) > h.maxMessage {
		h.fail(c, "encrypt_batch", ErrMessageTooLarge.WithMetadata(map[string]string{"max": strconv.Itoa(h.maxMessage)}))
		return
	}
	cv, suggestions, err := h.resolve(req.Curve)
	if err != nil {
		h.fail(c, "encrypt_batch", err, suggestionsExtra(suggestions))
		return
	}

	ctx := c.Request.Context()
	items := make([]BatchItem, len(req.Users))
	recipients := make([]ecies.Recipient, 0, len(req.Users))
	slot := make([]int, 0, len(req.Users))
	for i, user := range req.Users {
		items[i].User = user
		pub, err := h.dir.Lookup(ctx, user)
		if err == nil && !pub.Curve().Equal(cv) {
			err = ErrCurveMismatch.WithMetadata(map[string]string{"user": user})
		}
		if err != nil {
			items[i].Error, items[i].Reason = errors.FromError(err).Message, errors.Reason(err)
			continue
		}
		recipients = append(recipients, ecies.Recipient{ID: user, Point: pub.Point()})
		slot = append(slot, i)
	}

	start := time.Now()
	results := h.batcher.Encrypt(ctx, cv, recipients, []byte(req.Message))
	for j, res := range results {
		i := slot[j]
		h.metrics.observe("encrypt", start, res.Err)
		if res.Err != nil {
			items[i].Error, items[i].Reason = errors.FromError(res.Err).Message, errors.Reason(res.Err)
			continue
		}
		items[i].Envelope = res.Envelope.Compact()
		_, _ = h.hist.RecordEncryption(ctx, curveLabel(cv), res.Recipient, req.Message, items[i].Envelope)
	}
	khttp.GinJSON(c, gin.H{"results": items})
}

func (h *Handler) decrypt(c *gin.Context) {
	var req DecryptRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, "decrypt", err)
		return
	}
	cv, suggestions, err := h.resolve(req.Curve)
	if err != nil {
		h.fail(c, "decrypt", err, suggestionsExtra(suggestions))
		return
	}
	d, err := ecies.ParseScalar(req.Private)
	if err != nil {
		h.fail(c, "decrypt", err)
		return
	}
	defer d.SetInt64(0)

	var msg string
	err = h.run("decrypt", func() error {
		env, err := ecies.ParseCompact(req.Envelope)
		if err != nil {
			return err
		}
		msg, err = h.engine.DecryptMessage(cv, d, env)
		return err
	})
	if err != nil {
		h.fail(c, "decrypt", err)
		return
	}
	khttp.GinJSON(c, DecryptResponse{Message: msg})
}

func (h *Handler) listDirectory(c *gin.Context) {
	entries, err := h.dir.List(c.Request.Context())
	if err != nil {
		h.fail(c, "directory_list", err)
		return
	}
	khttp.GinJSON(c, gin.H{"entries": entries})
}

func (h *Handler) publish(c *gin.Context) {
	var req PublishRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(c, "publish", err)
		return
	}
	cv, suggestions, err := h.resolve(req.Curve)
	if err != nil {
		h.fail(c, "publish", err, suggestionsExtra(suggestions))
		return
	}

	var entry *directory.Entry
	err = h.run("publish", func() (err error) {
		entry, err = h.dir.Register(c.Request.Context(), c.Param("username"), cv.Params(), req.X, req.Y)
		return err
	})
	if err != nil {
		h.fail(c, "publish", err)
		return
	}
	khttp.GinJSON(c, entry)
}

func (h *Handler) lookup(c *gin.Context) {
	entry, err := h.dir.Entry(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, "lookup", err)
		return
	}
	khttp.GinJSON(c, entry)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.dir.Remove(c.Request.Context(), c.Param("username")); err != nil {
		h.fail(c, "remove", err)
		return
	}
	khttp.GinJSON(c, nil)
}

func (h *Handler) curveHistory(c *gin.Context) {
	records, err := h.hist.Curves(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	khttp.GinJSON(c, CurveHistory{Records: records})
}

func (h *Handler) encryptionHistory(c *gin.Context) {
	records, err := h.hist.Encryptions(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	khttp.GinJSON(c, EncryptionHistory{Records: records})
}

// bindOptional accepts an empty body.
func (h *Handler) bindOptional(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	data, err := c.GetRawData()
	if err != nil {
		return ErrBadRequest.WithCause(err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return e
		}
		return ErrBadRequest.WithCause(err)
	}
	return nil
}

func queryLimit(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

func curveLabel(cv *curve.Curve) string {
	if name := cv.Name(); name != "" {
		return name
	}
	return "custom"
}

func suggestionsExtra(points []curve.Point) any {
	if points == nil {
		return nil
	}
	return gin.H{"suggestions": points}
}
