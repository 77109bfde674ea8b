package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/curvebox/errors"
)

const (
	// 默认响应消息
	defaultSuccessMsg = "success"
	defaultErrorMsg   = "operation failed"

	// 默认响应码
	successCode = http.StatusOK
)

// Response 表示标准化的 API 响应结构
// 使用泛型 T 来支持任意类型的数据字段
type Response[T any] struct {
	Code int    `json:"code"`           // 业务状态码
	Msg  string `json:"msg,omitempty"`  // 响应消息
	Data T      `json:"data,omitempty"` // 响应数据
}

// ErrorDetail 错误响应的 data 字段
type ErrorDetail struct {
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	// Extra 由调用方附加的上下文，例如曲线校验失败时的候选点
	Extra any `json:"extra,omitempty"`
}

// GinJSON 写入成功的 JSON 响应
// HTTP 状态码固定为 200，业务码为 200，消息为 "success"
//
// 示例：
//
//	GinJSON(c, gin.H{"presets": names})
//	// 输出: {"code":200, "msg":"success", "data":{"presets":[...]}}
func GinJSON(c *gin.Context, data any) {
	if c == nil {
		return
	}

	c.JSON(http.StatusOK, &Response[any]{
		Code: successCode,
		Msg:  defaultSuccessMsg,
		Data: data,
	})
}

// GinJSONE 写入带有自定义业务码的 JSON 响应
// HTTP 状态码固定为 200，业务码和消息根据参数决定
//
// data 参数支持多种类型：
//   - error: 自动提取错误消息，优先从 errors.Error 中提取
//   - string: 直接作为消息使用
//   - nil: 使用默认错误消息
//   - 其他类型: 作为 data 字段返回，消息为空
func GinJSONE(c *gin.Context, code int, data any) {
	if c == nil {
		return
	}

	var msg string
	var respData any

	switch v := data.(type) {
	case error:
		msg = extractErrorMessage(v)
	case string:
		msg = v
	case nil:
		msg = defaultErrorMsg
	default:
		respData = v
	}

	c.JSON(http.StatusOK, &Response[any]{
		Code: code,
		Msg:  msg,
		Data: respData,
	})
}

// GinError 按 errors.Error 渲染错误响应并中止后续处理
// 业务码在 400-599 之间时同时作为 HTTP 状态码，否则使用 500
//
// 示例：
//
//	GinError(c, ecerr.New(ecerr.OutOfRange, "").WithMetadata(map[string]string{"min": "1"}))
//	// HTTP 422: {"code":422, "msg":"scalar out of range", "data":{"reason":"OUT_OF_RANGE","metadata":{"min":"1"}}}
func GinError(c *gin.Context, err error, extra ...any) {
	if c == nil {
		return
	}

	e := errors.FromError(err)
	if e == nil {
		e = errors.Internal(defaultErrorMsg)
	}

	status := e.Code
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}

	detail := &ErrorDetail{Reason: e.Reason, Metadata: e.GetMetadata()}
	if len(extra) > 0 {
		detail.Extra = extra[0]
	}

	var data *ErrorDetail
	if detail.Reason != "" || detail.Metadata != nil || detail.Extra != nil {
		data = detail
	}

	c.AbortWithStatusJSON(status, &Response[*ErrorDetail]{
		Code: e.Code,
		Msg:  e.Message,
		Data: data,
	})
}

// extractErrorMessage 从 error 中提取消息
// 优先尝试从 errors.Error 中提取，如果失败则使用 Error() 方法
func extractErrorMessage(err error) string {
	if err == nil {
		return defaultErrorMsg
	}

	var e *errors.Error
	if errors.As(err, &e) {
		return e.Message
	}

	return err.Error()
}

// Success 创建成功响应对象（辅助函数）
func Success[T any](data T) *Response[T] {
	return &Response[T]{
		Code: successCode,
		Msg:  defaultSuccessMsg,
		Data: data,
	}
}

// Failure 创建失败响应对象（辅助函数）
func Failure(code int, msg string) *Response[any] {
	return &Response[any]{
		Code: code,
		Msg:  msg,
	}
}
