// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package apperr

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Kind 错误分类
type Kind int

const (
	KindValidation Kind = iota + 1 // 参数缺失或格式错误
	KindAuth                       // 凭证或会话无效
	KindNotFound                   // 引用的实体不存在
	KindForbidden                  // 归属不匹配
	KindInactive                   // 比赛未在进行中
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Auth(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// Inactive 比赛未开始或已结束
func Inactive() *Error {
	return &Error{Kind: KindInactive, Code: "COMPETITION_INACTIVE", Message: "比赛未开始或已结束"}
}

// IsKind 判断 err 是否为指定分类
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status 将错误映射为HTTP状态码，未分类错误视为存储层故障
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindForbidden:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInactive:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Respond 输出错误响应
func Respond(c *gin.Context, err error) {
	respond(c, err, Status(err))
}

// RespondRef 请求体中引用的实体不存在时返回400而不是404
func RespondRef(c *gin.Context, err error) {
	status := Status(err)
	if IsKind(err, KindNotFound) {
		status = http.StatusBadRequest
	}
	respond(c, err, status)
}

func respond(c *gin.Context, err error, status int) {
	var e *Error
	if errors.As(err, &e) {
		c.JSON(status, gin.H{"error": e.Code, "message": e.Message})
		return
	}
	slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(status, gin.H{"error": "INTERNAL_ERROR", "message": "服务器内部错误"})
}

// Bind 将绑定失败转换为校验错误，列出不合法的字段
func Bind(err error) *Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return Validation("INVALID_REQUEST", "参数错误: "+strings.Join(fields, ", "))
	}
	return Validation("INVALID_REQUEST", "请求格式错误")
}
