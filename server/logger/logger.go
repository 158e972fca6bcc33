// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup 初始化全局日志：生产环境输出JSON，开发环境输出彩色文本
func Setup(env string) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, env)))
}

// NewHandler 按运行环境创建日志处理器
func NewHandler(w io.Writer, env string) slog.Handler {
	if env == "production" || env == "prod" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	})
}
