package writer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console 创建控制台输出 writer，写到 stderr 以免污染命令行输出
func Console() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         os.Stderr,
		TimeFormat:  time.DateTime,
		FormatLevel: formatLevel,
	}
}

// Stdout JSON 格式直接写标准输出
func Stdout() io.Writer {
	return os.Stdout
}

// formatLevel 格式化日志级别显示
func formatLevel(i any) string {
	return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
}
