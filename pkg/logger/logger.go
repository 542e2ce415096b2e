package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// 全局日志实例，未初始化时使用 logrus 默认配置
var (
	std  = logrus.New()
	once sync.Once
)

// Init 初始化全局日志
// level: debug / info / warn / error
// format: json / text
func Init(level, format string) {
	once.Do(func() {
		configure(std, level, format, os.Stdout)
	})
}

// L 获取全局日志
func L() *logrus.Logger {
	return std
}

// New 创建独立日志实例 (测试或 CLI 使用)
func New(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()
	configure(l, level, format, out)
	return l
}

func configure(l *logrus.Logger, level, format string, out io.Writer) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetOutput(out)

	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		return
	}
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}
