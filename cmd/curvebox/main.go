package main

import (
	"os"
)

func main() {
	// cobra 已输出错误信息，这里只需要返回非 0 状态码
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
