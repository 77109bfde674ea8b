// curvebox 命令行：曲线工具、密钥管理、加解密以及 HTTP 服务
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/errors"
	"github.com/kochabx/curvebox/log"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "curvebox",
		Short:        "ECIES over arbitrary short Weierstrass curves",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return errors.Wrap(err, 400, "invalid log level %q", logLevel)
			}
			log.SetZerologGlobalLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "minimum log level for every logger (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(),
		newCurveCmd(),
		newKeyCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
	)
	return root
}

// resolveCurve 接受预置曲线名或曲线参数文件路径，空串使用 secp256k1
func resolveCurve(ref string) (*curve.Curve, error) {
	if ref == "" {
		ref = curve.NameSecp256k1
	}
	if curve.IsPreset(ref) {
		return curve.Preset(ref)
	}
	if _, err := os.Stat(ref); err != nil {
		// 既不是预置曲线也不是文件，按未知预置曲线报错
		return curve.Preset(ref)
	}
	params, err := curve.LoadParams(ref)
	if err != nil {
		return nil, err
	}
	return curve.New(params)
}

// printJSON 以缩进 JSON 输出
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSuggestions 生成元不在曲线上时列出可用的点
func printSuggestions(w io.Writer, params curve.Params, err error) {
	points := curve.SuggestFor(params, err)
	if points == nil {
		return
	}
	if len(points) == 0 {
		fmt.Fprintln(w, "no valid points to suggest for this field")
		return
	}
	fmt.Fprintln(w, "valid points on this curve:")
	for _, pt := range points {
		fmt.Fprintf(w, "  %s\n", pt)
	}
}

func newEngine() *ecies.Engine {
	return ecies.NewEngine(ecies.WithLogger(log.G))
}
