package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/kochabx/curvebox/core/crypto/curve"
	"github.com/kochabx/curvebox/errors"
)

func newCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Inspect, generate and validate curves",
	}
	cmd.AddCommand(
		curvePresetsCmd(),
		curveShowCmd(),
		curveRandomCmd(),
		curvePointsCmd(),
		curveValidateCmd(),
		curveExportCmd(),
	)
	return cmd
}

func curvePresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset curves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range curve.PresetNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func curveShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print the parameters of a preset curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := curve.Preset(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c.Params())
		},
	}
}

func curveRandomCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Search for a small random test curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := curve.FindRandomTestCurve(nil)
			if err != nil {
				return err
			}
			if out != "" {
				if err := curve.SaveParams(c.Params(), out); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), c.Params())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the parameters to this file")
	return cmd
}

func curvePointsCmd() *cobra.Command {
	var a, b, p string
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Enumerate every affine point of a small curve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ints := make([]*big.Int, 3)
			for i, s := range []string{a, b, p} {
				v, ok := new(big.Int).SetString(s, 10)
				if !ok {
					return errors.BadRequest("a, b and p must be decimal integers")
				}
				ints[i] = v
			}
			points, err := curve.EnumeratePoints(ints[0], ints[1], ints[2])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d points\n", len(points))
			for _, pt := range points {
				fmt.Fprintln(w, pt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&a, "a", "", "coefficient a")
	cmd.Flags().StringVar(&b, "b", "", "coefficient b")
	cmd.Flags().StringVar(&p, "p", "", "prime modulus p")
	for _, name := range []string{"a", "b", "p"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func curveValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a curve parameter file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := curve.LoadParams(file)
			if err != nil {
				return err
			}
			c, err := curve.New(params)
			if err != nil {
				printSuggestions(cmd.ErrOrStderr(), params, err)
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "curve is valid")
			if c.IsSingular() {
				fmt.Fprintln(w, "warning: the curve is singular (4a³ + 27b² ≡ 0 mod p)")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "curve parameter file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func curveExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write the parameters of a preset curve to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := curve.Preset(args[0])
			if err != nil {
				return err
			}
			if err := curve.SaveParams(c.Params(), out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", curve.ParamsFilename, "output file")
	return cmd
}
