package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kochabx/curvebox/core/crypto/ecies"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate and derive key pairs",
	}
	cmd.AddCommand(keyGenerateCmd(), keyDeriveCmd())
	return cmd
}

func keyGenerateCmd() *cobra.Command {
	var curveRef, outDir string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a key pair and write it as PEM files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveCurve(curveRef)
			if err != nil {
				return err
			}
			key, err := newEngine().GenerateKeyFiles(c, ecies.WithDirpath(outDir))
			if err != nil {
				return err
			}
			defer key.Destroy()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "private key: %s\n", filepath.Join(outDir, "private.pem"))
			fmt.Fprintf(w, "public key:  %s\n", filepath.Join(outDir, "public.pem"))
			fmt.Fprintf(w, "public point: %s\n", key.Public().Compact())
			return nil
		},
	}
	cmd.Flags().StringVarP(&curveRef, "curve", "c", "", "preset name or curve parameter file (default secp256k1)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for private.pem and public.pem")
	return cmd
}

func keyDeriveCmd() *cobra.Command {
	var curveRef, private string
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the public point of a private scalar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveCurve(curveRef)
			if err != nil {
				return err
			}
			d, err := ecies.ParseScalar(private)
			if err != nil {
				return err
			}
			defer d.SetInt64(0)

			pub, err := ecies.DerivePublic(c, d)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "x: %s\ny: %s\n", pub.X(), pub.Y())
			fmt.Fprintf(w, "compact: %s\n", pub.Compact())
			fmt.Fprintf(w, "hex: %s\n", pub.Hex())
			return nil
		},
	}
	cmd.Flags().StringVarP(&curveRef, "curve", "c", "", "preset name or curve parameter file (default secp256k1)")
	cmd.Flags().StringVar(&private, "private", "", "private scalar, decimal or 0x-prefixed hex")
	_ = cmd.MarkFlagRequired("private")
	return cmd
}
