package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kochabx/curvebox/core/crypto/ecies"
	"github.com/kochabx/curvebox/errors"
)

var (
	errNoRecipient = errors.BadRequest("either --to-key or both --to-x and --to-y are required")
	errNoInput     = errors.BadRequest("exactly one of --message and --file is required")
	errNoEnvelope  = errors.BadRequest("exactly one of --envelope and --file is required")
)

func newEncryptCmd() *cobra.Command {
	var curveRef, toX, toY, toKey, message, file, outDir string
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a message or a file for a public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (message == "") == (file == "") {
				return errNoInput
			}
			pub, err := recipientKey(curveRef, toKey, toX, toY)
			if err != nil {
				return err
			}
			engine := newEngine()

			if message != "" {
				env, err := engine.EncryptMessage(pub.Curve(), pub.Point(), message)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), env.Compact())
				return nil
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, 400, "read %s", file)
			}
			name := filepath.Base(file)
			fe, err := engine.EncryptFile(pub.Curve(), pub.Point(), name, mime.TypeByExtension(filepath.Ext(name)), data)
			if err != nil {
				return err
			}
			out, err := fe.Marshal()
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, ecies.EncryptedFilename(name))
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return errors.Wrap(err, 500, "write %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&curveRef, "curve", "c", "", "preset name or curve parameter file, ignored with --to-key (default secp256k1)")
	f.StringVar(&toX, "to-x", "", "recipient x coordinate")
	f.StringVar(&toY, "to-y", "", "recipient y coordinate")
	f.StringVar(&toKey, "to-key", "", "recipient public key PEM file")
	f.StringVarP(&message, "message", "m", "", "text message to encrypt")
	f.StringVarP(&file, "file", "f", "", "file to encrypt")
	f.StringVarP(&outDir, "out-dir", "o", ".", "directory for the encrypted file")
	cmd.MarkFlagsMutuallyExclusive("to-key", "to-x")
	cmd.MarkFlagsMutuallyExclusive("to-key", "to-y")
	cmd.MarkFlagsMutuallyExclusive("message", "file")
	return cmd
}

// recipientKey 从 PEM 文件或坐标构造收件人公钥
func recipientKey(curveRef, toKey, toX, toY string) (*ecies.PublicKey, error) {
	if toKey != "" {
		return ecies.LoadPublicKey(toKey)
	}
	if toX == "" || toY == "" {
		return nil, errNoRecipient
	}
	c, err := resolveCurve(curveRef)
	if err != nil {
		return nil, err
	}
	return ecies.ParsePublicKey(c, toX, toY)
}

func newDecryptCmd() *cobra.Command {
	var curveRef, keyFile, private, envelope, file, outDir string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt an envelope or an encrypted file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (envelope == "") == (file == "") {
				return errNoEnvelope
			}
			key, err := privateKey(curveRef, keyFile, private)
			if err != nil {
				return err
			}
			defer key.Destroy()
			engine := newEngine()

			if envelope != "" {
				env, err := ecies.ParseCompact(envelope)
				if err != nil {
					return err
				}
				msg, err := engine.DecryptMessage(key.Curve(), key.Scalar(), env)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, 400, "read %s", file)
			}
			df, err := engine.DecryptFile(key.Curve(), key.Scalar(), data)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, decryptedName(df.Filename))
			if err := os.WriteFile(path, df.Data, 0o600); err != nil {
				return errors.Wrap(err, 500, "write %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", path, df.MimeType)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&curveRef, "curve", "c", "", "preset name or curve parameter file, ignored with --key (default secp256k1)")
	f.StringVarP(&keyFile, "key", "k", "", "private key PEM file")
	f.StringVar(&private, "private", "", "private scalar, decimal or 0x-prefixed hex")
	f.StringVarP(&envelope, "envelope", "e", "", "compact envelope x|y|iv|ciphertext")
	f.StringVarP(&file, "file", "f", "", "encrypted .enc.json file")
	f.StringVarP(&outDir, "out-dir", "o", ".", "directory for the decrypted file")
	cmd.MarkFlagsOneRequired("key", "private")
	cmd.MarkFlagsMutuallyExclusive("key", "private")
	cmd.MarkFlagsMutuallyExclusive("envelope", "file")
	return cmd
}

// privateKey 从 PEM 文件或标量构造私钥
func privateKey(curveRef, keyFile, private string) (*ecies.PrivateKey, error) {
	if keyFile != "" {
		return ecies.LoadPrivateKey(keyFile)
	}
	c, err := resolveCurve(curveRef)
	if err != nil {
		return nil, err
	}
	d, err := ecies.ParseScalar(private)
	if err != nil {
		return nil, err
	}
	defer d.SetInt64(0)
	return ecies.NewPrivateKey(c, d)
}

// decryptedName 只取信封中文件名的最后一段，不是普通文件名时用默认名
func decryptedName(name string) string {
	base := filepath.Base(name)
	switch base {
	case ".", "..", string(filepath.Separator):
		return ecies.DefaultDecryptedFilename
	}
	return base
}
