// Package keytool implements the operator commands for key material:
// generating secrets, producing transport ciphertext the way a client does,
// and computing account lookup keys.
package keytool

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/spf13/cobra"
)

// TransportKeyEnv names the variable holding the transport secret.
const TransportKeyEnv = "TRANSPORT_KEY"

var ErrNoTransportKey = errors.New(TransportKeyEnv + " is not set")

type options struct {
	envFile string
	in      io.Reader
}

// NewRootCommand builds the keytool command tree reading from in and
// writing to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{in: in}

	root := &cobra.Command{
		Use:           "keytool",
		Short:         "Key material helper for the admin backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVarP(&opts.envFile, "env", "e", "", "dotenv file to read "+TransportKeyEnv+" from")

	root.AddCommand(newGenKeyCommand(), newEncryptCommand(opts), newDecryptCommand(opts), newLookupCommand())
	return root
}

func newGenKeyCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Print a random base64 secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < 16 {
				return fmt.Errorf("size must be at least 16 bytes, got %d", size)
			}
			buf := common.GenerateRandByteArray(size)
			defer common.WipeByteArray(buf)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(buf))
			return err
		},
	}
	cmd.Flags().IntVarP(&size, "bytes", "b", 32, "number of random bytes")
	return cmd
}

func (o *options) transportKey() (cryptox.TransportKey, error) {
	if o.envFile != "" {
		vals, err := godotenv.Read(o.envFile)
		if err != nil {
			return cryptox.TransportKey{}, fmt.Errorf("read %s: %w", o.envFile, err)
		}
		if v, ok := vals[TransportKeyEnv]; ok {
			return cryptox.NewTransportKey(v)
		}
	}
	v := os.Getenv(TransportKeyEnv)
	if v == "" {
		return cryptox.TransportKey{}, ErrNoTransportKey
	}
	return cryptox.NewTransportKey(v)
}

func (o *options) value(cmd *cobra.Command, args []string, prompt string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return readSecret(o.in, cmd.ErrOrStderr(), prompt)
}

func newEncryptCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Print the transport ciphertext of a value",
		Long: "Print the transport-key ciphertext a client would send for value.\n" +
			"Without an argument the value is read from the terminal without echo.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kt, err := o.transportKey()
			if err != nil {
				return err
			}
			plain, err := o.value(cmd, args, "Value")
			if err != nil {
				return err
			}
			c, err := cryptox.Encrypt(plain, kt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), c)
			return err
		},
	}
}

func newDecryptCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [ciphertext]",
		Short: "Print the plaintext of a transport ciphertext",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kt, err := o.transportKey()
			if err != nil {
				return err
			}
			c, err := o.value(cmd, args, "Ciphertext")
			if err != nil {
				return err
			}
			plain, err := cryptox.Decrypt(c, kt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), plain)
			return err
		},
	}
}

func newLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <email>",
		Short: "Print the lookup key stored for an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cryptox.Digest(args[0]))
			return err
		},
	}
}
