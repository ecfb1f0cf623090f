package main

import (
	"encoding/json"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/wallet"
	"github.com/spf13/cobra"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/publisher"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/token"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

type encodeOutput struct {
	Message       string `json:"message"`
	LockingScript string `json:"lockingScript"`
	IdentityKey   string `json:"identityKey"`
}

type decodeOutput struct {
	Message string `json:"message"`
}

type sendOutput struct {
	*publisher.Result

	Steak json.RawMessage `json:"steak"`
}

func (a *app) newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <message>",
		Short: "Print the HelloWorld locking script for a message",
		Long:  "Print the HelloWorld locking script for a message. Without --private-key an ephemeral key signs the token.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.signingKey()
			if err != nil {
				return err
			}
			w, err := wallet.NewCompletedProtoWallet(key)
			if err != nil {
				return fmt.Errorf("failed to create wallet: %w", err)
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			lockingScript, err := token.NewCodec(w, types.DefaultScope()).EncodeHex(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), encodeOutput{
				Message:       args[0],
				LockingScript: lockingScript,
				IdentityKey:   key.PubKey().ToDERHex(),
			})
		},
	}
}

func (a *app) newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <locking-script-hex>",
		Short: "Print the message locked in a HelloWorld locking script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := token.DecodeHex(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decodeOutput{Message: message})
		},
	}
}

func (a *app) newSendCmd() *cobra.Command {
	var satoshis uint64

	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Create a HelloWorld token with the wallet and submit it to the overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.PrivateKey == "" {
				return errPrivateKeyMissing
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			p, err := publisher.NewWithToolboxWallet(ctx, a.cfg.Chain, a.cfg.PrivateKey, c,
				publisher.WithSatoshis(satoshis),
				publisher.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			result, err := p.Publish(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sendOutput{Result: result, Steak: result.Response.Raw})
		},
	}
	cmd.Flags().Uint64Var(&satoshis, "satoshis", publisher.DefaultSatoshis, "value locked in the token output")
	return cmd
}

func (a *app) newFindCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "find [message]",
		Short: "List HelloWorld tokens known to the overlay",
		Long:  "List HelloWorld tokens whose message contains the given text. With no argument or --all every token is listed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := types.FindAll()
			if len(args) == 1 && !all {
				query = types.ByMessage(args[0])
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			tokens, err := c.Lookup(ctx, query)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tokens)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every token, ignoring the message argument")
	return cmd
}

// signingKey returns the configured private key, or a fresh one when none is set.
func (a *app) signingKey() (*ec.PrivateKey, error) {
	if a.cfg.PrivateKey == "" {
		return ec.NewPrivateKey()
	}
	if err := publisher.ValidatePrivateKey(a.cfg.PrivateKey); err != nil {
		return nil, err
	}
	key, err := ec.PrivateKeyFromHex(a.cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
