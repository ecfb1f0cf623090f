package publisher

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/defs"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/infra"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/services"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/storage"
	toolboxWallet "github.com/bsv-blockchain/go-wallet-toolbox/pkg/wallet"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/wdk"
)

// Static error variables for err113 compliance
var (
	errChainInvalid                  = errors.New("chain must be 'main' or 'test'")
	errPrivateKeyRequired            = errors.New("private key is required and cannot be empty")
	errPrivateKeyAllZeros            = errors.New("private key cannot be all zeros")
	errPrivateKeyInsufficientLength  = errors.New("private key must be exactly 32 bytes (64 hex characters)")
	errPrivateKeyInsufficientEntropy = errors.New("private key appears to have insufficient entropy")
)

// ParseChain maps a chain name to a wallet-toolbox network.
func ParseChain(chain string) (defs.BSVNetwork, error) {
	switch strings.ToLower(strings.TrimSpace(chain)) {
	case "main", "mainnet":
		return defs.NetworkMainnet, nil
	case "test", "testnet":
		return defs.NetworkTestnet, nil
	default:
		return "", fmt.Errorf("%w: got %q", errChainInvalid, chain)
	}
}

// ValidatePrivateKey checks that privateKeyHex is a usable 32-byte hex private key.
func ValidatePrivateKey(privateKeyHex string) error {
	if strings.TrimSpace(privateKeyHex) == "" {
		return errPrivateKeyRequired
	}

	privateKeyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return fmt.Errorf("private key is not valid hex: %w", err)
	}
	if len(privateKeyBytes) != 32 {
		return fmt.Errorf("%w, got %d bytes", errPrivateKeyInsufficientLength, len(privateKeyBytes))
	}

	allZeros := true
	for _, b := range privateKeyBytes {
		if b != 0 {
			allZeros = false
			break
		}
	}
	if allZeros {
		return errPrivateKeyAllZeros
	}

	// Simple heuristic, not cryptographically rigorous
	uniqueBytes := make(map[byte]bool)
	for _, b := range privateKeyBytes {
		uniqueBytes[b] = true
	}
	if len(uniqueBytes) < 4 {
		return errPrivateKeyInsufficientEntropy
	}
	return nil
}

// NewWithToolboxWallet creates a Publisher backed by a go-wallet-toolbox wallet with the
// toolbox's default services and GORM storage, migrated on first use.
func NewWithToolboxWallet(ctx context.Context, chain, privateKeyHex string, s Submitter, opts ...Option) (*Publisher, error) {
	network, err := ParseChain(chain)
	if err != nil {
		return nil, err
	}
	if err := ValidatePrivateKey(privateKeyHex); err != nil {
		return nil, err
	}

	privKey, err := ec.PrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to create private key object: %w", err)
	}

	cfg := infra.Defaults()
	cfg.ServerPrivateKey = privateKeyHex
	cfg.BSVNetwork = network
	activeServices := services.New(slog.Default(), cfg.Services)

	storageManager, err := storage.NewGORMProvider(
		cfg.BSVNetwork,
		activeServices,
		storage.WithDBConfig(cfg.DBConfig),
		storage.WithFeeModel(cfg.FeeModel),
		storage.WithCommission(cfg.Commission),
		storage.WithSynchronizeTxStatuses(cfg.SynchronizeTxStatuses),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	storageIdentityKey, err := wdk.IdentityKey(cfg.ServerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage identity key: %w", err)
	}

	if _, err := storageManager.Migrate(ctx, "helloworld-publisher", storageIdentityKey); err != nil {
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}

	wlt, err := toolboxWallet.New(network, privKey, storageManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return New(wlt, s, opts...)
}
