package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"rotexchain/config"
	"rotexchain/core"
	"rotexchain/core/genesis"
	"rotexchain/observability/logging"
	"rotexchain/rpc"
	"rotexchain/storage"
)

const (
	envNameEnv     = "ROTEX_ENV"
	genesisPathEnv = "ROTEX_GENESIS"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis spec JSON file (overrides ROTEX_GENESIS and config GenesisFile)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envNameEnv))
	logger := logging.Setup("rotexd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.LogFile) != "" {
		logger = logging.SetupWithOptions("rotexd", env, logging.Options{LogFile: cfg.LogFile})
	}

	ledgerCfg, err := buildLedgerConfig(cfg)
	if err != nil {
		logger.Error("invalid exchange account configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, err := core.NewLedger(db, ledgerCfg)
	if err != nil {
		logger.Error("failed to open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer ledger.Close()

	if genesisPath := resolveGenesisPath(*genesisFlag, cfg.GenesisFile, os.LookupEnv); genesisPath != "" {
		spec, err := genesis.LoadSpec(genesisPath)
		if err != nil {
			logger.Error("failed to load genesis spec", slog.String("path", genesisPath), slog.Any("error", err))
			os.Exit(1)
		}
		switch err := ledger.ApplyGenesis(spec); {
		case err == nil:
			logger.Info("genesis applied", slog.String("path", genesisPath), slog.String("network", cfg.NetworkName))
		case errors.Is(err, core.ErrGenesisApplied):
			logger.Info("ledger already bootstrapped, skipping genesis", slog.String("path", genesisPath))
		default:
			logger.Error("failed to apply genesis", slog.Any("error", err))
			os.Exit(1)
		}
	}

	server := rpc.NewServer(ledger, rpc.ServerConfig{
		AuthToken:         cfg.AuthToken(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       cfg.IdleTimeout(),
	})

	rpcErrCh := make(chan error, 1)
	go func() {
		rpcErrCh <- server.Start(cfg.RPCAddress)
		close(rpcErrCh)
	}()
	if err := waitForRPCStartup(cfg.RPCAddress, rpcErrCh, 5*time.Second); err != nil {
		logger.Error("RPC server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("rotex node initialised and running",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-rpcErrCh:
		if ok && err != nil {
			logger.Error("RPC server terminated", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}

func buildLedgerConfig(cfg *config.Config) (core.LedgerConfig, error) {
	vault, ok, err := cfg.Exchange.VaultAccount()
	if err != nil {
		return core.LedgerConfig{}, fmt.Errorf("vault account: %w", err)
	}
	if !ok {
		vault = deriveModuleAccount("vault", cfg.NetworkName)
	}
	collector, _, err := cfg.Exchange.FeeCollectorAccount()
	if err != nil {
		return core.LedgerConfig{}, fmt.Errorf("fee collector account: %w", err)
	}
	return core.LedgerConfig{
		Vault:           vault,
		FeeCollector:    collector,
		Settlement:      cfg.Exchange.SettlementSymbol,
		Voucher:         cfg.Exchange.VoucherSymbol,
		MaxParticipants: cfg.Exchange.MaxParticipants,
		RosterSize:      cfg.Rotation.RosterSize,
		SlotDuration:    cfg.Rotation.AuctionDurationSecs,
		SlotGap:         cfg.Rotation.IntervalGapSecs,
		HandoffDelay:    cfg.Rotation.GovHandoffDelaySecs,
	}, nil
}

// deriveModuleAccount produces the deterministic account a module owns on a
// given network, so deployments without an explicit vault all agree on it.
func deriveModuleAccount(role, network string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("rotex/" + role + "/" + strings.ToLower(strings.TrimSpace(network))))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

type envLookupFunc func(string) (string, bool)

func resolveGenesisPath(cliPath, cfgPath string, lookup envLookupFunc) string {
	if trimmed := strings.TrimSpace(cliPath); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return strings.TrimSpace(cfgPath)
}

func waitForRPCStartup(addr string, errCh <-chan error, timeout time.Duration) error {
	dialAddr := dialAddressFor(addr)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if !ok {
				return fmt.Errorf("RPC server terminated before startup confirmation")
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("RPC server exited before startup confirmation")
		default:
		}

		conn, err := net.DialTimeout("tcp", dialAddr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case err, ok := <-errCh:
			if !ok {
				return fmt.Errorf("RPC server terminated before startup confirmation")
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("RPC server exited before startup confirmation")
		case <-ticker.C:
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for RPC server to start on %s", addr)
		}
	}
}

func dialAddressFor(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
