package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/common"
	"github.com/giftring/giftring-core/config"
	"github.com/giftring/giftring-core/engine"
	"github.com/giftring/giftring-core/log"
	"github.com/giftring/giftring-core/service"
	"github.com/giftring/giftring-core/storage"
	"github.com/giftring/giftring-core/types"
	"github.com/giftring/giftring-core/verifier"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	host := flag.String("host", "0.0.0.0", "API listen address")
	port := flag.Int("port", 8080, "API listen port")
	dataDir := flag.String("dataDir", filepath.Join(os.TempDir(), "giftringd"), "directory for the persistent database")
	dbType := flag.String("dbType", db.TypePebble, "key-value database driver")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	logOutput := flag.String("logOutput", "stdout", "log output (stdout, stderr or a file path)")
	factory := flag.String("factory", "0x0000000000000000000000000000000000000000", "address used to derive round event ids")
	proofSystem := flag.String("proofSystem", "dev", "proof verifier backend (dev, groth16, circom)")
	senderKeyPath := flag.String("senderKey", "", "local sender verification key, overrides the published artifact")
	receiverKeyPath := flag.String("receiverKey", "", "local receiver verification key, overrides the published artifact")
	monitorInterval := flag.Duration("monitorInterval", 10*time.Second, "audit log polling interval")
	flag.Parse()

	log.Init(*logLevel, *logOutput, nil)

	if !common.IsHexAddress(*factory) {
		log.Fatalf("invalid factory address %q", *factory)
	}

	ctx := context.Background()

	verifierSender, verifierReceiver, err := buildVerifiers(ctx, *proofSystem, *senderKeyPath, *receiverKeyPath)
	if err != nil {
		log.Fatal(err)
	}

	database, err := metadb.New(*dbType, filepath.Join(*dataDir, "db"))
	if err != nil {
		log.Fatal(err)
	}
	stg, err := storage.New(database)
	if err != nil {
		log.Fatal(err)
	}

	eng, err := engine.New(stg, engine.Config{
		FactoryAddress:   common.HexToAddress(*factory),
		VerifierSender:   verifierSender,
		VerifierReceiver: verifierReceiver,
	})
	if err != nil {
		log.Fatal(err)
	}

	apiService := service.NewAPI(eng, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatal(err)
	}

	monitor := service.NewEventMonitor(eng, *monitorInterval)
	if err := monitor.Start(ctx); err != nil {
		log.Fatal(err)
	}

	log.Infow("giftringd is ready",
		"host", *host,
		"port", *port,
		"dataDir", *dataDir,
		"proofSystem", *proofSystem,
		"factory", common.HexToAddress(*factory).Hex(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("shutting down", "signal", sig.String())

	monitor.Stop()
	apiService.Stop()
	stg.Close()
}

// buildVerifiers returns the sender and receiver proof verifiers for the
// chosen backend. The dev backend accepts every proof and must not be used
// outside local development.
func buildVerifiers(ctx context.Context, system, senderKeyPath, receiverKeyPath string) (verifier.Verifier, verifier.Verifier, error) {
	if system == "dev" {
		log.Warnw("development proof system, every proof is accepted")
		return verifier.Static(true), verifier.Static(true), nil
	}

	senderKey, receiverKey, err := loadVerifyingKeys(ctx, senderKeyPath, receiverKeyPath)
	if err != nil {
		return nil, nil, err
	}

	switch system {
	case "groth16":
		verifierSender, err := verifier.Groth16FromBytes(senderKey, types.SenderPublicInputs)
		if err != nil {
			return nil, nil, fmt.Errorf("sender verifier: %w", err)
		}
		verifierReceiver, err := verifier.Groth16FromBytes(receiverKey, types.ReceiverPublicInputs)
		if err != nil {
			return nil, nil, fmt.Errorf("receiver verifier: %w", err)
		}
		return verifierSender, verifierReceiver, nil
	case "circom":
		verifierSender, err := verifier.NewCircomGroth16(senderKey, types.SenderPublicInputs)
		if err != nil {
			return nil, nil, fmt.Errorf("sender verifier: %w", err)
		}
		verifierReceiver, err := verifier.NewCircomGroth16(receiverKey, types.ReceiverPublicInputs)
		if err != nil {
			return nil, nil, fmt.Errorf("receiver verifier: %w", err)
		}
		return verifierSender, verifierReceiver, nil
	default:
		return nil, nil, fmt.Errorf("unknown proof system %q", system)
	}
}

// loadVerifyingKeys reads the verification keys from the given paths, or
// downloads the published artifacts when no paths are set.
func loadVerifyingKeys(ctx context.Context, senderPath, receiverPath string) ([]byte, []byte, error) {
	if senderPath != "" || receiverPath != "" {
		if senderPath == "" || receiverPath == "" {
			return nil, nil, fmt.Errorf("senderKey and receiverKey must be provided together")
		}
		senderKey, err := os.ReadFile(senderPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read sender key: %w", err)
		}
		receiverKey, err := os.ReadFile(receiverPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read receiver key: %w", err)
		}
		return senderKey, receiverKey, nil
	}

	keys := config.DefaultVerifyingKeys()
	if err := keys.LoadAll(ctx); err != nil {
		return nil, nil, err
	}
	return keys.SenderKey(), keys.ReceiverKey(), nil
}
