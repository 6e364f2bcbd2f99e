// cmd/security/key_gen.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"

	"wallet-sync-service/internal/security"
)

func main() {
	_ = godotenv.Load()

	store := flag.Bool("store", false, "write the key into the file vault instead of printing an env line")
	vaultDir := flag.String("vault-dir", envOr("FILE_VAULT_DIR", "./vault"), "file vault directory")
	flag.Parse()

	key, err := security.GenerateMasterKey()
	if err != nil {
		log.Fatal(err)
	}

	if *store {
		vaultKey := os.Getenv("FILE_VAULT_KEY")
		if vaultKey == "" {
			log.Fatal("FILE_VAULT_KEY must be set to use -store")
		}
		provider, err := security.NewFileVaultProvider(*vaultDir, vaultKey)
		if err != nil {
			log.Fatal(err)
		}
		vault := security.NewVault(provider, clock.NewDefaultClock(), zap.NewNop())
		if err := vault.SetSecret(context.Background(), security.MasterKeyPath, key); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Keychain master key stored in %s\n", *vaultDir)
		return
	}

	fmt.Println("==============================================")
	fmt.Println("Generated keychain master key:")
	fmt.Println("==============================================")
	fmt.Println(key)
	fmt.Println("==============================================")
	fmt.Println("Add this to your .env file as:")
	fmt.Println("KEYCHAIN_MASTER_KEY=" + key)
	fmt.Println("==============================================")
	fmt.Println("Rotating this key makes every stored wallet secret unreadable.")
	fmt.Println("==============================================")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
