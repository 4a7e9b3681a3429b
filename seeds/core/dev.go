package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edvin/mailhub/internal/crypto"
)

const (
	devCustomerID   = "cust_demo_dev_000000000001"
	devMembershipID = "mship_demo_dev_000000000001"
	devAPIKeyID     = "key_demo_dev_000000000001"

	// devAPIKey is the well-known raw key the e2e suite authenticates
	// with. Never seed this outside a dev environment.
	devAPIKey = "mhb_dev_e2e_test_key_00000000"
)

func main() {
	databaseURL := os.Getenv("CORE_DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "CORE_DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Seeding core database...")

	fmt.Println("  Inserting platform config...")
	defaults := map[string]string{
		"email_accounts_enabled":   "true",
		"default_provider":         "purelymail",
		"default_account_quota_mb": "2048",
	}
	for key, value := range defaults {
		_, err = pool.Exec(ctx,
			`INSERT INTO platform_config (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			key, value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert config %s: %v\n", key, err)
			os.Exit(1)
		}
	}

	fmt.Println("  Inserting customer...")
	_, err = pool.Exec(ctx,
		`INSERT INTO customers (id, name, email) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		devCustomerID, "Acme Corp", "billing@acme-corp.test")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert customer: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting membership...")
	_, err = pool.Exec(ctx,
		`INSERT INTO memberships (id, customer_id, plan_name, status) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		devMembershipID, devCustomerID, "mail-basic", "active")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert membership: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Granting mailbox slots...")
	_, err = pool.Exec(ctx,
		`INSERT INTO limitations (membership_id, feature, enabled, limit_value) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (membership_id, feature) DO UPDATE SET enabled = EXCLUDED.enabled, limit_value = EXCLUDED.limit_value`,
		devMembershipID, "email_accounts", true, 5)
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert limitation: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting dev API key...")
	_, err = pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
		devAPIKeyID, "dev-e2e", crypto.GenericHash(devAPIKey), devAPIKey[:12], []string{"*:*"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert api key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Seed complete!")
	fmt.Println()
	fmt.Println("  Customer: Acme Corp (mail-basic, 5 mailbox slots)")
	fmt.Printf("  API key:  %s\n", devAPIKey)
}
