package blockstore

import (
	"fmt"
	"os"
	"testing"
	"time"

	. "github.com/weberc2/fatsim/pkg/types"
)

func TestPostgres(t *testing.T) {
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set; skipping postgres block store tests")
	}

	params := PostgresParamsFromEnv()
	store, err := OpenPostgres(
		&params,
		fmt.Sprintf("test-%d", time.Now().UnixNano()),
		8,
	)
	if err != nil {
		t.Fatalf("OpenPostgres(): unexpected err: %v", err)
	}
	defer func() {
		if err := store.DropVolume(); err != nil {
			t.Errorf("DropVolume(): unexpected err: %v", err)
		}
		store.Close()
	}()

	// unwritten blocks read back as zeros
	found := block(0xff)
	if err := store.ReadBlock(3, found); err != nil {
		t.Fatalf("ReadBlock(): unexpected err: %v", err)
	}
	if wanted := make([]byte, BlockSize); string(wanted) != string(found) {
		t.Fatal("ReadBlock(): wanted zeros for an unwritten block")
	}

	testRoundTrip(t, store)
	testBounds(t, store)
}

func TestPostgresParams_DSN(t *testing.T) {
	params := PostgresParams{
		Host:     "db",
		Port:     "5433",
		User:     "fat",
		Password: "secret",
		DBName:   "volumes",
		SSLMode:  "require",
	}
	wanted := "host=db port=5433 user=fat password=secret dbname=volumes " +
		"sslmode=require"
	if found := params.DSN(); found != wanted {
		t.Fatalf("DSN(): wanted `%s`; found `%s`", wanted, found)
	}
}
