package blockstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/lib/pq"

	. "github.com/weberc2/fatsim/pkg/types"
)

const DefaultTable = "blocks"

// PostgresParams holds the connection settings for a postgres block store.
type PostgresParams struct {
	Host     string `envconfig:"PG_HOST"     yaml:"host"`
	Port     string `envconfig:"PG_PORT"     yaml:"port"`
	User     string `envconfig:"PG_USER"     yaml:"user"`
	Password string `envconfig:"PG_PASS"     yaml:"password"`
	DBName   string `envconfig:"PG_DB_NAME"  yaml:"dbName"`
	SSLMode  string `envconfig:"PG_SSL_MODE" yaml:"sslMode"`
	Table    string `envconfig:"PG_TABLE"    yaml:"table"`
}

func DefaultPostgresParams() PostgresParams {
	return PostgresParams{
		Host:    "localhost",
		Port:    "5432",
		User:    "postgres",
		DBName:  "postgres",
		SSLMode: "disable",
		Table:   DefaultTable,
	}
}

// PostgresParamsFromEnv overlays the `PG_*` environment variables onto the
// defaults.
func PostgresParamsFromEnv() PostgresParams {
	def := DefaultPostgresParams()
	return PostgresParams{
		Host:     getEnv("PG_HOST", def.Host),
		Port:     getEnv("PG_PORT", def.Port),
		User:     getEnv("PG_USER", def.User),
		Password: getEnv("PG_PASS", def.Password),
		DBName:   getEnv("PG_DB_NAME", def.DBName),
		SSLMode:  getEnv("PG_SSL_MODE", def.SSLMode),
		Table:    getEnv("PG_TABLE", def.Table),
	}
}

func (params *PostgresParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host,
		params.Port,
		params.User,
		params.Password,
		params.DBName,
		params.SSLMode,
	)
}

func getEnv(env, def string) string {
	x := os.Getenv(env)
	if x == "" {
		return def
	}
	return x
}

// Postgres stores each block as a row keyed by volume name and block index.
// Blocks that were never written read back as zeros, so a fresh volume needs
// no pre-sizing.
type Postgres struct {
	db     *sql.DB
	table  string
	volume string
	blocks Block
}

func OpenPostgres(
	params *PostgresParams,
	volume string,
	blocks Block,
) (*Postgres, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	table := params.Table
	if table == "" {
		table = DefaultTable
	}

	store := &Postgres{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		volume: volume,
		blocks: blocks,
	}
	if err := store.EnsureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (store *Postgres) EnsureTable() error {
	if _, err := store.db.Exec(
		"CREATE TABLE IF NOT EXISTS " + store.table + " (" +
			"volume VARCHAR(255) NOT NULL, " +
			"idx BIGINT NOT NULL, " +
			"data BYTEA NOT NULL, " +
			"PRIMARY KEY (volume, idx))",
	); err != nil {
		return fmt.Errorf("creating %s postgres table: %w", store.table, err)
	}
	return nil
}

// DropVolume deletes every block belonging to this store's volume.
func (store *Postgres) DropVolume() error {
	if _, err := store.db.Exec(
		"DELETE FROM "+store.table+" WHERE volume = $1",
		store.volume,
	); err != nil {
		return fmt.Errorf("dropping volume `%s`: %w", store.volume, err)
	}
	return nil
}

func (store *Postgres) Size() Block { return store.blocks }

func (store *Postgres) ReadBlock(block Block, p []byte) error {
	if err := check(store.blocks, block, p); err != nil {
		return fmt.Errorf("reading from volume `%s`: %w", store.volume, err)
	}

	var data []byte
	if err := store.db.QueryRow(
		"SELECT data FROM "+store.table+" WHERE volume = $1 AND idx = $2",
		store.volume,
		int64(block),
	).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			for i := range p {
				p[i] = 0
			}
			return nil
		}
		return fmt.Errorf(
			"reading block `%d` from volume `%s`: %w",
			block,
			store.volume,
			err,
		)
	}

	if Byte(len(data)) != BlockSize {
		return fmt.Errorf(
			"reading block `%d` from volume `%s`: stored row has `%d` "+
				"bytes: %w",
			block,
			store.volume,
			len(data),
			ErrBadBuffer,
		)
	}
	copy(p, data)
	return nil
}

func (store *Postgres) WriteBlock(block Block, p []byte) error {
	if err := check(store.blocks, block, p); err != nil {
		return fmt.Errorf("writing to volume `%s`: %w", store.volume, err)
	}

	if _, err := store.db.Exec(
		"INSERT INTO "+store.table+" (volume, idx, data) VALUES ($1, $2, $3) "+
			"ON CONFLICT (volume, idx) DO UPDATE SET data = EXCLUDED.data",
		store.volume,
		int64(block),
		p,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf(
				"writing block `%d` to volume `%s`: postgres error `%s`: %w",
				block,
				store.volume,
				pqErr.Code,
				err,
			)
		}
		return fmt.Errorf(
			"writing block `%d` to volume `%s`: %w",
			block,
			store.volume,
			err,
		)
	}
	return nil
}

func (store *Postgres) Close() error {
	if err := store.db.Close(); err != nil {
		return fmt.Errorf("closing postgres database: %w", err)
	}
	return nil
}
