package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/weberc2/fatsim/pkg/blockstore"
	"github.com/weberc2/fatsim/pkg/fatfs"
	"github.com/weberc2/fatsim/pkg/objectstore"
	"github.com/weberc2/fatsim/pkg/snapshot"
	. "github.com/weberc2/fatsim/pkg/types"
)

const configKey = "config"

func main() {
	app := cli.App{
		Name:        appName,
		Usage:       "a FAT filesystem simulated on a block device",
		Description: "format, inspect and edit a small FAT volume stored in a host file or postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path of the volume image (file backend)",
			},
			&cli.UintFlag{
				Name:    "blocks",
				Aliases: []string{"b"},
				Usage:   "volume size in 1 KiB blocks",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "block store backend: `file` or `postgres`",
			},
			&cli.StringFlag{
				Name:  "volume",
				Usage: "volume name for the postgres backend and snapshots",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "logrus level: debug, info, warn, error",
			},
		},
		Before: before,
		Commands: append(
			operationCommands(),
			&cli.Command{
				Name:        "shell",
				Description: "run commands interactively against the volume",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "mount",
						Usage: "mount the volume before reading commands",
					},
				},
				Action: withFS(false, func(fs *fatfs.FileSystem, ctx *cli.Context) error {
					if ctx.Bool("mount") {
						if err := fs.Mount(); err != nil {
							return err
						}
					}
					shell := Shell{
						FS:     fs,
						In:     os.Stdin,
						Out:    os.Stdout,
						Prompt: appName + "> ",
					}
					return shell.Run()
				}),
			},
			snapshotCommand(),
		),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// before reads the config file and environment, then applies any global
// flags on top.
func before(ctx *cli.Context) error {
	c, err := LoadConfig()
	if err != nil {
		return err
	}
	if ctx.IsSet("image") {
		c.Image = ctx.String("image")
	}
	if ctx.IsSet("blocks") {
		c.Blocks = uint32(ctx.Uint("blocks"))
	}
	if ctx.IsSet("backend") {
		c.Backend = ctx.String("backend")
	}
	if ctx.IsSet("volume") {
		c.Volume = ctx.String("volume")
	}
	if ctx.IsSet("log-level") {
		c.LogLevel = ctx.String("log-level")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	c.ConfigureLogging()
	ctx.App.Metadata = map[string]interface{}{configKey: c}
	return nil
}

func config(ctx *cli.Context) *Config {
	return ctx.App.Metadata[configKey].(*Config)
}

func openStore(c *Config) (*blockstore.Counting, error) {
	var store blockstore.BlockStore
	switch c.Backend {
	case backendPostgres:
		pg, err := blockstore.OpenPostgres(
			&c.Postgres,
			c.VolumeName(),
			Block(c.Blocks),
		)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		f, err := blockstore.OpenFile(c.Image, Block(c.Blocks))
		if err != nil {
			return nil, err
		}
		store = f
	}
	log.WithFields(log.Fields{
		"backend": c.Backend,
		"volume":  c.VolumeName(),
		"blocks":  c.Blocks,
	}).Debug("opened block store")
	return blockstore.NewCounting(store), nil
}

func withStore(
	f func(*blockstore.Counting, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		store, err := openStore(config(ctx))
		if err != nil {
			return fmt.Errorf("opening block store: %w", err)
		}
		defer store.Close()
		return f(store, ctx)
	}
}

func withFS(mount bool, f func(*fatfs.FileSystem, *cli.Context) error) cli.ActionFunc {
	return withStore(func(store *blockstore.Counting, ctx *cli.Context) error {
		fs := fatfs.New(store)
		if mount {
			if err := fs.Mount(); err != nil {
				return err
			}
		}
		return f(fs, ctx)
	})
}

func operationCommands() []*cli.Command {
	commands := make([]*cli.Command, len(operations))
	for i := range operations {
		op := &operations[i]
		commands[i] = &cli.Command{
			Name:        op.Name,
			Usage:       op.Description,
			ArgsUsage:   strings.TrimSpace(strings.TrimPrefix(op.Usage(), op.Name)),
			Description: op.Description,
			Action: withFS(!op.Unmounted, func(fs *fatfs.FileSystem, ctx *cli.Context) error {
				if ctx.NArg() != len(op.Args) {
					return fmt.Errorf("usage: %s %s", appName, op.Usage())
				}
				return op.Run(fs, os.Stdout, ctx.Args().Slice())
			}),
		}
	}
	return commands
}

func withSnapshots(f func(*snapshot.Store, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c := config(ctx)
		if c.Bucket == "" {
			return fmt.Errorf(
				"missing required configuration: bucket / %s_BUCKET",
				envVarPrefix,
			)
		}
		s3Store, err := objectstore.NewS3ObjectStore(c.Bucket, c.Region)
		if err != nil {
			return err
		}
		return f(&snapshot.Store{
			ObjectStore: &objectstore.GzipObjectStore{ObjectStore: s3Store},
			Prefix:      c.Prefix,
		}, ctx)
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:        "snapshot",
		Description: "copy whole volume images to and from S3",
		Subcommands: []*cli.Command{{
			Name:        "push",
			Description: "upload the volume as a new snapshot",
			Action: withSnapshots(func(snapshots *snapshot.Store, ctx *cli.Context) error {
				return withStore(func(store *blockstore.Counting, ctx *cli.Context) error {
					manifest, err := snapshots.Push(config(ctx).VolumeName(), store)
					if err != nil {
						return err
					}
					fmt.Println(manifest.ID)
					return nil
				})(ctx)
			}),
		}, {
			Name:        "pull",
			Description: "overwrite the volume with a snapshot",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Usage:    "the snapshot to restore",
					Required: true,
				},
			},
			Action: withSnapshots(func(snapshots *snapshot.Store, ctx *cli.Context) error {
				return withStore(func(store *blockstore.Counting, ctx *cli.Context) error {
					_, err := snapshots.Pull(
						config(ctx).VolumeName(),
						ctx.String("id"),
						store,
					)
					return err
				})(ctx)
			}),
		}, {
			Name:        "list",
			Aliases:     []string{"ls"},
			Description: "list the volume's snapshots, oldest first",
			Action: withSnapshots(func(snapshots *snapshot.Store, ctx *cli.Context) error {
				manifests, err := snapshots.List(config(ctx).VolumeName())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tBLOCKS\tDIGEST")
				for _, manifest := range manifests {
					fmt.Fprintf(
						w,
						"%s\t%s\t%d\t%.16s\n",
						manifest.ID,
						manifest.CreatedAt.Format(time.RFC3339),
						manifest.Blocks,
						manifest.Digest,
					)
				}
				return w.Flush()
			}),
		}},
	}
}
