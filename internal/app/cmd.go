package app

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はセッションクリーンアップワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

const appName = "recipebox"

// NewCommand はルートコマンドを生成する。
// サブコマンドを省略した場合はserveとして起動する。
// ログはwに出力する。
func NewCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:           appName,
		Usage:          "Recipe and ingredient API with GitHub login",
		DefaultCommand: string(CommandServe),
		Writer:         w,
		ErrWriter:      w,
		Commands: []*cli.Command{
			serveCmd(w),
			workerCmd(w),
			migrateCmd(w),
			healthcheckCmd(),
		},
	}
}

func serveCmd(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  string(CommandServe),
		Usage: "Start the HTTP API server",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			logStart(CommandServe, cfg)
			return runServe(ctx, cfg)
		},
	}
}

func workerCmd(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  string(CommandWorker),
		Usage: "Periodically delete expired sessions",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			logStart(CommandWorker, cfg)
			return runWorker(ctx, cfg)
		},
	}
}

func migrateCmd(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  string(CommandMigrate),
		Usage: "Apply database migrations",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, err := Init(w)
			if err != nil {
				return err
			}
			return runMigrate(cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "down",
				Usage: "Roll back the most recent migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Value: 1,
						Usage: "Number of migrations to roll back",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := Init(w)
					if err != nil {
						return err
					}
					return runRollback(cfg, int(cmd.Int("steps")))
				},
			},
			{
				Name:  "version",
				Usage: "Print the current schema version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := Init(w)
					if err != nil {
						return err
					}
					return runMigrationVersion(cfg)
				},
			},
		},
	}
}

func healthcheckCmd() *cli.Command {
	return &cli.Command{
		Name:  string(CommandHealthcheck),
		Usage: "Probe the local /health endpoint (for container health checks)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Value:   "8080",
				Usage:   "Port the API server listens on",
				Sources: cli.EnvVars("SERVER_PORT"),
			},
		},
		// healthcheck は軽量サブコマンドのため、設定の読み込みを省略する
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHealthcheck(ctx, cmd.String("port"))
		},
	}
}
