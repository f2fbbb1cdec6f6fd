package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/rpc"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/transport"
)

func main() {
	cliApp := &cli.App{
		Name:  "foodgram",
		Usage: "recipe sharing backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start http and grpc servers",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:  "load-ingredients",
				Usage: "import ingredients from a json fixture",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "path to a json array of {name, measurement_unit}",
						Required: true,
					},
				},
				Action: loadIngredients,
			},
			{
				Name:  "set-admin",
				Usage: "grant or revoke administrator rights of a registered user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "email of the user",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "revoke",
						Usage: "remove the flag instead of setting it",
					},
				},
				Action: setAdmin,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		panic(err)
	}
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if cfg.LogLevel == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		zc := zap.NewProductionConfig()
		if zc.Level, err = zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
			return nil, errors.Wrap(err, "parse log level")
		}
		l, err = zc.Build()
	}
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return l.Sugar(), nil
}

func serve(c *cli.Context) error {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			newLogger,
			db.NewGormClient,
		),
		fx.WithLogger(func(l *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Desugar()}
		}),
		service.Module,
		transport.Module,
		rpc.Module,
		fx.Invoke(func(*transport.HTTPServer, *rpc.FoodgramServerImpl) {}),
	)
	app.Run()
	return app.Err()
}

// withDB runs fn against a freshly opened database outside the fx graph.
func withDB(fn func(cfg *config.Config, l *zap.SugaredLogger, gdb *gorm.DB) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	gdb, err := db.NewGormClient(cfg, l)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	defer sqlDB.Close()

	return fn(cfg, l, gdb)
}

func migrate(c *cli.Context) error {
	return withDB(func(cfg *config.Config, l *zap.SugaredLogger, gdb *gorm.DB) error {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		l.Info("migration finished")
		return nil
	})
}

func loadIngredients(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return errors.Wrap(err, "read fixture")
	}
	return withDB(func(cfg *config.Config, l *zap.SugaredLogger, gdb *gorm.DB) error {
		n, err := service.NewCatalog(gdb, l).ImportIngredients(contextOf(c), data)
		if err != nil {
			return err
		}
		l.Infow("ingredients loaded", "count", n)
		return nil
	})
}

func setAdmin(c *cli.Context) error {
	return withDB(func(cfg *config.Config, l *zap.SugaredLogger, gdb *gorm.DB) error {
		user, err := service.NewGeneral(gdb, cfg, l).SetAdmin(contextOf(c), c.String("email"), !c.Bool("revoke"))
		if err != nil {
			return err
		}
		l.Infow("admin flag updated", "user_id", user.ID, "admin", user.IsAdmin)
		return nil
	})
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
