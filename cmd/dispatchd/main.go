package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencad/dispatchd/internal/broadcast"
	"github.com/opencad/dispatchd/internal/database"
	"github.com/opencad/dispatchd/internal/gateway"
	"github.com/opencad/dispatchd/internal/repository"
	"github.com/opencad/dispatchd/internal/store"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	logger *slog.Logger

	dbm    *database.DatabaseManager
	events *broadcast.Broadcaster
	store  *store.EntityStore
	gw     *gateway.Gateway
	codes  *repository.CodeFileRepository

	apiAddr string
}

func NewApp(dbm *database.DatabaseManager, codes *repository.CodeFileRepository, apiAddr string) *App {
	events := broadcast.New()
	st := store.New(dbm, events)

	return &App{
		logger:  slog.Default(),
		dbm:     dbm,
		events:  events,
		store:   st,
		gw:      gateway.New(st),
		codes:   codes,
		apiAddr: apiAddr,
	}
}

func (app *App) Run() {
	if err := app.codes.Start(); err != nil {
		app.logger.Error("codes watcher error", slog.Any("error", err))
	}

	go func() {
		if err := NewHttpServer(app, app.apiAddr).Listen(); err != nil {
			panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	app.logger.Info("exiting...")
	app.codes.Stop()
}

func main() {
	fmt.Printf("version %s %s\n", gitRevision, gitBranch)

	var debug = flag.Bool("debug", false, "debug logging")
	var conf = flag.String("config", "dispatchd.yml", "name of config file")
	flag.Parse()

	viper.SetConfigFile(*conf)

	viper.SetDefault("api_addr", ":8080")
	viper.SetDefault("db", "cad.sqlite")
	viper.SetDefault("codes_file", "status_codes.yml")

	if err := viper.ReadInConfig(); err != nil {
		slog.Info("no config file loaded, using defaults: " + err.Error())
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))

	db, err := gorm.Open(sqlite.Open(viper.GetString("db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		panic(err)
	}

	dbm := database.New(db)

	if err := dbm.Migrate(); err != nil {
		panic(err)
	}

	codes := repository.NewFileCodeRepo(viper.GetString("codes_file"))

	app := NewApp(dbm, codes, viper.GetString("api_addr"))
	app.Run()
}
