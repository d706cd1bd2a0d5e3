package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unifreelancer/academy/internal/course"
	"github.com/unifreelancer/academy/internal/enrollment"
	infra "github.com/unifreelancer/academy/internal/infrastructure"
	"github.com/unifreelancer/academy/internal/infrastructure/driver"
	"github.com/unifreelancer/academy/internal/infrastructure/logging"
	"github.com/unifreelancer/academy/internal/infrastructure/uuid"
	"github.com/unifreelancer/academy/internal/interfaces/rest"
	"github.com/unifreelancer/academy/internal/progress"
	"github.com/unifreelancer/academy/internal/submission"
	"go.uber.org/zap"
)

type backends struct {
	transactor  driver.Transactor
	courses     course.Repository
	enrollments enrollment.Repository
	progress    progress.Repository
	submissions submission.Repository
	probes      []rest.Pinger
	close       func()
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var kv driver.KeyValueDB
	if option.Database.Driver == infra.DriverMemory {
		kv = driver.NewMemoryKV()
	} else {
		rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password, option.KVStore.DB)
		defer rdb.Close()
		kv = rdb
	}

	store, err := openBackends(ctx, option, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.close()

	var courses = store.courses
	if option.Catalog.CacheTTL > 0 {
		courses = course.NewCachedRepository(courses, kv, option.Catalog.CacheTTL)
	}

	ProgressUseCase := progress.NewProgressUseCase(
		store.transactor,
		courses,
		store.enrollments,
		store.progress,
		store.submissions,
		uuid.NewNanoIDGenerator(option.Security.IDLength),
	)

	app := rest.NewServer(option, ProgressUseCase, kv, logger, append(store.probes, kv)...)
	if err := rest.Serve(ctx, app, fmt.Sprintf("%s:%d", option.Host, option.Port), logger); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}

func openBackends(ctx context.Context, option *infra.AppConfig, logger *zap.Logger) (*backends, error) {
	if option.Database.Driver == infra.DriverMemory {
		courses := course.NewMemoryRepository()
		enrollments := enrollment.NewMemoryRepository()
		if option.Catalog.SeedFile != "" {
			n, err := loadSeed(ctx, option.Catalog.SeedFile, courses, enrollments)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded seed file", zap.String("file", option.Catalog.SeedFile), zap.Int("courses", n))
		}
		return &backends{
			transactor:  driver.NewLockTransactor(),
			courses:     courses,
			enrollments: enrollments,
			progress:    progress.NewMemoryRepository(),
			submissions: submission.NewMemoryRepository(),
			close:       func() {},
		}, nil
	}

	dbConn, err := driver.GetDBConnection(ctx, &driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DB connection: %w", err)
	}
	logger.Debug("Create DB connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)
	return &backends{
		transactor:  driver.NewSQLTransactor(dbConn, nil),
		courses:     course.NewSQLRepository(dbConn),
		enrollments: enrollment.NewSQLRepository(dbConn),
		progress:    progress.NewSQLRepository(dbConn),
		submissions: submission.NewSQLRepository(dbConn),
		probes:      []rest.Pinger{dbConn},
		close:       func() { dbConn.Close(context.Background()) },
	}, nil
}
