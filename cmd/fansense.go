package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stevenroose/gonfig"
	"gopkg.in/go-playground/validator.v9"

	"github.com/deecodes/fansense/location"
	"github.com/deecodes/fansense/pipeline"
	"github.com/deecodes/fansense/repository"
	"github.com/deecodes/fansense/repository/postgres"
	"github.com/deecodes/fansense/retry"
	"github.com/deecodes/fansense/sentiment"
	"github.com/deecodes/fansense/service"
	"github.com/deecodes/fansense/stream"
	"github.com/deecodes/fansense/transport"
)

var config = struct {
	Port  int  `id:"port" desc:"HTTP port"`
	Debug bool `id:"debug"`

	BearerToken    string   `id:"bearer_token" desc:"stream API bearer token" validate:"required"`
	TrackedQueries []string `id:"tracked_queries" desc:"queries to start tracking on boot"`
	BatchSize      int      `id:"batch_size" desc:"posts pulled per search page"`
	Schedule       string   `id:"schedule" desc:"cron schedule for ingestion cycles"`

	Postgres *PostgresConfig `id:"postgres"`

	ConfigFile string `id:"config_file" desc:"provide a config file path"`
}{
	Port:      9000,
	BatchSize: 100,
	Schedule:  "@every 5m",
}

//go:generate gomodifytags -file fansense.go -struct PostgresConfig -add-tags id -w
type PostgresConfig struct {
	Host          string `id:"host"`
	Port          int    `id:"port"`
	ShouldMigrate bool   `id:"should_migrate"`
	Debug         bool   `id:"debug"`
	Database      string `id:"database"`
	User          string `id:"user"`
	Password      string `id:"password"`
	SSLMode       string `id:"ssl_mode"`
}

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	if err := gonfig.Load(&config, gonfig.Conf{
		ConfigFileVariable:  "config_file",
		FileDefaultFilename: "/config/config.yaml",
		FileDecoder:         gonfig.DecoderYAML,
	}); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	if err := validator.New().Struct(config); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	repoSvc, err := postgres.New(&postgres.Config{
		Host:          config.Postgres.Host,
		Port:          config.Postgres.Port,
		ShouldMigrate: config.Postgres.ShouldMigrate,
		Debug:         config.Postgres.Debug,
		Database:      &config.Postgres.Database,
		User:          &config.Postgres.User,
		Password:      config.Postgres.Password,
		SSLMode:       config.Postgres.SSLMode,
	}, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create postgres repo")
	}

	seedTrackedQueries(repoSvc, config.TrackedQueries, &log)

	// Nominatim allows one request per second.
	geoRunner := retry.New(retry.Config{
		MinInterval: time.Second,
		Logger:      &log,
	})
	resolver := location.NewResolver(location.NewNominatim(geoRunner), &log)

	streamRunner := retry.New(retry.Config{
		MinInterval: time.Second,
		Logger:      &log,
	})
	source := stream.NewClient(config.BearerToken, streamRunner, &log)

	pipe := pipeline.New(source, sentiment.NewVADER(), resolver, repoSvc, config.BatchSize, &log)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(config.Schedule, func() {
		if err := pipe.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("ingestion run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("invalid schedule")
	}
	scheduler.Start()

	admin := service.NewFanSense(repoSvc, &log)
	search := service.NewFanSenseSearch(repoSvc, &log)
	fansenseHttp := transport.NewHttp(admin, search, &log)

	r := mux.NewRouter()
	r.HandleFunc("/queries", fansenseHttp.TrackQuery).Methods(http.MethodPost)
	r.HandleFunc("/queries", fansenseHttp.TrackedQueries).Methods(http.MethodGet)
	r.HandleFunc("/teams", fansenseHttp.CreateTeam).Methods(http.MethodPost)
	r.HandleFunc("/teams", fansenseHttp.Teams).Methods(http.MethodGet)
	r.HandleFunc("/events", fansenseHttp.CreateEvent).Methods(http.MethodPost)
	r.HandleFunc("/events", fansenseHttp.Events).Methods(http.MethodGet)
	r.HandleFunc("/backfill/hashtags", fansenseHttp.BackfillHashtags).Methods(http.MethodPost)
	r.HandleFunc("/posts", fansenseHttp.PostsQuery).Methods(http.MethodGet)
	r.HandleFunc("/views/hourly", fansenseHttp.HourlyQuery).Methods(http.MethodGet)
	r.HandleFunc("/views/geo", fansenseHttp.GeoQuery).Methods(http.MethodGet)
	r.HandleFunc("/views/top-locations", fansenseHttp.TopLocationsQuery).Methods(http.MethodGet)
	r.HandleFunc("/views/hashtags", fansenseHttp.HashtagsQuery).Methods(http.MethodGet)

	log.Info().Int("port", config.Port).Msg("listening")
	if err := http.ListenAndServe(fmt.Sprintf(":%d", config.Port), r); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func seedTrackedQueries(repo repository.Service, queries []string, log *zerolog.Logger) {
	for _, q := range queries {
		if err := repo.UpsertTrackedQuery(context.Background(), q, true); err != nil {
			log.Fatal().Err(err).Str("query", q).Msg("failed to seed tracked query")
		}
	}
}
