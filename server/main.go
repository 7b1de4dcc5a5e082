package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/api"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/config"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/ecomplus"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/logger"
	prometheus_monitoring "bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/monitoring"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/notifications"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/paghiper"
	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/transactions"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx := context.Background()

	// optional local overrides, ignored when absent
	godotenv.Load()

	fmt.Printf("PagHiper Bridge Server - Version %s\n", version)

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Printf("Failed to get config path: %v\n", err)
		os.Exit(configPathErr)
	}

	err = config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(configLoadErr)
	}
	config, err := config.GetConfig()
	if err != nil {
		fmt.Printf("Failed to get config from env: %v\n", err)
		os.Exit(configGetErr)
	}

	fmt.Printf("Starting server with configuration (%s)\n", configPath)

	log, err := logger.New(config.Logger.Env, config.Logger.Level)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(loggerErr)
	}

	var apiService api.ApiServicer
	if config.Mocked {
		apiService = api.NewMockedApiService()
	} else {
		transactionsService, err := transactions.New(
			ctx,
			config.Postgres.Username,
			config.Postgres.Password,
			config.Postgres.Host,
			config.Postgres.Database,
			config.Postgres.QueriesPath,
		)
		if err != nil {
			fmt.Printf("Failed to make transactions service: %+v\n", err)
			os.Exit(transactionsDatabaseErr)
		}
		defer transactionsService.Close()

		var redisClient *redis.Client
		if config.Redis.Address != "" {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     config.Redis.Address,
				Password: config.Redis.Password,
				DB:       config.Redis.Database,
			})
		}

		ecomplusService, err := ecomplus.New(
			config.Ecomplus.BaseURL,
			config.Ecomplus.AppID,
			config.Ecomplus.AppSecret,
			redisClient,
		)
		if err != nil {
			fmt.Printf("Failed to create Store API service: %+v\n", err)
			os.Exit(ecomplusErr)
		}

		paghiperService, err := paghiper.New(config.PagHiper.BaseURL)
		if err != nil {
			fmt.Printf("Failed to create PagHiper service: %+v\n", err)
			os.Exit(paghiperErr)
		}

		notificationsService := notifications.New(
			transactionsService,
			ecomplusService,
			paghiperService,
			log,
		)

		apiService = api.NewApiService(
			notificationsService,
			transactionsService,
			log,
		)
	}

	router := mux.NewRouter()
	router.Handle("/paghiper/notification", http.HandlerFunc(apiService.PagHiperNotification)).
		Methods("POST").
		Name("PagHiperNotification")
	router.Handle("/ecom/modules/list-payments", http.HandlerFunc(apiService.ListPayments)).
		Methods("POST").
		Name("ListPayments")
	router.Handle("/status", http.HandlerFunc(apiService.GetStatus)).
		Methods("GET").
		Name("GetStatus")

	// add Prometheus metrics to router
	prometheus_monitoring.RecordMetrics()
	router.Handle("/metrics", promhttp.Handler())

	hostString := fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)
	server := http.Server{
		Addr:    hostString,
		Handler: router,
	}
	err = server.ListenAndServe()
	if err != nil {
		fmt.Printf("Error starting server: %v\n", err)
	}

	os.Exit(successCode)
}
