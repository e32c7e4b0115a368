package main

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/sabg-gob/sabg-sistema/modules/trimestral/domain/record"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/infrastructure/persistence"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/presentation/controllers"
	"github.com/sabg-gob/sabg-sistema/modules/trimestral/services"
	"github.com/sabg-gob/sabg-sistema/pkg/configuration"
	"github.com/sabg-gob/sabg-sistema/pkg/eventbus"
	"github.com/sabg-gob/sabg-sistema/pkg/middleware"
	"github.com/sabg-gob/sabg-sistema/pkg/server"
)

func main() {
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	pool, err := pgxpool.New(context.Background(), conf.Database.Opts)
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(e record.CreatedEvent) {
		logger.WithFields(logrus.Fields{
			"usuario":      e.Usuario,
			"estatus_curp": e.Record.EstatusCURP,
		}).Info("registro creado")
	})
	bus.Subscribe(func(e record.BulkIngestedEvent) {
		logger.WithFields(logrus.Fields{
			"usuario":    e.Usuario,
			"received":   e.Report.Received,
			"inserted":   e.Report.Inserted,
			"duplicates": e.Report.DuplicatesOmitted,
			"errors":     e.Report.ErrorsCount,
		}).Info("carga masiva terminada")
	})

	repo := persistence.NewRecordRepository()
	recordSvc := services.NewRecordService(repo, bus)
	ingestSvc := services.NewIngestService(repo, bus, conf.Ingest.MaxBatchRows)

	authClient := middleware.NewAuthClient(conf.Auth.ValidateURL, conf.Auth.SidCookieKey, conf.Auth.RequestTimeout)
	auth := middleware.Authorize(authClient, conf.Auth.SidCookieKey)
	admin := middleware.RequireAdmin()

	srv := &server.HTTPServer{
		Controllers: []server.Controller{
			controllers.NewRecordsController(recordSvc, ingestSvc, auth, admin, conf.PageSize, conf.MaxPageSize),
			controllers.NewExportController(recordSvc, auth, admin),
		},
		Middlewares: []mux.MiddlewareFunc{
			middleware.WithLogger(logger),
			middleware.ProvidePool(pool),
		},
	}

	logger.WithField("address", conf.SocketAddress).Info("listening")
	if err := srv.Start(conf.SocketAddress); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
