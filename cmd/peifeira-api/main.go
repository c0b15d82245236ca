package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/peifeira/peifeira-api/internal/config"
	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/events"
	"github.com/peifeira/peifeira-api/internal/handlers"
	"github.com/peifeira/peifeira-api/internal/logging"
	authmw "github.com/peifeira/peifeira-api/internal/middleware"
	"github.com/peifeira/peifeira-api/internal/services"
	"github.com/peifeira/peifeira-api/internal/sse"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.IsProduction())
	log := logging.Component("main")

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hub := sse.NewHub()
	go hub.Run()

	publisher := events.Fanout{hub}
	if cfg.Kafka.Enabled() {
		publisher = append(publisher, events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		log.WithField("topic", cfg.Kafka.Topic).Info("Publishing team events to Kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close event publisher")
		}
	}()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	studentService := services.NewStudentService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	joinCodes := services.NewJoinCodeGenerator(cfg.Teams.JoinCodeLength, cfg.Teams.JoinCodeMaxAttempts)
	teamService := services.NewTeamService(db, joinCodes, publisher, services.TeamOptions{
		AutoCancelOnDirectAdd: cfg.Teams.AutoCancelOnDirectAdd,
	})
	reconciler := services.NewMembershipReconciler(teamService)
	invitationService := services.NewInvitationService(db, teamService, reconciler, publisher)

	if !emailService.IsConfigured() {
		log.Info("SMTP not configured, invitation emails are disabled")
	}

	teamHandler := handlers.NewTeamHandler(teamService)
	membershipHandler := handlers.NewMembershipHandler(teamService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, teamService, studentService, emailService, cfg.FrontendURL)
	notificationHandler := handlers.NewNotificationHandler(hub, teamService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger(logging.Component("http")))

	api := app.Group("/api")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Get("/equipes", teamHandler.List)
	protected.Post("/equipes", teamHandler.Create)
	protected.Get("/equipes/ativas", teamHandler.ListActive)
	protected.Get("/equipes/lider/:liderId", teamHandler.GetByLeader)
	protected.Get("/equipes/codigo/:codigo", teamHandler.GetByJoinCode)
	protected.Get("/equipes/:id", teamHandler.Get)
	protected.Put("/equipes/:id", teamHandler.Update)
	protected.Delete("/equipes/:id", teamHandler.Delete)
	protected.Get("/equipes/:id/detalhes", teamHandler.Details)
	protected.Post("/equipes/:id/regenerar-codigo-convite", teamHandler.RegenerateJoinCode)

	protected.Post("/membros-equipe", membershipHandler.Add)
	protected.Get("/membros-equipe/equipe/:equipeId", membershipHandler.ListByTeam)
	protected.Get("/membros-equipe/aluno/:perfilAlunoId", membershipHandler.ListByStudent)
	protected.Delete("/membros-equipe/:equipeId/:perfilAlunoId", membershipHandler.Remove)
	protected.Get("/membros-equipe/:equipeId/:perfilAlunoId/is-membro", membershipHandler.IsMember)

	protected.Post("/convites-equipe", invitationHandler.Create)
	protected.Get("/convites-equipe/pendentes/:perfilAlunoId", invitationHandler.ListPendingForStudent)
	protected.Get("/convites-equipe/equipe/:equipeId", invitationHandler.ListByTeam)
	protected.Get("/convites-equipe/:id", invitationHandler.Get)
	protected.Put("/convites-equipe/:id/aceitar", invitationHandler.Accept)
	protected.Put("/convites-equipe/:id/recusar", invitationHandler.Reject)
	protected.Put("/convites-equipe/:id/cancelar", invitationHandler.Cancel)

	protected.Get("/notificacoes/stream", notificationHandler.Stream)
	protected.Get("/notificacoes/equipe/:equipeId/stream", notificationHandler.StreamTeam)
	protected.Post("/notificacoes/:clientId/equipes/:equipeId", notificationHandler.Subscribe)
	protected.Delete("/notificacoes/:clientId/equipes/:equipeId", notificationHandler.Unsubscribe)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Infof("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
}
