// Package bootstrap builds the stores and the outbox dispatcher from
// configuration. Both binaries share it so the server and the cronjob relay
// through the same sinks.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"skillbridge-backend/internal/config"
	"skillbridge-backend/internal/dispatch"
	"skillbridge-backend/internal/email"
	"skillbridge-backend/internal/idempotency"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"
	"skillbridge-backend/internal/repository/memory"
	"skillbridge-backend/internal/repository/postgres"
)

// Repositories is the set of stores the services and jobs are built from.
type Repositories struct {
	Profiles      repository.ProfileRepository
	Opportunities repository.OpportunityRepository
	Applications  repository.ApplicationRepository
	Outbox        repository.OutboxRepository
	Notifications repository.NotificationRepository
	Messages      repository.MessageRepository
	Tx            repository.Transactor

	close func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// OpenRepositories connects the store named by cfg.Database.Driver.
func OpenRepositories(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory store")
		store := memory.NewStore()
		return &Repositories{
			Profiles:      store.ProfileRepository,
			Opportunities: store.OpportunityRepository,
			Applications:  store.ApplicationRepository,
			Outbox:        store.OutboxRepository,
			Notifications: store.NotificationRepository,
			Messages:      store.MessageRepository,
			Tx:            store,
		}, nil
	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("Database connection established")

		store := postgres.NewStore(db)
		if cfg.Database.Migrate {
			if err := store.Migrate(ctx); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
			logger.Info("Database schema is up to date")
		}
		return &Repositories{
			Profiles:      store.ProfileRepository,
			Opportunities: store.OpportunityRepository,
			Applications:  store.ApplicationRepository,
			Outbox:        store.OutboxRepository,
			Notifications: store.NotificationRepository,
			Messages:      store.MessageRepository,
			Tx:            store,
			close:         db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// NewIdempotencyStore returns the key store named by cfg.Idempotency.Backend.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, error) {
	ttl := time.Duration(cfg.Idempotency.TTLMinutes) * time.Minute
	switch cfg.Idempotency.Backend {
	case "", "memory":
		return idempotency.NewMemoryStore(ttl), nil
	case "redis":
		rdb, err := idempotency.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		logger.Info("Idempotency keys stored in redis", "addr", cfg.Redis.Addr)
		return idempotency.NewRedisStore(rdb, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported idempotency backend %q", cfg.Idempotency.Backend)
	}
}

// NewMailer returns the mailer named by cfg.Email.Provider.
func NewMailer(cfg *config.Config) (email.Mailer, error) {
	switch cfg.Email.Provider {
	case "", "smtp":
		return email.NewSMTPMailer(cfg.SMTP.Host, strconv.Itoa(cfg.SMTP.Port), cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From), nil
	case "sendgrid":
		return email.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Email.Provider)
	}
}

// NewDispatcher registers the sinks listed in cfg.Notifications.Sinks. The
// returned cleanup closes any writer the sinks hold.
func NewDispatcher(ctx context.Context, cfg *config.Config, repos *Repositories) (*dispatch.Dispatcher, func(), error) {
	d := dispatch.New(repos.Outbox, dispatch.Config{
		BatchSize:    cfg.Notifications.BatchSize,
		MaxAttempts:  cfg.Notifications.MaxAttempts,
		PollInterval: time.Duration(cfg.Notifications.PollIntervalSeconds) * time.Second,
	})

	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close sink", "error", err)
			}
		}
	}

	for _, name := range cfg.Notifications.Sinks {
		switch name {
		case "notification":
			d.Register(dispatch.NewNotificationSink(repos.Notifications))
		case "message":
			d.Register(dispatch.NewMessageSink(repos.Messages))
		case "email":
			mailer, err := NewMailer(cfg)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			d.Register(dispatch.NewEmailSink(mailer, repos.Profiles))
		case "push":
			client, err := dispatch.NewFirebaseMessaging(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			d.Register(dispatch.NewPushSink(client))
		case "kafka":
			w := dispatch.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			closers = append(closers, w.Close)
			d.Register(dispatch.NewKafkaSink(w))
		default:
			cleanup()
			return nil, nil, fmt.Errorf("unknown notification sink %q", name)
		}
	}
	return d, cleanup, nil
}
