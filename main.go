package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "busbooking/internal/config"
	"busbooking/internal/db"
	"busbooking/internal/events"
	"busbooking/internal/gateway"
	router "busbooking/internal/http"
	"busbooking/internal/http/handlers"
	"busbooking/internal/locks"
	"busbooking/internal/notify"
	"busbooking/internal/repositories"
	"busbooking/internal/services"
	"busbooking/internal/storage"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	env := intconfig.LoadEnv()
	logger := utils.InitLogger(env.IsProduction())
	defer func() { _ = logger.Sync() }()

	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := intconfig.ConnectDB(env)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer intconfig.CloseDB()

	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}

	rdb := intconfig.NewRedisClient(env)
	defer func() { _ = rdb.Close() }()

	loc := env.Location()

	bookingRepo := &repositories.BookingRepository{DB: sqlDB}
	scheduleRepo := &repositories.ScheduleRepository{DB: sqlDB}
	busRepo := &repositories.BusRepository{DB: sqlDB}
	layoutRepo := &repositories.SeatLayoutRepository{DB: sqlDB}
	routeRepo := &repositories.RouteRepository{DB: sqlDB}
	paymentRepo := &repositories.PaymentRepository{DB: sqlDB}
	userRepo := &repositories.UserRepository{DB: sqlDB}
	vendorRepo := &repositories.VendorRepository{DB: sqlDB}

	razorpay := gateway.NewRazorpay(env.RazorpayKeyID, env.RazorpayKeySecret)

	var documents services.DocumentStore
	if env.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, env.AWSRegion, env.S3Bucket)
		if err != nil {
			logger.Warn("vendor document storage disabled", zap.Error(err))
		} else {
			documents = s3Store
		}
	}

	wmLogger := events.NewZapAdapter(logger)
	pubSub := events.NewPubSub(wmLogger)
	bus := events.NewBus(pubSub)

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     env.SMTPHost,
		Port:     env.SMTPPort,
		Username: env.SMTPUsername,
		Password: env.SMTPPassword,
		From:     env.MailFrom,
	})
	notifications, err := notify.NewRouter(pubSub, mailer, wmLogger)
	if err != nil {
		logger.Fatal("notification router setup failed", zap.Error(err))
	}

	bookings := services.BookingService{
		Bookings:  bookingRepo,
		Schedules: scheduleRepo,
		Buses:     busRepo,
		Layouts:   layoutRepo,
		Routes:    routeRepo,
		Payments:  paymentRepo,
		Events:    bus,
		Hold:      env.ReservationHold(),
		Location:  loc,
		NewPNR:    services.NewPNR,
	}
	auth := services.AuthService{
		Users:   userRepo,
		Vendors: vendorRepo,
		Secret:  []byte(env.JWTSecret),
		TTL:     env.TokenTTL(),
	}

	if env.AdminEmail != "" {
		if err := auth.EnsureAdmin(ctx, env.AdminEmail, env.AdminPassword); err != nil {
			logger.Error("admin bootstrap failed", zap.Error(err))
		}
	}

	hs := &handlers.Handlers{
		Auth: auth,
		Schedules: services.ScheduleService{
			Schedules: scheduleRepo,
			Buses:     busRepo,
			Routes:    routeRepo,
			Layouts:   layoutRepo,
			Vendors:   vendorRepo,
			Location:  loc,
		},
		Bookings: bookings,
		Cancellation: services.CancellationService{
			Bookings: bookingRepo,
			Payments: paymentRepo,
			Gateway:  razorpay,
			Events:   bus,
		},
		Payments: services.PaymentService{
			Bookings: bookingRepo,
			Payments: paymentRepo,
			Gateway:  razorpay,
			Confirm:  bookings,
		},
		Tickets: services.TicketService{Bookings: bookingRepo, Location: loc},
		Vendors: services.VendorService{Vendors: vendorRepo, Documents: documents},
		Fleet:   services.FleetService{Buses: busRepo, Layouts: layoutRepo, Vendors: vendorRepo},
		Routes:  services.RouteService{Routes: routeRepo, Schedules: scheduleRepo},
		Ping:    intconfig.PingDB,
	}

	sweeper := services.ReservationSweeper{
		Bookings: bookingRepo,
		Lock:     locks.NewRedisLock(rdb),
		Events:   bus,
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		logger.Fatal("scheduler setup failed", zap.Error(err))
	}
	if _, err := sweeper.Schedule(ctx, scheduler, env.SweepInterval()); err != nil {
		logger.Fatal("reservation sweep registration failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, hs, auth),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return notifications.Run(gctx)
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		return scheduler.Shutdown()
	})

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := notifications.Close(); err != nil {
			logger.Warn("notification router close", zap.Error(err))
		}
		return pubSub.Close()
	})

	if err := g.Wait(); err != nil {
		logger.Error("stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped cleanly")
}
