package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"booking-service/cache"
	"booking-service/config"
	"booking-service/handlers"
	"booking-service/payment"
	"booking-service/repository"
	"booking-service/routes"
	"booking-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	server      *gin.Engine
	ctx         context.Context
	mongoclient *mongo.Client
	bookingRepo *repository.BookingRepo

	checkoutService services.CheckoutService
	bookingService  services.BookingService
	retryService    services.RetryService

	CheckoutRouteHandler routes.CheckoutRouteHandler
	BookingRouteHandler  routes.BookingRouteHandler

	cfg config.Config
)

func init() {
	ctx = context.TODO()

	_ = godotenv.Load()

	//logging
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	lumberjackLog := &lumberjack.Logger{
		Filename:  "/booking-service/logs/logfile.log",
		MaxSize:   1,
		LocalTime: true,
	}
	logger.SetOutput(lumberjackLog)
	logger.WithFields(logrus.Fields{"path": "booking/main"}).Info("Booking service starting")
	//logging

	cfg = config.GetConfig()

	mongoconn := options.Client().ApplyURI(cfg.MongoURI)
	client, err := mongo.Connect(ctx, mongoconn)
	if err != nil {
		panic(err)
	}
	mongoclient = client

	if err := mongoclient.Ping(ctx, readpref.Primary()); err != nil {
		panic(err)
	}

	logger.Info("MongoDB successfully connected...")

	bookingRepo, err = repository.New(logger)
	if err != nil {
		logger.Fatalf("Cassandra failed to initialize. Error: %s", err)
	}
	bookingRepo.CreateTable()

	sessionCache := cache.New(logger)
	if err := sessionCache.Ping(); err != nil {
		logger.WithFields(logrus.Fields{"path": "booking/main"}).Error("Redis ping failed: ", err)
	}

	tracerProvider, err := NewTracerProvider(cfg.ServiceName, cfg.JaegerAddress)
	if err != nil {
		logger.Fatalf("JaegerTraceProvider failed to Initialize. Error: %s", err)
	}
	tracer := tracerProvider.Tracer(cfg.ServiceName)

	// Collections
	db := mongoclient.Database(cfg.MongoDatabase)
	roomsCollection := db.Collection("rooms")
	addonsCollection := db.Collection("addons")
	ratesCollection := db.Collection("rates")
	availabilityCollection := db.Collection("availability")
	couponsCollection := db.Collection("coupons")

	roomService := services.NewRoomServiceImpl(roomsCollection, addonsCollection)
	rateService := services.NewRateServiceImpl(ratesCollection)
	availabilityService := services.NewAvailabilityServiceImpl(availabilityCollection)
	couponService := services.NewCouponServiceImpl(couponsCollection)

	checkoutService = services.NewCheckoutServiceImpl(sessionCache, roomService, rateService, availabilityService, couponService, cfg.Currency, logger, tracer)

	gateway := payment.NewPaystackGateway(cfg.PaystackBaseURL, cfg.PaystackSecretKey, logger)

	eft := services.EFTDetails{
		BankName:      cfg.EFTBankName,
		AccountName:   cfg.EFTAccountName,
		AccountNumber: cfg.EFTAccountNumber,
		BranchCode:    cfg.EFTBranchCode,
	}

	bookingService = services.NewBookingServiceImpl(bookingRepo, gateway, sessionCache, eft, logger, tracer)
	retryService = services.NewRetryServiceImpl(bookingRepo, sessionCache, roomService, rateService, availabilityService, couponService, cfg.MaxPaymentRetries, cfg.PriceDriftThreshold, logger, tracer)

	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, roomService, tracer, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, retryService, tracer, logger)
	paymentHandler := handlers.NewPaymentHandler(bookingService, tracer, logger)

	CheckoutRouteHandler = routes.NewCheckoutRouteHandler(checkoutHandler)
	BookingRouteHandler = routes.NewBookingRouteHandler(bookingHandler, paymentHandler)

	server = gin.Default()
}

func main() {
	defer mongoclient.Disconnect(ctx)
	defer bookingRepo.CloseSession()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{os.Getenv("ALLOWED_ORIGIN")}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")

	server.Use(cors.New(corsConfig))

	router := server.Group("/api")
	router.GET("/healthchecker", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "Message"})
	})

	CheckoutRouteHandler.CheckoutRoute(router)
	BookingRouteHandler.BookingRoute(router)

	err := server.Run(":" + cfg.Port)
	if err != nil {
		fmt.Println(err)
		return
	}
}

func NewTracerProvider(serviceName, collectorEndpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collectorEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize exporter due: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String("development"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
