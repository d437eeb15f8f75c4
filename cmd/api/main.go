package main

import (
	"log"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRedis "app/internal/infra/redis"
	infraRepo "app/internal/infra/repository"
	"app/internal/metrics"
	"app/internal/notification"
	"app/internal/server"
	"app/internal/usecase"
	auth "app/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": string(role),
		"tv":   tokenVersion,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envがあれば読む
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.SKU{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.Fatalf("migrate error: %v", err)
	}

	//Redis接続（カート置き場。プロセス起動時に1つ作って参照で渡す）
	redisClient, err := infraRedis.Connect(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis connect error: %v", err)
	}
	defer redisClient.Close()

	//Repository生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	skuRepo := infraRepo.NewSKUGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	cartStore := infraRepo.NewCartRedisStore(redisClient)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := &realClock{}
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := &jwtIssuer{secret: []byte(cfg.JWTSecret), accessTTL: 15 * time.Minute}
	checkoutMetrics := metrics.NewCheckoutMetrics()

	//注文イベント通知（KAFKA_BROKERSが空ならnil＝通知なし）
	var notifier usecase.OrderNotifier
	if kn := notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic); kn != nil {
		defer kn.Close()
		notifier = kn
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, cartStore, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, cartStore, verifier, issuer, clock)
	cartUC := usecase.NewCartUsecase(cartStore, skuRepo)
	checkoutUC := usecase.NewCheckoutUsecase(
		txManager, cartStore, skuRepo, addressRepo,
		clock, cfg.Freight, notifier, checkoutMetrics,
	)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:  handler.NewAuthHandler(registerUC, loginUC),
		Cart:  handler.NewCartHandler(cartUC),
		Order: handler.NewOrderHandler(checkoutUC, orderUC),
	}

	//Server起動
	addr := ":" + cfg.Port
	if err := server.Start(addr, cfg, handlers, userRepo); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
