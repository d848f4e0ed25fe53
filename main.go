package main

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"oddsEngine/config"
	"oddsEngine/models"
	"oddsEngine/scheduler"
	"oddsEngine/services/common"
	"oddsEngine/services/eventsource"
	"oddsEngine/services/ledger"
	"oddsEngine/services/lock"
	"oddsEngine/services/notify"
	"oddsEngine/services/settlement"
)

var (
	cfg config.Config
	db  *gorm.DB
)

func init() {
	cfg = config.Load()

	if cfg.MySQLURL == "" {
		log.Fatalf("MYSQL_URL not set in environment variables")
	}

	var err error
	db, err = gorm.Open(mysql.Open(cfg.MySQLURL+"?charset=utf8mb4&parseTime=True&loc=Local"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.Wager{},
		&models.Leg{},
		&models.Sequence{},
		&models.Game{},
		&models.StatLine{},
		&models.ErrorLog{},
		&models.Migration{},
	)
	if err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
}

func main() {
	zlog, err := common.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	var locker settlement.Locker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = lock.NewRedisLocker(rdb)
		zlog.Info("using redis settlement lock", zap.String("addr", cfg.RedisAddr))
	} else {
		locker = lock.NewLocalLocker()
		zlog.Info("using in-process settlement lock")
	}

	var notifier settlement.Notifier
	if cfg.DiscordToken != "" && cfg.SettleChannelID != "" {
		dg, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			log.Fatalf("Error creating Discord session: %v", err)
		}
		if err := dg.Open(); err != nil {
			log.Fatalf("Error opening Discord session: %v", err)
		}
		defer func() { _ = dg.Close() }()
		notifier = notify.NewDiscordNotifier(dg, cfg.SettleChannelID, zlog)
	}

	gateway := ledger.New(db, zlog)
	store := eventsource.NewStore(db)
	ingestor := eventsource.NewIngestor(db, zlog, cfg.ESPNScoreboard)

	engine := settlement.New(gateway, store, locker, zlog, settlement.Options{
		Workers:       cfg.Workers,
		ReverseLegCap: cfg.ReverseLegCap,
		LockTTL:       cfg.LockTTL,
		WriteRetries:  cfg.WriteRetries,
		RetryBackoff:  cfg.RetryBackoff,
		Notifier:      notifier,
	})

	ctx := context.Background()
	cronService := scheduler.SetupCron(ctx, engine, ingestor, db, zlog, cfg)
	defer cronService.Stop()

	zlog.Info("settlement engine running")
	select {}
}
