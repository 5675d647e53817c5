package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/umputun/dailyplanet/app/api"
	"github.com/umputun/dailyplanet/app/config"
	"github.com/umputun/dailyplanet/app/reader"
	"github.com/umputun/dailyplanet/app/settings"
	"github.com/umputun/dailyplanet/app/share"
	"github.com/umputun/dailyplanet/app/source"
	"github.com/umputun/dailyplanet/app/store"
)

type options struct {
	DB   string `short:"c" long:"db" env:"DP_DB" default:"var/dailyplanet.bdb" description:"bolt db file"`
	Conf string `short:"f" long:"conf" env:"DP_CONF" default:"dailyplanet.yml" description:"config file (yml)"`
	Port int    `short:"p" long:"port" env:"DP_PORT" description:"rest server port, overrides config"`

	// config overrides
	APIKey   string `long:"newsapi_key" env:"NEWSAPI_KEY" description:"newsapi.org api key"`
	Country  string `long:"country" env:"NEWSAPI_COUNTRY" description:"headlines country"`
	Category string `long:"category" env:"NEWSAPI_CATEGORY" description:"headlines category"`

	TelegramServer  string        `long:"telegram_server" env:"TELEGRAM_SERVER" description:"telegram bot api server"`
	TelegramToken   string        `long:"telegram_token" env:"TELEGRAM_TOKEN" description:"telegram token"`
	TelegramChannel string        `long:"telegram_channel" env:"TELEGRAM_CHANNEL" description:"telegram channel to share to"`
	TelegramTimeout time.Duration `long:"telegram_timeout" env:"TELEGRAM_TIMEOUT" description:"telegram timeout"`

	Browser string `long:"browser" env:"DP_BROWSER" description:"command to open links, platform default if empty"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("dailyplanet %s\n", revision)
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	setupLog(opts.Dbg)

	conf, err := config.Load(opts.Conf)
	if err != nil {
		log.Fatalf("[ERROR] can't load config %s, %v", opts.Conf, err)
	}
	applyOverrides(conf, opts)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, conf *config.Conf, opts options) error {
	db, err := store.NewBoltStore(opts.DB)
	if err != nil {
		return errors.Wrapf(err, "can't open db %s", opts.DB)
	}
	defer db.Close() // nolint

	saved, err := store.NewSaved(db)
	if err != nil {
		return errors.Wrap(err, "can't load saved articles")
	}

	src, err := source.NewNewsAPI(source.Opts{
		BaseURL:     conf.NewsAPI.BaseURL,
		APIKey:      conf.NewsAPI.APIKey,
		Country:     conf.NewsAPI.Country,
		Category:    conf.NewsAPI.Category,
		PageSize:    conf.NewsAPI.PageSize,
		Timeout:     conf.NewsAPI.Timeout,
		CacheTTL:    conf.NewsAPI.CacheTTL,
		CacheKeys:   conf.NewsAPI.CacheKeys,
		TitleFilter: conf.Filter.Title,
	})
	if err != nil {
		return errors.Wrap(err, "can't make newsapi source")
	}

	stream := settings.NewStream(store.NewPrefs(db))
	params := reader.Params{
		Source:   src,
		Settings: stream,
		Saved:    saved,
		Opener:   &share.Browser{Command: opts.Browser},
	}

	if conf.Telegram.Token != "" {
		tg, err := share.NewTelegram(conf.Telegram.Token, conf.Telegram.Server, conf.Telegram.Channel, conf.Telegram.Timeout)
		if err != nil {
			return errors.Wrap(err, "can't initialize telegram client")
		}
		params.Sharer = tg
	} else {
		log.Printf("[INFO] telegram token not set, sharing disabled")
	}

	session, err := reader.New(params)
	if err != nil {
		return errors.Wrap(err, "can't start reader session")
	}
	defer session.Close()

	server := api.Server{
		Version:   revision,
		Reader:    session,
		Prefs:     stream,
		RateLimit: conf.Server.RateLimit,
	}
	return server.Run(ctx, conf.Server.Port)
}

func applyOverrides(conf *config.Conf, opts options) {
	if opts.Port != 0 {
		conf.Server.Port = opts.Port
	}
	if opts.APIKey != "" {
		conf.NewsAPI.APIKey = opts.APIKey
	}
	if opts.Country != "" {
		conf.NewsAPI.Country = opts.Country
	}
	if opts.Category != "" {
		conf.NewsAPI.Category = opts.Category
	}
	if opts.TelegramServer != "" {
		conf.Telegram.Server = opts.TelegramServer
	}
	if opts.TelegramToken != "" {
		conf.Telegram.Token = opts.TelegramToken
	}
	if opts.TelegramChannel != "" {
		conf.Telegram.Channel = opts.TelegramChannel
	}
	if opts.TelegramTimeout != 0 {
		conf.Telegram.Timeout = opts.TelegramTimeout
	}
}

func setupLog(dbg bool) {
	if dbg {
		log.Setup(log.Debug, log.CallerFile, log.Msec, log.LevelBraces)
		return
	}
	log.Setup(log.Msec, log.LevelBraces)
}
