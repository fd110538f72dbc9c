package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/command"
	"github.com/distrobmj-cmd/julianarbitraje/internal/config"
	"github.com/distrobmj-cmd/julianarbitraje/internal/market"
	"github.com/distrobmj-cmd/julianarbitraje/internal/notify"
	"github.com/distrobmj-cmd/julianarbitraje/internal/rate"
	"github.com/distrobmj-cmd/julianarbitraje/internal/scheduler"
	"github.com/distrobmj-cmd/julianarbitraje/internal/server"
	"github.com/distrobmj-cmd/julianarbitraje/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newRateStore() *rate.Store {
	primary := rate.NewBanrep(rate.SourceOptions{
		URL:       a.Config.Rate.BanrepURL,
		Timeout:   a.Config.Rate.RequestTimeout,
		UserAgent: a.Config.Market.UserAgent,
	}, a.Logger)

	secondary := rate.NewExchangeRate(rate.SourceOptions{
		URL:       a.Config.Rate.FallbackURL,
		Timeout:   a.Config.Rate.RequestTimeout,
		UserAgent: a.Config.Market.UserAgent,
	}, a.Logger)

	return rate.NewStore(
		[]rate.Source{primary, secondary},
		decimal.NewFromFloat(a.Config.Rate.StaticDefault),
		a.Logger,
	)
}

func (a *App) newQuoteSource() market.QuoteSource {
	return market.NewBinance(market.BinanceOptions{
		BaseURL:   a.Config.Market.BaseURL,
		Asset:     a.Config.Market.Asset,
		Fiat:      a.Config.Market.Fiat,
		PayTypes:  a.Config.Market.PayTypes,
		Timeout:   a.Config.Market.RequestTimeout,
		UserAgent: a.Config.Market.UserAgent,
	}, a.Logger)
}

func (a *App) newTelegram() *notify.Telegram {
	if !a.Config.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Telegram
	return notify.NewTelegram(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.RequestTimeout, a.Logger)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	telegram := a.newTelegram()
	if telegram == nil {
		a.Logger.Warn().Msg("telegram disabled; messages will only be logged")
	}

	var notifier notify.Notifier
	var dispatcher *command.Dispatcher
	if telegram != nil {
		notifier = telegram
		if a.Config.Telegram.PollCommands {
			dispatcher = command.NewDispatcher(telegram, telegram, a.Config.Telegram.ChatID, a.Logger)
		}
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Monitor.PollInterval,
		StartupDelay: a.Config.Monitor.StartupDelay,
	}, a.Logger)

	svc := service.New(a.Config, sched, a.newRateStore(), a.newQuoteSource(), notifier, dispatcher, a.Logger)

	serverErr := make(chan error, 1)
	if a.Config.Server.Enabled {
		srv := server.New(a.Config.Server.Addr, svc, a.Logger)
		go func() {
			serverErr <- srv.Run(ctx)
		}()
	}

	a.Logger.Info().Msg("starting monitoring service")
	err := svc.Run(ctx)
	cancel()

	if a.Config.Server.Enabled {
		if srvErr := <-serverErr; srvErr != nil && !errors.Is(srvErr, context.Canceled) {
			a.Logger.Error().Err(srvErr).Msg("status server terminated with error")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}
