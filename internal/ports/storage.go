package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

var (
	// ErrNotFound indica que la entidad pedida no existe.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateWallet indica que ya existe un bot con esa wallet.
	ErrDuplicateWallet = errors.New("wallet address already registered")
)

// Storage persiste bots, trades y snapshots de balance.
type Storage interface {
	CreateBot(ctx context.Context, bot domain.Bot) error
	GetBot(ctx context.Context, id string) (domain.Bot, error)
	GetBotByWallet(ctx context.Context, walletAddress string) (domain.Bot, error)
	ListBots(ctx context.Context) ([]domain.Bot, error)
	ListBotStats(ctx context.Context) ([]domain.BotStats, error)
	RenameBot(ctx context.Context, id, name string) error

	// DeleteBot elimina el bot y, en cascada, sus trades y snapshots.
	DeleteBot(ctx context.Context, id string) error

	CreateTrade(ctx context.Context, trade domain.Trade) error
	GetTrade(ctx context.Context, id string) (domain.Trade, error)

	// ListTrades devuelve los trades que pasan el filtro (más recientes
	// primero) y el total sin paginar.
	ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, int, error)

	// ListPendingTrades devuelve todos los trades PENDING con su bot.
	ListPendingTrades(ctx context.Context) ([]domain.Trade, error)

	// UpdateTradeResolution transiciona un trade PENDING a un estado terminal.
	// Devuelve false si el trade ya no estaba PENDING — un pase concurrente
	// que pierde la carrera no debe re-emitir eventos.
	UpdateTradeResolution(ctx context.Context, id string, status domain.TradeStatus, resolvedAt time.Time) (bool, error)

	AddSnapshot(ctx context.Context, snap domain.BalanceSnapshot) error
	LatestSnapshot(ctx context.Context, botID string) (domain.BalanceSnapshot, bool, error)
	ListSnapshots(ctx context.Context, botID string, limit int) ([]domain.BalanceSnapshot, error)

	Close() error
}
