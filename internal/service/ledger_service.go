package service

import (
	"context"
	"fmt"
	"time"

	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const balanceCacheTTL = 30 * time.Second

// WalletLedgerService implements ports.WalletLedger. It is the only writer
// of balance changes: every mutation appends a ledger entry and moves the
// materialized wallet balance in the same transaction, under the wallet row
// lock the caller already holds.
type WalletLedgerService struct {
	walletRepo ports.WalletRepository
	cache      ports.BalanceCache
	currency   string
	log        zerolog.Logger
}

// NewWalletLedgerService creates a new WalletLedgerService.
func NewWalletLedgerService(
	walletRepo ports.WalletRepository,
	cache ports.BalanceCache,
	currency string,
	log zerolog.Logger,
) *WalletLedgerService {
	return &WalletLedgerService{
		walletRepo: walletRepo,
		cache:      cache,
		currency:   currency,
		log:        log,
	}
}

// Credit appends a CREDIT entry and raises the wallet balance. A wallet is
// created on first credit. If the intent already has a ledger entry the call
// is a no-op returning that entry.
func (s *WalletLedgerService) Credit(ctx context.Context, tx pgx.Tx, req ports.LedgerEntryRequest) (*domain.WalletTransaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	existing, err := s.walletRepo.GetTransactionByIntentID(ctx, req.IntentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing ledger entry: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	wallet, err := s.walletRepo.GetWalletForUpdate(ctx, tx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		// First credit provisions the wallet.
		now := time.Now().UTC()
		w := &domain.Wallet{
			MerchantID: req.MerchantID,
			Balance:    0,
			Currency:   req.Currency,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.walletRepo.CreateWallet(ctx, w); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
		}
		wallet, err = s.walletRepo.GetWalletForUpdate(ctx, tx, req.MerchantID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock new wallet: %w", err))
		}
		if wallet == nil {
			return nil, apperror.InternalError(fmt.Errorf("wallet missing after create: %s", req.MerchantID))
		}
	}

	return s.append(ctx, tx, wallet, domain.DirectionCredit, wallet.Balance+req.Amount, req)
}

// Debit appends a DEBIT entry and lowers the wallet balance. The balance may
// never go negative; an underfunded wallet fails the whole settlement unit.
func (s *WalletLedgerService) Debit(ctx context.Context, tx pgx.Tx, req ports.LedgerEntryRequest) (*domain.WalletTransaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	existing, err := s.walletRepo.GetTransactionByIntentID(ctx, req.IntentID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing ledger entry: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	wallet, err := s.walletRepo.GetWalletForUpdate(ctx, tx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if wallet.Balance < req.Amount {
		return nil, apperror.ErrInsufficientBalance()
	}

	return s.append(ctx, tx, wallet, domain.DirectionDebit, wallet.Balance-req.Amount, req)
}

func (s *WalletLedgerService) append(
	ctx context.Context,
	tx pgx.Tx,
	wallet *domain.Wallet,
	direction domain.TransactionDirection,
	newBalance int64,
	req ports.LedgerEntryRequest,
) (*domain.WalletTransaction, error) {
	if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.MerchantID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	intentID := req.IntentID
	entry := &domain.WalletTransaction{
		ID:             uuid.New(),
		MerchantID:     wallet.MerchantID,
		Direction:      direction,
		Amount:         req.Amount,
		ClosingBalance: newBalance,
		Description:    req.Description,
		IntentID:       &intentID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.walletRepo.AppendTransaction(ctx, tx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append ledger entry: %w", err))
	}

	s.log.Info().
		Str("merchant_id", wallet.MerchantID.String()).
		Str("direction", string(direction)).
		Int64("amount", req.Amount).
		Int64("closing_balance", newBalance).
		Msg("ledger entry appended")

	return entry, nil
}

// CurrentBalance returns the merchant's balance, served from cache when
// possible. A cache failure degrades to a direct read.
func (s *WalletLedgerService) CurrentBalance(ctx context.Context, merchantID uuid.UUID) (int64, string, error) {
	if s.cache != nil {
		balance, found, err := s.cache.Get(ctx, merchantID)
		if err != nil {
			s.log.Warn().Err(err).Str("merchant_id", merchantID.String()).Msg("balance cache read failed, falling through to DB")
		}
		if found {
			return balance, s.currency, nil
		}
	}

	wallet, err := s.walletRepo.GetWallet(ctx, merchantID)
	if err != nil {
		return 0, "", apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, "", apperror.ErrWalletNotFound()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, merchantID, wallet.Balance, balanceCacheTTL); err != nil {
			s.log.Warn().Err(err).Str("merchant_id", merchantID.String()).Msg("failed to cache balance")
		}
	}

	return wallet.Balance, wallet.Currency, nil
}

// ListTransactions returns a page of the merchant's ledger, newest first.
func (s *WalletLedgerService) ListTransactions(ctx context.Context, params ports.LedgerListParams) ([]domain.WalletTransaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	entries, total, err := s.walletRepo.ListTransactions(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list ledger entries: %w", err))
	}
	return entries, total, nil
}
