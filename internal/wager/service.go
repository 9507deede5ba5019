package wager

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"wager-platform/internal/behavior"
	"wager-platform/internal/decision"
	"wager-platform/internal/event"
	"wager-platform/internal/ledger"
	"wager-platform/internal/monitoring"
	"wager-platform/internal/wallet"
)

const reasonInsufficientReserve = "insufficient_reserve"

// Decider settles win-or-lose for one wager. *decision.Engine is the
// production implementation.
type Decider interface {
	Decide(p behavior.Profile, bet float64, isAdmin bool, pool *ledger.Pool) (decision.Outcome, error)
}

type Service struct {
	db       *sql.DB
	wallet   *wallet.Service
	ledger   *ledger.Service
	behavior *behavior.Service
	engine   Decider
	seeds    *SeedManager
	bus      *event.Bus
	log      *zap.Logger
}

func New(db *sql.DB, w *wallet.Service, l *ledger.Service, b *behavior.Service,
	e Decider, bus *event.Bus, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		wallet:   w,
		ledger:   l,
		behavior: b,
		engine:   e,
		seeds:    NewSeedManager(),
		bus:      bus,
		log:      log,
	}
}

func (s *Service) Seeds() *SeedManager { return s.seeds }

// Play settles one wager end to end: debit, decide, move reserve money, and
// record the result, all inside a single transaction. A busy database is
// retried once; a second conflict settles the wager as a loss rather than
// leaving the bet in limbo.
func (s *Service) Play(req PlayRequest) (*Result, error) {
	if req.Bet <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidBet, req.Bet)
	}
	if err := ValidateBet(req.GameType, req.Bet); err != nil {
		return nil, err
	}

	// Wallets provision lazily with the initial balance; deposit intake
	// lives outside this system.
	if err := s.wallet.Ensure(req.UID); err != nil {
		return nil, err
	}

	s.seeds.MaybeRotate()

	res, err := s.playOnce(req, false)
	if errors.Is(err, ledger.ErrConflict) {
		s.log.Warn("wager settlement conflict, retrying", zap.Int64("uid", req.UID))
		res, err = s.playOnce(req, false)
	}
	if errors.Is(err, ledger.ErrConflict) {
		s.log.Warn("wager settlement conflict persists, settling as loss",
			zap.Int64("uid", req.UID))
		res, err = s.playOnce(req, true)
	}
	if err != nil {
		return nil, err
	}

	s.behavior.Invalidate(req.UID)
	s.publish(res)
	return res, nil
}

func (s *Service) playOnce(req PlayRequest, forceLoss bool) (*Result, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, mapBusy(err)
	}
	defer tx.Rollback()

	if err := s.wallet.DebitTx(tx, req.UID, req.Bet); err != nil {
		return nil, mapBusy(err)
	}

	pool, err := s.ledger.GetOrCreateTx(tx, ledger.MainPool)
	if err != nil {
		return nil, mapBusy(err)
	}

	profile, err := s.behavior.BuildProfile(req.UID)
	if err != nil {
		return nil, err
	}

	out, err := s.decide(profile, req, pool, forceLoss)
	if err != nil {
		return nil, err
	}

	result := &Result{
		UID:            req.UID,
		Success:        true,
		GameType:       req.GameType,
		BetAmount:      req.Bet,
		Pattern:        out.Pattern,
		DeniedBy:       out.DeniedBy,
		NextLossStreak: out.NextLossStreakHint,
	}

	if out.Win && pool.Status != ledger.StatusActive {
		out.Win = false
		out.Amount = 0
		result.Downgraded = true
		result.DowngradeReason = "pool_" + pool.Status
	}

	if out.Win {
		err := s.ledger.PayoutTx(tx, ledger.MainPool, out.Amount)
		if ledger.IsInsufficientReserve(err) {
			out.Win = false
			out.Amount = 0
			result.Downgraded = true
			result.DowngradeReason = reasonInsufficientReserve
		} else if err != nil {
			return nil, mapBusy(err)
		}
	}

	if out.Win {
		if err := s.wallet.CreditTx(tx, req.UID, out.Amount); err != nil {
			return nil, mapBusy(err)
		}
		result.WinAmount = out.Amount
	} else {
		if err := s.ledger.ContributeTx(tx, ledger.MainPool, req.Bet); err != nil {
			return nil, mapBusy(err)
		}
		result.Contribution = req.Bet
	}

	seed := s.seeds.Next(req.UID, req.ClientSeed)
	result.Nonce = seed.Nonce
	result.ResultHash = seed.ResultHash
	result.ServerSeedHash = s.seeds.PublicHash()

	isWin := 0
	if out.Win {
		isWin = 1
	}
	_, err = tx.Exec(`
	INSERT INTO game_results
		(user_id, game_type, bet_amount, win_amount, is_win, pattern,
		 server_seed, client_seed, nonce, result_hash, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.UID, req.GameType, req.Bet, result.WinAmount, isWin, result.Pattern,
		seed.ServerSeed, seed.ClientSeed, seed.Nonce, seed.ResultHash, time.Now().Unix())
	if err != nil {
		return nil, mapBusy(err)
	}

	balance, err := s.wallet.BalanceTx(tx, req.UID)
	if err != nil {
		return nil, err
	}
	result.NewBalance = math.Round(balance*100) / 100

	if err := tx.Commit(); err != nil {
		return nil, mapBusy(err)
	}
	return result, nil
}

func (s *Service) decide(profile behavior.Profile, req PlayRequest,
	pool *ledger.Pool, forceLoss bool) (decision.Outcome, error) {
	if forceLoss {
		return decision.Outcome{Pattern: decision.PatternDefault}, nil
	}
	return s.engine.Decide(profile, req.Bet, req.IsAdmin, pool)
}

func (s *Service) publish(res *Result) {
	result := "loss"
	if res.WinAmount > 0 {
		result = "win"
	}
	monitoring.WagersSettled.WithLabelValues(result, res.Pattern).Inc()

	if res.Contribution > 0 {
		monitoring.PoolContributions.Add(res.Contribution)
	}
	if res.WinAmount > 0 {
		monitoring.PoolPayouts.Add(res.WinAmount)
	}
	if pool, err := s.ledger.GetOrCreate(ledger.MainPool); err == nil {
		monitoring.PoolBalance.WithLabelValues(pool.Name).Set(pool.CurrentBalance)
	}

	if res.Downgraded {
		monitoring.WagerDowngrades.Inc()
		s.log.Info("win downgraded to loss",
			zap.Int64("uid", res.UID),
			zap.String("reason", res.DowngradeReason),
			zap.String("pattern", res.Pattern))
		s.bus.Publish(event.EventWagerDowngraded, res)
	}

	s.bus.Publish(event.EventWagerSettled, res)
}

func mapBusy(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	return err
}
