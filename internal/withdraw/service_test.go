package withdraw

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wager-platform/internal/audit"
	"wager-platform/internal/db"
	"wager-platform/internal/event"
	"wager-platform/internal/wallet"
)

func testService(t *testing.T) (*Service, *sql.DB, *wallet.Service) {
	t.Helper()

	database, err := db.Init(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := zap.NewNop()
	wallets := wallet.New(database)
	svc := New(database, wallets, audit.New(database, log), event.NewBus(), log)
	return svc, database, wallets
}

func insertWithdrawal(t *testing.T, database *sql.DB, uid int64, amount float64, status string, at time.Time) string {
	t.Helper()

	id := fmt.Sprintf("w-%d-%d", uid, at.UnixNano())
	_, err := database.Exec(`
	INSERT INTO withdrawals (id, uid, amount, method, account_number, status, created_at)
	VALUES (?, ?, ?, 'bank', 'acct', ?, ?)
	`, id, uid, amount, status, at.Unix())
	require.NoError(t, err)
	return id
}

func TestRequest_CreatesPendingAndDebits(t *testing.T) {
	svc, _, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	w, err := svc.Request(1, 250, "bank", "12345")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, w.Status)
	assert.Equal(t, 250.0, w.Amount)
	assert.NotEmpty(t, w.ID)

	balance, err := wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 750.0, balance)
}

func TestRequest_DailyCountCeiling(t *testing.T) {
	svc, database, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	// Five completed withdrawals today, $400 each. The sixth must trip the
	// daily count ceiling even though the amounts stay under it.
	now := time.Now()
	for i := 0; i < 5; i++ {
		insertWithdrawal(t, database, 1, 400, StatusCompleted, now.Add(-time.Duration(i+1)*time.Hour))
	}

	_, err := svc.Request(1, 100, "bank", "12345")
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	require.Len(t, rle.Violations, 1)
	assert.Equal(t, WindowDaily, rle.Violations[0].Window)
	assert.Equal(t, CeilingCount, rle.Violations[0].Kind)
	assert.Equal(t, 5.0, rle.Violations[0].Current)

	// The provisional debit was rolled back.
	balance, err := wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)
}

func TestRequest_AmountCeilingAcrossWindows(t *testing.T) {
	svc, database, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))
	_, err := database.Exec(`UPDATE wallets SET balance = 30000 WHERE uid = 1`)
	require.NoError(t, err)

	// $4900 completed an hour ago: a $200 request breaks the daily amount
	// ceiling only.
	insertWithdrawal(t, database, 1, 4900, StatusCompleted, time.Now().Add(-time.Hour))

	_, err = svc.Request(1, 200, "bank", "12345")
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	require.Len(t, rle.Violations, 1)
	assert.Equal(t, WindowDaily, rle.Violations[0].Window)
	assert.Equal(t, CeilingAmount, rle.Violations[0].Kind)
}

func TestRequest_RejectedEntriesDoNotCount(t *testing.T) {
	svc, database, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	now := time.Now()
	for i := 0; i < 5; i++ {
		insertWithdrawal(t, database, 1, 400, StatusRejected, now.Add(-time.Duration(i+1)*time.Hour))
	}

	w, err := svc.Request(1, 100, "bank", "12345")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, w.Status)
}

func TestRequest_PendingGuard(t *testing.T) {
	svc, _, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	_, err := svc.Request(1, 100, "bank", "12345")
	require.NoError(t, err)

	_, err = svc.Request(1, 100, "bank", "12345")
	assert.ErrorIs(t, err, ErrPendingExists)
}

func TestRequest_InsufficientFunds(t *testing.T) {
	svc, _, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	_, err := svc.Request(1, 1500, "bank", "12345")
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)

	balance, err := wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)
}

func TestReject_RefundsOnce(t *testing.T) {
	svc, _, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	w, err := svc.Request(1, 300, "bank", "12345")
	require.NoError(t, err)

	balance, _ := wallets.Balance(1)
	require.Equal(t, 700.0, balance)

	require.NoError(t, svc.Reject(w.ID, "kyc check failed"))

	balance, err = wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)

	got, err := svc.Get(w.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
	assert.Equal(t, "kyc check failed", got.Reason)

	// Second reject must not refund again.
	err = svc.Reject(w.ID, "kyc check failed")
	require.ErrorIs(t, err, ErrAlreadySettled)

	balance, err = wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)
}

func TestLifecycle_ApproveCompleteIsTerminal(t *testing.T) {
	svc, _, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	w, err := svc.Request(1, 100, "bank", "12345")
	require.NoError(t, err)

	// Complete straight from pending is not allowed.
	require.ErrorIs(t, svc.Complete(w.ID), ErrBadTransition)

	require.NoError(t, svc.Approve(w.ID))
	require.NoError(t, svc.Complete(w.ID))

	require.ErrorIs(t, svc.Approve(w.ID), ErrAlreadySettled)
	require.ErrorIs(t, svc.Reject(w.ID, "late"), ErrAlreadySettled)

	// Completed money stays gone.
	balance, err := wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 900.0, balance)
}

func TestFail_RefundsApproved(t *testing.T) {
	svc, _, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	w, err := svc.Request(1, 100, "bank", "12345")
	require.NoError(t, err)
	require.NoError(t, svc.Approve(w.ID))

	require.NoError(t, svc.Fail(w.ID, "processor timeout"))

	balance, err := wallets.Balance(1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)
}

func TestTransition_UnknownID(t *testing.T) {
	svc, _, _ := testService(t)

	require.ErrorIs(t, svc.Approve("nope"), ErrNotFound)
	require.ErrorIs(t, svc.Reject("nope", ""), ErrNotFound)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, database, wallets := testService(t)
	require.NoError(t, wallets.Ensure(1))

	now := time.Now()
	insertWithdrawal(t, database, 1, 50, StatusCompleted, now.Add(-48*time.Hour))
	insertWithdrawal(t, database, 1, 75, StatusCompleted, now.Add(-time.Hour))
	insertWithdrawal(t, database, 2, 80, StatusCompleted, now)

	history, err := svc.History(1, 30)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 75.0, history[0].Amount)
	assert.Equal(t, 50.0, history[1].Amount)
}

func TestRequest_ProvisionsWalletOnFirstUse(t *testing.T) {
	svc, _, wallets := testService(t)

	// No Ensure: a brand-new user's first withdrawal runs against the
	// initial balance instead of failing on a missing wallet row.
	w, err := svc.Request(42, 250, "bank", "12345")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, w.Status)

	balance, err := wallets.Balance(42)
	require.NoError(t, err)
	assert.Equal(t, 750.0, balance)
}

func TestTransitions_AuditNameTheUser(t *testing.T) {
	svc, database, wallets := testService(t)
	require.NoError(t, wallets.Ensure(9))

	w, err := svc.Request(9, 100, "bank", "12345")
	require.NoError(t, err)
	require.NoError(t, svc.Approve(w.ID))
	require.NoError(t, svc.Complete(w.ID))

	rows, err := database.Query(`
	SELECT action, uid FROM audit_logs WHERE action LIKE 'withdraw_%' ORDER BY id
	`)
	require.NoError(t, err)
	defer rows.Close()

	actions := map[string]int64{}
	for rows.Next() {
		var action string
		var uid int64
		require.NoError(t, rows.Scan(&action, &uid))
		actions[action] = uid
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, int64(9), actions["withdraw_request"])
	assert.Equal(t, int64(9), actions["withdraw_approved"])
	assert.Equal(t, int64(9), actions["withdraw_completed"])
}
