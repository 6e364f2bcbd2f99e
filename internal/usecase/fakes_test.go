package usecase

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/repository"
	"wallet-sync-service/internal/retry"
)

var testStart = time.Unix(1_700_000_000, 0)

// fakeLedger is a scripted LedgerClient. Queued errors are returned one per
// call before the configured success value.
type fakeLedger struct {
	mu sync.Mutex

	address      string
	addressErr   error
	addressCalls int

	account      *domain.AccountState
	accountErrs  []error
	accountCalls int

	pages       map[string][]domain.WalletTransaction
	pageErrs    []error
	pageCursors []domain.WalletTransactionID
	onPage      func(ctx context.Context)

	sendResult   *domain.SendGramsResult
	sendErr      error
	sendRequests []*domain.SendGramsRequest
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		address: "EQ-test-address",
		pages:   make(map[string][]domain.WalletTransaction),
	}
}

func (l *fakeLedger) WalletAddress(_ context.Context, _ domain.WalletPublicKey) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.addressCalls++
	if l.addressErr != nil {
		return "", l.addressErr
	}
	return l.address, nil
}

func (l *fakeLedger) GetAccountState(_ context.Context, _ string) (*domain.AccountState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accountCalls++
	if len(l.accountErrs) > 0 {
		err := l.accountErrs[0]
		l.accountErrs = l.accountErrs[1:]
		return nil, err
	}
	if l.account == nil {
		return nil, &domain.LedgerError{Code: "ACCOUNT_UNKNOWN"}
	}
	account := *l.account
	return &account, nil
}

func (l *fakeLedger) GetTransactions(ctx context.Context, _ string, from domain.WalletTransactionID) ([]domain.WalletTransaction, error) {
	l.mu.Lock()
	hook := l.onPage
	l.pageCursors = append(l.pageCursors, from)
	var err error
	if len(l.pageErrs) > 0 {
		err = l.pageErrs[0]
		l.pageErrs = l.pageErrs[1:]
	}
	page := append([]domain.WalletTransaction(nil), l.pages[from.Key()]...)
	l.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (l *fakeLedger) SendGrams(_ context.Context, req *domain.SendGramsRequest) (*domain.SendGramsResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sendRequests = append(l.sendRequests, req)
	if l.sendErr != nil {
		return nil, l.sendErr
	}
	return l.sendResult, nil
}

func (l *fakeLedger) pageCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pageCursors)
}

// fakeKeys is a LedgerKeyManager handing out fixed keys
type fakeKeys struct {
	key         domain.LedgerKey
	words       []string
	err         error
	deleted     bool
	importWords []string
}

func (k *fakeKeys) CreateKey(context.Context, []byte) (*domain.LedgerKey, error) {
	if k.err != nil {
		return nil, k.err
	}
	key := k.key
	return &key, nil
}

func (k *fakeKeys) ImportKey(_ context.Context, _ []byte, words []string) (*domain.LedgerKey, error) {
	if k.err != nil {
		return nil, k.err
	}
	k.importWords = words
	key := k.key
	return &key, nil
}

func (k *fakeKeys) ExportKey(context.Context, domain.LedgerKey, []byte) ([]string, error) {
	if k.err != nil {
		return nil, k.err
	}
	return k.words, nil
}

func (k *fakeKeys) DeleteAllKeys(context.Context) error {
	if k.err != nil {
		return k.err
	}
	k.deleted = true
	return nil
}

// fakeKeychain "seals" by prefixing the key id
type fakeKeychain struct {
	decryptErr error
}

func (c *fakeKeychain) Encrypt(_ context.Context, secret []byte) (domain.EncryptedSecret, error) {
	return domain.EncryptedSecret{
		PublicKey: []byte("kid"),
		Data:      append([]byte("sealed:"), secret...),
	}, nil
}

func (c *fakeKeychain) Decrypt(_ context.Context, encrypted domain.EncryptedSecret) ([]byte, error) {
	if c.decryptErr != nil {
		return nil, c.decryptErr
	}
	return encrypted.Data[len("sealed:"):], nil
}

// recordingPublisher remembers published events
type recordingPublisher struct {
	mu      sync.Mutex
	updated []domain.WalletPublicKey
	sent    []domain.PendingWalletTransaction
}

func (p *recordingPublisher) PublishStateUpdated(_ context.Context, publicKey domain.WalletPublicKey, _ *domain.CombinedWalletState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, publicKey)
}

func (p *recordingPublisher) PublishTransactionSent(_ context.Context, _ domain.WalletPublicKey, pending domain.PendingWalletTransaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pending)
}

// ============================================================================
// HARNESS
// ============================================================================

type harness struct {
	ledger    *fakeLedger
	store     *repository.MemoryWalletRepository
	clock     *clock.TestClock
	publisher *recordingPublisher
	history   *HistoryFetcher
	sync      *SyncUsecase
	send      *SendUsecase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := zap.NewNop()
	ledger := newFakeLedger()
	store := repository.NewMemoryWalletRepository()
	clk := clock.NewTestClock(testStart)
	publisher := &recordingPublisher{}
	policy := newTestPolicy(clk)
	addresses := NewAddressBook(ledger)
	history := NewHistoryFetcher(ledger, policy, logger)

	return &harness{
		ledger:    ledger,
		store:     store,
		clock:     clk,
		publisher: publisher,
		history:   history,
		sync:      NewSyncUsecase(store, ledger, addresses, history, policy, publisher, logger),
		send:      NewSendUsecase(store, ledger, addresses, clk, publisher, logger),
	}
}

// newTestPolicy keeps the retry budget but waits zero time
func newTestPolicy(clk clock.Clock) *retry.Policy {
	policy := retry.NewPolicy(clk, zap.NewNop())
	policy.DelayIncrement = 0
	return policy
}

func (h *harness) seed(t *testing.T, publicKey domain.WalletPublicKey, state *domain.CombinedWalletState) domain.WalletInfo {
	t.Helper()

	info := domain.WalletInfo{
		PublicKey: publicKey,
		EncryptedSecret: domain.EncryptedSecret{
			PublicKey: []byte("kid"),
			Data:      []byte("sealed:secret"),
		},
	}
	if err := h.store.Reset(context.Background(), []*domain.WalletRecord{{Info: info, State: state}}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return info
}

func collect(seq iter.Seq2[domain.StateResult, error]) ([]domain.StateResult, error) {
	var results []domain.StateResult
	for result, err := range seq {
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ============================================================================
// BUILDERS
// ============================================================================

func txID(lt int64) domain.WalletTransactionID {
	return domain.WalletTransactionID{LT: lt, TransactionHash: []byte(fmt.Sprintf("hash-%d", lt))}
}

func txIDPtr(lt int64) *domain.WalletTransactionID {
	id := txID(lt)
	return &id
}

// makeTx builds a confirmed transaction whose outbound messages carry the
// given body hashes
func makeTx(lt, timestamp int64, bodyHashes ...string) domain.WalletTransaction {
	tx := domain.WalletTransaction{
		TransactionID: txID(lt),
		Timestamp:     timestamp,
		InMessage: &domain.WalletTransactionMessage{
			Value:    1_000,
			BodyHash: []byte(fmt.Sprintf("in-%d", lt)),
		},
	}
	for _, h := range bodyHashes {
		tx.OutMessages = append(tx.OutMessages, domain.WalletTransactionMessage{
			Value:    100,
			BodyHash: []byte(h),
		})
	}
	return tx
}

// makePage builds a newest-first page of consecutive lts ending at newest
func makePage(newest int64, n int) []domain.WalletTransaction {
	page := make([]domain.WalletTransaction, 0, n)
	for i := 0; i < n; i++ {
		lt := newest - int64(i)
		page = append(page, makeTx(lt, 1_000+lt))
	}
	return page
}

func makePending(bodyHash string, validUntil int64) domain.PendingWalletTransaction {
	return domain.PendingWalletTransaction{
		Timestamp:           validUntil - 60,
		ValidUntilTimestamp: validUntil,
		BodyHash:            []byte(bodyHash),
		Address:             "EQ-destination",
		Value:               10,
	}
}

func networkErr() error {
	return &domain.LedgerError{Code: domain.LedgerCodeNetwork, Message: "timeout"}
}

func ids(transactions []domain.WalletTransaction) []int64 {
	out := make([]int64, len(transactions))
	for i, tx := range transactions {
		out[i] = tx.TransactionID.LT
	}
	return out
}
