package server

import (
	"context"
	"iter"
	"sync"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/internal/usecase"
)

// fakeStates serves canned cached/updated states per subject
type fakeStates struct {
	mu         sync.Mutex
	cached     map[string]*domain.CombinedWalletState
	updated    map[string]*domain.CombinedWalletState
	refreshErr error
	refreshes  []domain.StateSubject
}

func newFakeStates() *fakeStates {
	return &fakeStates{
		cached:  make(map[string]*domain.CombinedWalletState),
		updated: make(map[string]*domain.CombinedWalletState),
	}
}

func subjectKey(subject domain.StateSubject) string {
	if subject.IsWallet() {
		return "wallet:" + subject.Wallet.PublicKey.String()
	}
	return "address:" + subject.Address
}

func (f *fakeStates) ReadCached(_ context.Context, subject domain.StateSubject) (*domain.CombinedWalletState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cached[subjectKey(subject)], nil
}

func (f *fakeStates) Refresh(ctx context.Context, subject domain.StateSubject, onlyCached bool) iter.Seq2[domain.StateResult, error] {
	return func(yield func(domain.StateResult, error) bool) {
		f.mu.Lock()
		f.refreshes = append(f.refreshes, subject)
		cached := f.cached[subjectKey(subject)]
		updated := f.updated[subjectKey(subject)]
		refreshErr := f.refreshErr
		f.mu.Unlock()

		if !yield(domain.Cached(cached), nil) || onlyCached {
			return
		}
		if refreshErr != nil {
			yield(domain.StateResult{}, refreshErr)
			return
		}
		yield(domain.Updated(updated), nil)
	}
}

func (f *fakeStates) failRefresh(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshErr = err
}

func (f *fakeStates) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshes)
}

type fakeTransfers struct {
	requests []*usecase.SendRequest
	err      error
}

func (f *fakeTransfers) Send(_ context.Context, req *usecase.SendRequest) ([]domain.PendingWalletTransaction, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return []domain.PendingWalletTransaction{{BodyHash: []byte("body"), Address: req.ToAddress, Value: req.Amount}}, nil
}

type fakeWallets struct {
	records    []*domain.WalletRecord
	decryptErr error
	keysErr    error
	confirmed  []domain.WalletPublicKey
	exported   [][]byte
}

func (f *fakeWallets) AvailableWallets(context.Context) ([]*domain.WalletRecord, error) {
	return f.records, nil
}

func (f *fakeWallets) GetWallet(_ context.Context, publicKey domain.WalletPublicKey) (*domain.WalletRecord, error) {
	for _, record := range f.records {
		if record.Info.PublicKey == publicKey {
			return record, nil
		}
	}
	return nil, domain.ErrWalletNotFound
}

func (f *fakeWallets) ConfirmWalletExported(ctx context.Context, publicKey domain.WalletPublicKey) error {
	if _, err := f.GetWallet(ctx, publicKey); err != nil {
		return err
	}
	f.confirmed = append(f.confirmed, publicKey)
	return nil
}

func (f *fakeWallets) DecryptWalletSecret(_ context.Context, info domain.WalletInfo) ([]byte, error) {
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	return append([]byte("plain:"), info.EncryptedSecret.Data...), nil
}

func (f *fakeWallets) CreateWallet(_ context.Context, localPassword []byte) (*domain.WalletInfo, []string, error) {
	if f.keysErr != nil {
		return nil, nil, f.keysErr
	}
	info := domain.WalletInfo{PublicKey: "pk-new", EncryptedSecret: domain.EncryptedSecret{Data: []byte("sealed-new")}}
	f.records = []*domain.WalletRecord{{Info: info}}
	return &info, []string{"abandon", "ability", string(localPassword)}, nil
}

func (f *fakeWallets) ImportWallet(_ context.Context, wordList []string, _ []byte) (*domain.WalletInfo, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	info := domain.WalletInfo{PublicKey: domain.WalletPublicKey("pk-" + wordList[0])}
	f.records = []*domain.WalletRecord{{Info: info, ExportCompleted: true}}
	return &info, nil
}

func (f *fakeWallets) DeleteAllLocalWalletsData(context.Context) error {
	if f.keysErr != nil {
		return f.keysErr
	}
	f.records = nil
	return nil
}

func (f *fakeWallets) WalletRestoreWords(
	_ context.Context,
	_ domain.WalletPublicKey,
	decryptedSecret, localPassword []byte,
) ([]string, error) {

	if f.keysErr != nil {
		return nil, f.keysErr
	}
	f.exported = append(f.exported, decryptedSecret)
	return []string{string(decryptedSecret), string(localPassword)}, nil
}

func testState(balance, timestamp int64) *domain.CombinedWalletState {
	return &domain.CombinedWalletState{
		WalletState: domain.WalletState{Balance: balance},
		Timestamp:   timestamp,
	}
}

func newFixtures() (*fakeStates, *fakeTransfers, *fakeWallets) {
	states := newFakeStates()
	states.cached["wallet:pk-1"] = testState(1_000_000_000, 100)
	states.updated["wallet:pk-1"] = testState(2_500_000_000, 200)
	states.updated["address:EQ-other"] = testState(7, 300)

	wallets := &fakeWallets{records: []*domain.WalletRecord{
		{
			Info:            domain.WalletInfo{PublicKey: "pk-1", EncryptedSecret: domain.EncryptedSecret{Data: []byte("sealed")}},
			ExportCompleted: true,
			State:           testState(1_000_000_000, 100),
		},
		{Info: domain.WalletInfo{PublicKey: "pk-2"}},
	}}

	return states, &fakeTransfers{}, wallets
}
