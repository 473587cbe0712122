package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

// MockTransaction is a no-op transaction handle.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	t.RolledBack = true
	return nil
}

// MockTxExecutor runs the unit of work directly, without a real database
// transaction. Attempts counts how many times fn ran.
type MockTxExecutor struct {
	WithTxFunc func(ctx context.Context, fn func(ctx context.Context, tx usecase.Transaction) error) error
	Attempts   int
}

func NewMockTxExecutor() *MockTxExecutor {
	return &MockTxExecutor{}
}

func (m *MockTxExecutor) WithTx(ctx context.Context, fn func(ctx context.Context, tx usecase.Transaction) error) error {
	m.Attempts++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, &MockTransaction{})
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	EnsureFunc  func(ctx context.Context, tx usecase.Transaction, id string) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Ensure(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		m.accounts[id] = &domain.Account{ID: id, CreatedAt: time.Now()}
	}
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

// MockBalanceRepository is a mock implementation of BalanceRepository backed
// by an in-memory map keyed on account|asset.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[string]*domain.AssetBalance

	GetForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (*domain.AssetBalance, error)
	GetFunc           func(ctx context.Context, accountID, assetCode string) (*domain.AssetBalance, error)
	GetInTxFunc       func(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (*domain.AssetBalance, error)
	ListByAccountFunc func(ctx context.Context, accountID string) ([]*domain.AssetBalance, error)
	UpdateAmountsFunc func(ctx context.Context, tx usecase.Transaction, accountID, assetCode string, available, frozen decimal.Decimal, updatedAt time.Time) error
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[string]*domain.AssetBalance),
	}
}

func balanceKey(accountID, assetCode string) string {
	return fmt.Sprintf("%s|%s", accountID, assetCode)
}

// Seed installs a balance row for test setup.
func (m *MockBalanceRepository) Seed(accountID, assetCode string, available, frozen decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey(accountID, assetCode)] = &domain.AssetBalance{
		AccountID: accountID,
		AssetCode: assetCode,
		Available: available,
		Frozen:    frozen,
	}
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (*domain.AssetBalance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, accountID, assetCode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey(accountID, assetCode)
	if bal, ok := m.balances[key]; ok {
		snapshot := *bal
		return &snapshot, nil
	}
	bal := &domain.AssetBalance{
		AccountID: accountID,
		AssetCode: assetCode,
		Available: decimal.Zero,
		Frozen:    decimal.Zero,
	}
	m.balances[key] = bal
	snapshot := *bal
	return &snapshot, nil
}

func (m *MockBalanceRepository) Get(ctx context.Context, accountID, assetCode string) (*domain.AssetBalance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, accountID, assetCode)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bal, ok := m.balances[balanceKey(accountID, assetCode)]; ok {
		snapshot := *bal
		return &snapshot, nil
	}
	return nil, domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) GetInTx(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (*domain.AssetBalance, error) {
	if m.GetInTxFunc != nil {
		return m.GetInTxFunc(ctx, tx, accountID, assetCode)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bal, ok := m.balances[balanceKey(accountID, assetCode)]; ok {
		snapshot := *bal
		return &snapshot, nil
	}
	return nil, domain.ErrBalanceNotFound
}

func (m *MockBalanceRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.AssetBalance, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var balances []*domain.AssetBalance
	for _, bal := range m.balances {
		if bal.AccountID == accountID {
			snapshot := *bal
			balances = append(balances, &snapshot)
		}
	}
	return balances, nil
}

func (m *MockBalanceRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, accountID, assetCode string, available, frozen decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateAmountsFunc != nil {
		return m.UpdateAmountsFunc(ctx, tx, accountID, assetCode, available, frozen, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.balances[balanceKey(accountID, assetCode)]
	if !ok {
		return domain.ErrBalanceNotFound
	}
	bal.Available = available
	bal.Frozen = frozen
	bal.UpdatedAt = updatedAt
	return nil
}

// MockAssetTransactionRepository is a mock implementation of
// AssetTransactionRepository with a unique-key check on idempotency keys.
type MockAssetTransactionRepository struct {
	mu    sync.RWMutex
	byKey map[string]*domain.AssetTransaction
	log   []*domain.AssetTransaction

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, txn *domain.AssetTransaction) error
	GetByIdempotencyKeyFunc func(ctx context.Context, tx usecase.Transaction, key string) (*domain.AssetTransaction, error)
	ListByAccountFunc       func(ctx context.Context, accountID string, limit, offset int) ([]*domain.AssetTransaction, error)
}

func NewMockAssetTransactionRepository() *MockAssetTransactionRepository {
	return &MockAssetTransactionRepository{
		byKey: make(map[string]*domain.AssetTransaction),
	}
}

func (m *MockAssetTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.AssetTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[txn.IdempotencyKey]; ok {
		return domain.ErrIdempotencyConflict
	}
	m.byKey[txn.IdempotencyKey] = txn
	m.log = append(m.log, txn)
	return nil
}

func (m *MockAssetTransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, key string) (*domain.AssetTransaction, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, tx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.byKey[key]; ok {
		return txn, nil
	}
	return nil, nil
}

func (m *MockAssetTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AssetTransaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.AssetTransaction
	for i := len(m.log) - 1; i >= 0; i-- {
		if m.log[i].AccountID == accountID {
			txns = append(txns, m.log[i])
		}
	}
	return txns, nil
}

// Log returns every recorded transaction in insertion order.
func (m *MockAssetTransactionRepository) Log() []*domain.AssetTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AssetTransaction(nil), m.log...)
}

// MockListingRepository is a mock implementation of ListingRepository.
type MockListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, listing *domain.Listing) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Listing, error)
	GetByIDForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Listing, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Listing, error)
	UpdateStatusFunc        func(ctx context.Context, tx usecase.Transaction, id string, from, to domain.ListingStatus, updatedAt time.Time) error
	ListBySellerFunc        func(ctx context.Context, sellerAccountID string, limit, offset int) ([]*domain.Listing, error)
}

func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{
		listings: make(map[string]*domain.Listing),
	}
}

// Seed installs a listing for test setup.
func (m *MockListingRepository) Seed(listing *domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[listing.ID] = listing
}

func (m *MockListingRepository) Create(ctx context.Context, tx usecase.Transaction, listing *domain.Listing) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, listing)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.IdempotencyKey == listing.IdempotencyKey {
			return domain.ErrIdempotencyConflict
		}
	}
	m.listings[listing.ID] = listing
	return nil
}

func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.listings[id]; ok {
		return l, nil
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Listing, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockListingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Listing, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listings {
		if l.IdempotencyKey == key {
			return l, nil
		}
	}
	return nil, nil
}

func (m *MockListingRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.ListingStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, from, to, updatedAt)
	}
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidListingStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	if l.Status != from {
		return domain.ErrInvalidListingStatus
	}
	l.Status = to
	l.UpdatedAt = updatedAt
	return nil
}

func (m *MockListingRepository) ListBySeller(ctx context.Context, sellerAccountID string, limit, offset int) ([]*domain.Listing, error) {
	if m.ListBySellerFunc != nil {
		return m.ListBySellerFunc(ctx, sellerAccountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var listings []*domain.Listing
	for _, l := range m.listings {
		if l.SellerAccountID == sellerAccountID {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, order *domain.Order) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatusFunc        func(ctx context.Context, tx usecase.Transaction, id string, from, to domain.OrderStatus, updatedAt time.Time) error
	ListByBuyerFunc         func(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// Seed installs an order for test setup.
func (m *MockOrderRepository) Seed(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == order.IdempotencyKey {
			return domain.ErrIdempotencyConflict
		}
	}
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, nil
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.OrderStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, from, to, updatedAt)
	}
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidOrderStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidOrderStatus
	}
	o.Status = to
	o.UpdatedAt = updatedAt
	return nil
}

func (m *MockOrderRepository) ListByBuyer(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error) {
	if m.ListByBuyerFunc != nil {
		return m.ListByBuyerFunc(ctx, buyerAccountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var orders []*domain.Order
	for _, o := range m.orders {
		if o.BuyerAccountID == buyerAccountID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// MockItemRepository is a mock implementation of ItemRepository.
type MockItemRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Item

	GetByIDFunc          func(ctx context.Context, id string) (*domain.Item, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Item, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, from, to domain.ItemStatus, updatedAt time.Time) error
	TransferFunc         func(ctx context.Context, tx usecase.Transaction, id, newOwnerAccountID string, updatedAt time.Time) error
}

func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items: make(map[string]*domain.Item),
	}
}

// Seed installs an item for test setup.
func (m *MockItemRepository) Seed(item *domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

func (m *MockItemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, domain.ErrItemNotFound
}

func (m *MockItemRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Item, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockItemRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.ItemStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, from, to, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Status != from {
		return domain.ErrInvalidItemStatus
	}
	item.Status = to
	item.UpdatedAt = updatedAt
	return nil
}

func (m *MockItemRepository) Transfer(ctx context.Context, tx usecase.Transaction, id, newOwnerAccountID string, updatedAt time.Time) error {
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, tx, id, newOwnerAccountID, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Status != domain.ItemStatusLocked {
		return domain.ErrInvalidItemStatus
	}
	item.OwnerAccountID = newOwnerAccountID
	item.Status = domain.ItemStatusAvailable
	item.UpdatedAt = updatedAt
	return nil
}

// MockAssetRepository is a mock implementation of AssetRepository.
type MockAssetRepository struct {
	mu     sync.RWMutex
	assets map[string]*domain.Asset

	ListFunc      func(ctx context.Context) ([]*domain.Asset, error)
	GetByCodeFunc func(ctx context.Context, code string) (*domain.Asset, error)
}

func NewMockAssetRepository() *MockAssetRepository {
	return &MockAssetRepository{
		assets: make(map[string]*domain.Asset),
	}
}

// Seed installs an asset for test setup.
func (m *MockAssetRepository) Seed(asset *domain.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[asset.Code] = asset
}

func (m *MockAssetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var assets []*domain.Asset
	for _, a := range m.assets {
		assets = append(assets, a)
	}
	return assets, nil
}

func (m *MockAssetRepository) GetByCode(ctx context.Context, code string) (*domain.Asset, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.assets[code]; ok {
		return a, nil
	}
	return nil, domain.ErrAssetNotTradable
}

// MockReconciliationRepository is a mock implementation of
// ReconciliationRepository.
type MockReconciliationRepository struct {
	Rows []usecase.FrozenCheckRow

	ListFrozenMismatchesFunc func(ctx context.Context, accountID, assetCode string, limit int) ([]usecase.FrozenCheckRow, error)
	ExpectedFrozenFunc       func(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (decimal.Decimal, error)
}

func NewMockReconciliationRepository() *MockReconciliationRepository {
	return &MockReconciliationRepository{}
}

func (m *MockReconciliationRepository) ListFrozenMismatches(ctx context.Context, accountID, assetCode string, limit int) ([]usecase.FrozenCheckRow, error) {
	if m.ListFrozenMismatchesFunc != nil {
		return m.ListFrozenMismatchesFunc(ctx, accountID, assetCode, limit)
	}
	var rows []usecase.FrozenCheckRow
	for _, row := range m.Rows {
		if accountID != "" && row.AccountID != accountID {
			continue
		}
		if assetCode != "" && row.AssetCode != assetCode {
			continue
		}
		rows = append(rows, row)
		if len(rows) == limit {
			break
		}
	}
	return rows, nil
}

func (m *MockReconciliationRepository) ExpectedFrozen(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (decimal.Decimal, error) {
	if m.ExpectedFrozenFunc != nil {
		return m.ExpectedFrozenFunc(ctx, tx, accountID, assetCode)
	}
	for _, row := range m.Rows {
		if row.AccountID == accountID && row.AssetCode == assetCode {
			return row.Expected, nil
		}
	}
	return decimal.Zero, nil
}

// MockCatalog is a mock implementation of Catalog.
type MockCatalog struct {
	Tradable map[string]bool

	IsTradableFunc func(ctx context.Context, code string) (bool, error)
}

func NewMockCatalog(codes ...string) *MockCatalog {
	tradable := make(map[string]bool, len(codes))
	for _, c := range codes {
		tradable[c] = true
	}
	return &MockCatalog{Tradable: tradable}
}

func (m *MockCatalog) IsTradable(ctx context.Context, code string) (bool, error) {
	if m.IsTradableFunc != nil {
		return m.IsTradableFunc(ctx, code)
	}
	return m.Tradable[code], nil
}

// MockIDGenerator is a mock implementation of IDGenerator producing
// deterministic sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("test-id-%d", m.counter)
}
