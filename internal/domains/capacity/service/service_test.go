package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking/infras/otel/mocks"
	"parking/internal/domains/capacity/model"
	"parking/internal/domains/capacity/service"
	lotModel "parking/internal/domains/lot/model"
	orgModel "parking/internal/domains/organization/model"
	"parking/internal/testutil"
	"parking/shared"
	"parking/shared/locker"
	"parking/shared/timezone"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) (service.Ledger, *testutil.Store) {
	t.Helper()

	store := testutil.NewStore()
	store.PutOrganization(orgModel.Organization{ID: "org-1", Name: "Acme", IsActive: true})
	store.PutLot(lotModel.ParkingLot{ID: "lot-a", OrganizationID: "org-1", TotalSlots: 2, AvailableSlots: 2, PriorityOrder: 1, IsActive: true})
	store.PutLot(lotModel.ParkingLot{ID: "lot-b", OrganizationID: "org-1", TotalSlots: 3, AvailableSlots: 1, PriorityOrder: 2, IsActive: true})
	store.PutLot(lotModel.ParkingLot{ID: "lot-closed", OrganizationID: "org-1", TotalSlots: 4, AvailableSlots: 4, PriorityOrder: 3})

	ledger := service.New(
		store.LotRepository(),
		store.OrganizationRepository(),
		store,
		locker.NewLocal(time.Second),
		timezone.Clock(func() time.Time { return now }),
		mocks.NewOtel(),
	)

	return ledger, store
}

func reserve(ledger service.Ledger, store *testutil.Store, lotID string) error {
	return store.WithinTx(context.Background(), func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := ledger.ReserveTx(ctx, tx, lotID, "user-1")

		return err
	})
}

func release(ledger service.Ledger, store *testutil.Store, lotID string) error {
	return store.WithinTx(context.Background(), func(ctx context.Context, tx *sqlx.Tx) error {
		return ledger.ReleaseTx(ctx, tx, lotID, "user-1")
	})
}

func TestLedger_ReserveTx(t *testing.T) {
	t.Run("takes one slot", func(t *testing.T) {
		ledger, store := newLedger(t)

		require.NoError(t, reserve(ledger, store, "lot-a"))

		lot := store.Lot("lot-a")
		assert.Equal(t, 1, lot.AvailableSlots)
		assert.Equal(t, "user-1", lot.ModifiedBy)
		assert.Equal(t, now, lot.ModifiedAt)
	})

	t.Run("full lot", func(t *testing.T) {
		ledger, store := newLedger(t)

		require.NoError(t, reserve(ledger, store, "lot-b"))
		assert.ErrorIs(t, reserve(ledger, store, "lot-b"), model.ErrCapacityExhausted)
		assert.Equal(t, 0, store.Lot("lot-b").AvailableSlots)
	})

	t.Run("inactive lot", func(t *testing.T) {
		ledger, store := newLedger(t)

		assert.ErrorIs(t, reserve(ledger, store, "lot-closed"), model.ErrCapacityExhausted)
	})

	t.Run("unknown lot", func(t *testing.T) {
		ledger, store := newLedger(t)

		assert.ErrorIs(t, reserve(ledger, store, "lot-x"), model.ErrLotNotFound)
	})

	t.Run("corrupt counters are reported", func(t *testing.T) {
		ledger, store := newLedger(t)
		store.PutLot(lotModel.ParkingLot{ID: "lot-bad", OrganizationID: "org-1", TotalSlots: 1, AvailableSlots: 3, IsActive: true})

		assert.ErrorIs(t, reserve(ledger, store, "lot-bad"), model.ErrLedgerInconsistency)
		assert.Equal(t, 3, store.Lot("lot-bad").AvailableSlots)
	})
}

func TestLedger_ReleaseTx(t *testing.T) {
	ledger, store := newLedger(t)

	require.NoError(t, release(ledger, store, "lot-b"))
	assert.Equal(t, 2, store.Lot("lot-b").AvailableSlots)

	assert.ErrorIs(t, release(ledger, store, "lot-a"), model.ErrLedgerInconsistency)
	assert.Equal(t, 2, store.Lot("lot-a").AvailableSlots)
}

func TestLedger_Resize(t *testing.T) {
	t.Run("keeps occupied slots", func(t *testing.T) {
		ledger, store := newLedger(t)
		ctx := shared.SystemContext(context.Background())

		res, err := ledger.Resize(ctx, "lot-b", 5)
		require.NoError(t, err)

		assert.Equal(t, 5, res.TotalSlots)
		assert.Equal(t, 3, res.AvailableSlots)
		assert.Equal(t, 2, res.OccupiedSlots)

		org := store.Organization("org-1")
		assert.Equal(t, 7, org.TotalSlots)
		assert.Equal(t, 5, org.AvailableSlots)
	})

	t.Run("below occupied", func(t *testing.T) {
		ledger, store := newLedger(t)

		_, err := ledger.Resize(context.Background(), "lot-b", 1)
		assert.ErrorIs(t, err, model.ErrBelowOccupied)
		assert.Equal(t, 3, store.Lot("lot-b").TotalSlots)
	})

	t.Run("shrink to occupied", func(t *testing.T) {
		ledger, store := newLedger(t)

		_, err := ledger.Resize(context.Background(), "lot-b", 2)
		require.NoError(t, err)
		assert.Equal(t, 0, store.Lot("lot-b").AvailableSlots)
	})

	t.Run("unknown lot", func(t *testing.T) {
		ledger, _ := newLedger(t)

		_, err := ledger.Resize(context.Background(), "lot-x", 2)
		assert.ErrorIs(t, err, model.ErrLotNotFound)
	})
}

func TestLedger_Reconcile(t *testing.T) {
	ledger, store := newLedger(t)

	snapshot, err := ledger.Snapshot(context.Background(), "org-1")
	require.NoError(t, err)
	assert.False(t, snapshot.ProjectionIsCurrent)
	assert.Equal(t, 5, snapshot.TotalSlots)
	assert.Equal(t, 3, snapshot.AvailableSlots)
	assert.Len(t, snapshot.Lots, 2)

	require.NoError(t, ledger.Reconcile(context.Background(), "org-1"))

	org := store.Organization("org-1")
	assert.Equal(t, 5, org.TotalSlots)
	assert.Equal(t, 3, org.AvailableSlots)
	assert.Equal(t, "system", org.ModifiedBy)

	snapshot, err = ledger.Snapshot(context.Background(), "org-1")
	require.NoError(t, err)
	assert.True(t, snapshot.ProjectionIsCurrent)

	assert.ErrorIs(t, ledger.Reconcile(context.Background(), "org-x"), model.ErrOrganizationMissing)

	_, err = ledger.Snapshot(context.Background(), "org-x")
	assert.ErrorIs(t, err, model.ErrOrganizationMissing)
}

func TestLedger_ReconcileAll(t *testing.T) {
	ledger, store := newLedger(t)
	store.PutOrganization(orgModel.Organization{ID: "org-2", IsActive: true, TotalSlots: 9, AvailableSlots: 9})

	require.NoError(t, ledger.ReconcileAll(context.Background()))

	assert.Equal(t, 5, store.Organization("org-1").TotalSlots)
	assert.Equal(t, 0, store.Organization("org-2").TotalSlots)
}
