package checkout

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/visit"
	"github.com/fjod/storefront/internal/voucher"
)

type cartStack struct {
	svc    *Service
	carts  *cart.Service
	store  *fakeStore
	books  *catalog.Repository
	dbPath string
}

// setupCartStack wires the real catalog, visit store and cart service around
// the fake order store.
func setupCartStack(t *testing.T, saved *savedCarts) cartStack {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	books, err := catalog.NewRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, books.RunMigrations("../catalog/migrations"))
	t.Cleanup(func() { books.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	carts := cart.NewService(visit.NewRedisStore(client, time.Hour), books, saved, nil)
	store := newFakeStore()
	return cartStack{
		svc:    NewService(carts, store, voucher.NewValidator(store, clock), nil),
		carts:  carts,
		store:  store,
		books:  books,
		dbPath: dbPath,
	}
}

func TestPlaceOrder_LinePriceSurvivesCatalogEdit(t *testing.T) {
	ctx := context.Background()
	st := setupCartStack(t, &savedCarts{carts: map[string][]domain.PersistedLine{}})
	svc, carts, store := st.svc, st.carts, st.store

	_, err := carts.Add(ctx, guest, 2)
	require.NoError(t, err)

	order, err := svc.PlaceOrder(ctx, guest, Request{Contact: contact()})
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "60000", order.Lines[0].UnitPrice.String())

	// staff edit the price through their own connection
	admin, err := sql.Open("sqlite", st.dbPath)
	require.NoError(t, err)
	defer admin.Close()
	_, err = admin.ExecContext(ctx, `UPDATE books SET price = '75000' WHERE id = 2`)
	require.NoError(t, err)

	live, err := st.books.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "75000", live.Price.String())

	stored := store.snapshot().orders[0]
	assert.Equal(t, "60000", stored.Lines[0].UnitPrice.String())
	assert.Equal(t, "60000", stored.TotalAmount.String())

	// the visit cart was emptied after the commit
	c, err := carts.Get(ctx, guest)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestPlaceOrder_CheckoutBeforeMergeKeepsSavedItems(t *testing.T) {
	ctx := context.Background()
	saved := &savedCarts{carts: map[string][]domain.PersistedLine{
		"acc-1": {{ProductID: 2, Quantity: 3}},
	}}
	st := setupCartStack(t, saved)
	svc, carts, store := st.svc, st.carts, st.store
	store.state.carts["acc-1"] = true

	// picked up before signing in
	_, err := carts.Add(ctx, guest, 1)
	require.NoError(t, err)

	order, err := svc.PlaceOrder(ctx, member, Request{Contact: contact()})
	require.NoError(t, err)

	quantities := map[int64]int{}
	for _, line := range order.Lines {
		quantities[line.ProductID] = line.Quantity
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 3}, quantities)
	assert.Equal(t, "225000", order.TotalAmount.String())
	assert.NotContains(t, store.snapshot().carts, "acc-1")

	c, err := carts.Get(ctx, member)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}
