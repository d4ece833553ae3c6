package pgshop

import (
	"context"
	"testing"
	"time"

	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "shopbox_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/shopbox_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGShop_OrderFlow(t *testing.T) {
	ctx := context.Background()
	st := startPostgres(t)

	in := models.OrderCreateInput{
		Name:       "Sara",
		Email:      "sara@x.com",
		Phone:      "+971501234567",
		Bundle:     "2-bottles",
		BundleName: "2 Bottles",
		Price:      199,
		Gummies:    120,
		Days:       60,
	}
	created, err := st.CreateOrder(ctx, in, "ZG1700000000001")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, models.OrderStatusPending, created.Status)
	require.Equal(t, "ZG1700000000001", created.OrderNumber)
	require.Equal(t, float64(199), created.Price)

	// Duplicate order number must surface the sentinel, not a raw pg error.
	_, err = st.CreateOrder(ctx, in, "ZG1700000000001")
	require.ErrorIs(t, err, ErrOrderNumberTaken)

	second, err := st.CreateOrder(ctx, in, "ZG1700000000002")
	require.NoError(t, err)

	list, err := st.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, created.ID, list[1].ID)

	shipped := models.OrderStatusShipped
	notes := "left with reception"
	upd, err := st.UpdateOrder(ctx, created.ID, models.OrderPatch{Status: &shipped, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, upd.Status)
	require.Equal(t, "left with reception", upd.Notes)
	require.True(t, upd.UpdatedAt.After(created.UpdatedAt))

	// Patch with only notes keeps the status and still bumps updated_at.
	notes2 := "call before delivery"
	upd2, err := st.UpdateOrder(ctx, created.ID, models.OrderPatch{Notes: &notes2})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, upd2.Status)
	require.True(t, upd2.UpdatedAt.After(upd.UpdatedAt) || upd2.UpdatedAt.Equal(upd.UpdatedAt))

	got, err := st.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "call before delivery", got.Notes)

	require.NoError(t, st.DeleteOrder(ctx, created.ID))
	require.ErrorIs(t, st.DeleteOrder(ctx, created.ID), ErrNotFound)

	_, err = st.GetOrderByID(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = st.UpdateOrder(ctx, created.ID, models.OrderPatch{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPGShop_EnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	st := startPostgres(t)

	u, created, err := st.EnsureAdminUser(ctx, "admin@zengummies.ae", "Operator")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, models.RoleAdmin, u.Role)

	// Idempotent: second call finds the same row.
	u2, created2, err := st.EnsureAdminUser(ctx, "admin@zengummies.ae", "Operator")
	require.NoError(t, err)
	require.False(t, created2)
	require.Equal(t, u.ID, u2.ID)

	got, err := st.GetUserByEmail(ctx, "admin@zengummies.ae")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = st.GetUserByEmail(ctx, "nobody@zengummies.ae")
	require.ErrorIs(t, err, ErrNotFound)
}
