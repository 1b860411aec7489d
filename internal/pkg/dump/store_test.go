package dump

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/device"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev1_10_0_0_11_last_fetch_dump.json", FileName("dev1", "10.0.0.11"))
}

func TestStore_WriteReadRoundtrip(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	code := 0
	rows := []punch.RawRow{
		{UserID: "7", Timestamp: json.RawMessage(`"2024-01-01 08:45:00"`), PunchCode: &code},
		{UserID: "12", Timestamp: json.RawMessage("1704087900")},
	}

	_, err = store.Write("dev1", "10.0.0.11", rows)
	require.NoError(t, err)

	got, err := store.Read("dev1", "10.0.0.11")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "7", got[0].UserID)
	require.NotNil(t, got[0].PunchCode)
	assert.Equal(t, 0, *got[0].PunchCode)
	assert.Equal(t, "12", got[1].UserID)
}

func TestStore_ReadMissingFile(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("dev1", "10.0.0.11")
	assert.Error(t, err)
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Write("dev1", "10.0.0.11", nil)
	require.NoError(t, err)
	_, err = store.Write("dev2", "10.0.0.12", nil)
	require.NoError(t, err)

	files, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"dev1_10_0_0_11_last_fetch_dump.json",
		"dev2_10_0_0_12_last_fetch_dump.json",
	}, files)
}

func TestGateway_FetchReadsDump(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	rows := []punch.RawRow{
		{UserID: "7", Timestamp: json.RawMessage(`"2024-01-01 08:45:00"`)},
	}
	_, err = store.Write("dev1", "10.0.0.11", rows)
	require.NoError(t, err)

	gateway := NewGateway(store)
	got, err := gateway.Fetch(context.Background(), device.Device{ID: "dev1", IP: "10.0.0.11"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0].UserID)
}

func TestGateway_FetchHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gateway := NewGateway(store)
	_, err = gateway.Fetch(ctx, device.Device{ID: "dev1", IP: "10.0.0.11"})

	assert.ErrorIs(t, err, context.Canceled)
}
