package sonic

import (
	"context"
	"testing"

	"github.com/pior/sonic/internal/testutils"
	"github.com/stretchr/testify/require"
)

func mockConfig(mock *testutils.ConnectionMock) Config {
	return Config{Addr: "localhost:1491", Password: "secret", Dial: mock.Dial()}
}

func startSearchMock(t *testing.T, responses ...string) (*SearchChannel, *testutils.ConnectionMock) {
	t.Helper()
	mock := testutils.NewChannelMock("search", responses...)
	ch, err := StartSearch(context.Background(), mockConfig(mock))
	require.NoError(t, err)
	return ch, mock
}

func startIngestMock(t *testing.T, responses ...string) (*IngestChannel, *testutils.ConnectionMock) {
	t.Helper()
	mock := testutils.NewChannelMock("ingest", responses...)
	ch, err := StartIngest(context.Background(), mockConfig(mock))
	require.NoError(t, err)
	return ch, mock
}

func startControlMock(t *testing.T, responses ...string) (*ControlChannel, *testutils.ConnectionMock) {
	t.Helper()
	mock := testutils.NewChannelMock("control", responses...)
	ch, err := StartControl(context.Background(), mockConfig(mock))
	require.NoError(t, err)
	return ch, mock
}
