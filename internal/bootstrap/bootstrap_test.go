package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfraCloseRunsInReverseAndJoinsErrors(t *testing.T) {
	var order []string
	infra := &Infra{}
	infra.AddCloser(func() error { order = append(order, "db"); return nil })
	infra.AddCloser(func() error { order = append(order, "redis"); return errors.New("redis close") })
	infra.AddCloser(func() error { order = append(order, "gcs"); return errors.New("gcs close") })

	err := infra.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis close")
	require.Contains(t, err.Error(), "gcs close")
	require.Equal(t, []string{"gcs", "redis", "db"}, order)

	require.NoError(t, infra.Close())
	require.Len(t, order, 3)
}
