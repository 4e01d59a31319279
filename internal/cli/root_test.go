package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "catalogmirror", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "sync", "migrate", "prune"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	prune, _, err := cmd.Find([]string{"prune"})
	require.NoError(t, err)
	keep := prune.Flags().Lookup("keep")
	require.NotNil(t, keep)
	assert.Equal(t, "-1", keep.DefValue)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitCommandError, "bad", nil))))
}

// env points the CLI at a fake feed of n products and a fresh SQLite file.
func env(t *testing.T, n int) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var b bytes.Buffer
		b.WriteString(`{"products":[`)
		for i := 1; i <= n; i++ {
			if i > 1 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, `{"id":%d,"title":"P%d","handle":"p%d","variants":[{"price":"1.00"}]}`, i, i, i)
		}
		b.WriteString(`]}`)
		_, _ = w.Write(b.Bytes())
	}))
	t.Cleanup(upstream.Close)

	for _, k := range []string{"CONFIG_FILE", "CATALOG_CAPACITY", "SYNC_INTERVAL", "LOG_LEVEL", "LOG_FORMAT", "FEED_MAX_PAGES"} {
		t.Setenv(k, "")
	}
	t.Setenv("FEED_URL", upstream.URL)
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "catalog.db"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCommand(t *testing.T) {
	t.Run("text report", func(t *testing.T) {
		env(t, 3)

		out, err := execute(t, "sync")
		require.NoError(t, err)
		assert.Contains(t, out, "(cli)")
		assert.Regexp(t, `inserted\s+3`, out)
	})

	t.Run("json report", func(t *testing.T) {
		env(t, 3)

		out, err := execute(t, "sync", "--format", "json")
		require.NoError(t, err)

		var resp struct {
			Status string `json:"status"`
			Data   struct {
				Inserted   int   `json:"inserted"`
				FinalCount int64 `json:"final_count"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, 3, resp.Data.Inserted)
		assert.Equal(t, int64(3), resp.Data.FinalCount)
	})

	t.Run("feed failure exits 1", func(t *testing.T) {
		env(t, 0)
		t.Setenv("FEED_URL", "http://127.0.0.1:1/products.json")

		out, err := execute(t, "sync")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "Error syncing products")
		assert.Contains(t, out, "(total products: 0)")
	})

	t.Run("invalid format", func(t *testing.T) {
		env(t, 0)

		_, err := execute(t, "sync", "--format", "xml")
		assert.ErrorContains(t, err, "invalid format")
	})

	t.Run("invalid config exits 2", func(t *testing.T) {
		env(t, 0)
		t.Setenv("STORE_DRIVER", "mongo")

		_, err := execute(t, "sync")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestMigrateAndPrune(t *testing.T) {
	env(t, 5)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema applied (sqlite)\n", out)

	_, err = execute(t, "sync")
	require.NoError(t, err)

	out, err = execute(t, "prune", "--keep", "2")
	require.NoError(t, err)
	assert.Equal(t, "pruned 3 records\n", out)

	out, err = execute(t, "prune", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"kept":50,"pruned":0}}`, out)

	_, err = execute(t, "prune", "--keep", "-3")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
