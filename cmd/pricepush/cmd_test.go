package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

const storkBody = `{"data":{"ETHUSD":{"timestamp":1700000000000000000,"asset_id":"ETHUSD","stork_signed_price":{
"public_key":"0x0a803F9b1CCe32e2773e0d2e98b37E0775cA5d44",
"encoded_asset_id":"0x59102b37de83bdda9f38ac8254e596f0d9ac61d2035c07936675e87342817160",
"price":"3000123456789000000000",
"timestamped_signature":{"signature":{
"r":"0xb9b3c9f80a355bd0cd6f609fff4a4b15fa4e3b4632adabb74c020f5bcd240741",
"s":"0x16fab526529ac795108d201832cff8c2d2b1c710da6711fe9f7ab288a7149758",
"v":"0x1b"},"timestamp":1700000000000000000,"msg_hash":"0x00"},
"publisher_merkle_root":"0xe5ff773b0316059c04aa157898766731017610dcbeede7d7f169bfeaab7cc318",
"calculation_alg":{"type":"median","version":"v1","checksum":"9be7e9f9ed459417d96112a7467bd0b27575a2c7847195c68f805b70ce1795ba"}}}}}`

func clearSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("STORK_API_KEY", "")
	t.Setenv("ARC_TESTNET_RPC_URL", "")
}

func run(a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestMain(m *testing.M) {
	log.InitLogger()
	os.Exit(m.Run())
}

func TestConfigShowCmd(t *testing.T) {
	clearSecrets(t)
	home := t.TempDir()
	a := &app{v: viper.New()}

	err := run(a, "config", "show", "--home", home, "--gas-limit", "500000", "--receipt-timeout", "45s")
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(home, "config.toml"))
	require.Equal(t, uint64(500000), a.cfg.GasLimit())
	require.Equal(t, "45s", a.cfg.ReceiptMaxWait().String())
	require.False(t, a.dryRun)
}

func TestInvalidLogLevel(t *testing.T) {
	err := run(&app{v: viper.New()}, "config", "show", "--home", t.TempDir(), "--log-level", "loud")
	require.Error(t, err)
}

func TestStorkPushMissingKey(t *testing.T) {
	clearSecrets(t)

	err := run(&app{v: viper.New()}, "stork", "push", "--home", t.TempDir())
	require.ErrorIs(t, err, types.ErrConfig)
	require.Equal(t, 2, types.ExitCode(err))
}

func TestStorkPushDryRun(t *testing.T) {
	clearSecrets(t)
	t.Setenv("STORK_API_KEY", "test-key")

	var auth, assets string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assets = r.URL.Query().Get("assets")
		fmt.Fprint(w, storkBody)
	}))
	defer server.Close()

	home := t.TempDir()
	conf := fmt.Sprintf("[stork]\napi_url = %q\n", server.URL)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(conf), 0644))

	a := &app{v: viper.New()}
	err := run(a, "stork", "push", "--home", home, "--dry-run", "--asset", "ETHUSD")
	require.NoError(t, err)

	require.True(t, a.dryRun)
	require.Equal(t, "Basic test-key", auth)
	require.Equal(t, "ETHUSD", assets)
}

func TestStorkPushOracleError(t *testing.T) {
	clearSecrets(t)
	t.Setenv("STORK_API_KEY", "bad-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	home := t.TempDir()
	conf := fmt.Sprintf("[stork]\napi_url = %q\n", server.URL)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(conf), 0644))

	err := run(&app{v: viper.New()}, "stork", "push", "--home", home, "--dry-run")
	require.ErrorIs(t, err, types.ErrOracleAPI)
	require.Contains(t, err.Error(), "unauthorized")
	require.Equal(t, 3, types.ExitCode(err))
}

func TestResolveAssetID(t *testing.T) {
	id, err := resolveAssetID("", "ETHUSD")
	require.NoError(t, err)
	require.Equal(t, contract.StorkAssetID("ETHUSD"), id)

	raw := "59102b37de83bdda9f38ac8254e596f0d9ac61d2035c07936675e87342817160"
	id, err = resolveAssetID(raw, "ETHUSD")
	require.NoError(t, err)
	require.Equal(t, common.HexToHash(raw), id)

	_, err = resolveAssetID("0x1234", "ETHUSD")
	require.ErrorIs(t, err, types.ErrConfig)
}
