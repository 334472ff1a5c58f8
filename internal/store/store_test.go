package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/listener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fluxdns.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestServerListenersSeededOnFreshDatabase(t *testing.T) {
	db := openTestDB(t)
	listeners, err := db.ListListeners(context.Background())
	require.NoError(t, err)
	assert.Len(t, listeners, 4)

	udp, err := db.GetListener(context.Background(), listener.UDP)
	require.NoError(t, err)
	assert.True(t, udp.Enabled)
	assert.Equal(t, 53, udp.Port)
}

func TestSystemConfigSeededWithDefaults(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetConfig(context.Background(), ConfigKeyQueryStrategy)
	require.NoError(t, err)
	assert.Equal(t, "concurrent", v)
}

func TestCreateAndMatchRecord(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.CreateRecord(ctx, Record{Name: "host.test", Type: dnswire.TypeA, Value: "10.0.0.5", TTL: 300, Enabled: true})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	records, err := db.MatchingRecords(ctx, "host.test", dnswire.TypeA)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10.0.0.5", records[0].Value)
}

func TestMatchingRecordsFallsBackToWildcard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateRecord(ctx, Record{Name: "*.lan", Type: dnswire.TypeA, Value: "10.0.0.1", TTL: 300, Enabled: true})
	require.NoError(t, err)

	records, err := db.MatchingRecords(ctx, "printer.lan", dnswire.TypeA)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "*.lan", records[0].Name)
}

func TestDeleteRecordMissingIDReturnsNotFound(t *testing.T) {
	db := openTestDB(t)
	err := db.DeleteRecord(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadEngineRulesConvertsPersistedShape(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateRule(ctx, Rule{Pattern: "ads.example.test", MatchType: "exact", ActionType: "block", Priority: 10, Enabled: true})
	require.NoError(t, err)
	_, err = db.CreateRule(ctx, Rule{Pattern: "legacy.test", MatchType: "exact", ActionType: "map_ip", ActionValue: "1.2.3.4", Priority: 5, Enabled: true})
	require.NoError(t, err)

	rules, err := db.LoadEngineRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "ads.example.test", rules[0].Pattern)
}

func TestLoadPoolServersConvertsPersistedShape(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUpstream(ctx, UpstreamRow{Name: "cloudflare", Address: "1.1.1.1:53", Protocol: "udp", TimeoutMs: 2000, Enabled: true})
	require.NoError(t, err)

	servers, err := db.LoadPoolServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "cloudflare", servers[0].Name)
}

func TestSetListenerEnabledMissingProtocolReturnsNotFound(t *testing.T) {
	db := openTestDB(t)
	err := db.SetListenerEnabled(context.Background(), listener.Protocol("carrier-pigeon"), true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryLogRetentionSweepDeletesOldRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertQueryLog(ctx, QueryLogRow{ClientIP: "127.0.0.1", QueryName: "a.test", QueryType: "A", ResponseTimeMs: 2}))

	n, err := db.DeleteQueryLogsOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
