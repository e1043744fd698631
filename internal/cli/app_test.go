package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bookclub/internal/config"
	"github.com/aretw0/bookclub/internal/logging"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.Admin.Email = "admin@club.com"
	cfg.Admin.Password = "s3cret"
	return cfg
}

var signupLines = strings.Join([]string{
	"", "Ana Souza", "30", "11987654321", "Gosto de ler", "1", "2", "3", "Leio todo dia",
}, "\n") + "\n"

func TestBuild_MemoryDefaults(t *testing.T) {
	ctx := context.Background()
	app, err := Build(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	var out bytes.Buffer
	require.NoError(t, app.RunFlow(ctx, RunOptions{
		SessionID: "term-1",
		Plain:     true,
		Quiet:     true,
		In:        strings.NewReader(signupLines),
		Out:       &out,
	}))
	assert.Contains(t, out.String(), "Obrigado!")

	sess, err := app.Admin.Login(ctx, "admin@club.com", "s3cret")
	require.NoError(t, err)
	recs, err := app.Admin.List(ctx, sess.Token)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "(11) 98765-4321", recs[0].Phone)
}

func TestBuild_RedisWithEncryption(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig(t)
	cfg.Sessions.Store = config.StoreRedis
	cfg.Sessions.Lock = true
	cfg.Sessions.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.Records.Store = config.StoreRedis

	app, err := Build(ctx, cfg, logging.NewNop(), WithRedisClient(client))
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Flows.Start(ctx, "r1")
	require.NoError(t, err)
	_, err = app.Flows.Advance(ctx, "r1")
	require.NoError(t, err)
	_, err = app.Flows.SetField(ctx, "r1", "full_name", "Ana Souza")
	require.NoError(t, err)

	raw, err := mr.Get("bookclub:session:r1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"sealed"`)
	assert.NotContains(t, raw, "Ana Souza", "answers are sealed at rest")

	v, err := app.Flows.View(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, "Ana Souza", v.Answers.FullName)

	require.NotNil(t, app.Activity)
	at, err := app.Activity.LastActivity(ctx, "r1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestBuild_RejectsBadScript(t *testing.T) {
	cfg := testConfig(t)
	cfg.Flow.Script = "does-not-exist.yaml"
	_, err := Build(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestApp_Handler(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer app.Close()

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/flows/h1", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Contains(t, body.String(), "bookclub_sessions_started_total 1")
}

func TestChatID(t *testing.T) {
	assert.Equal(t, int64(-100123), chatID("-100123"))
	assert.Equal(t, "@clubelivro", chatID("@clubelivro"))
}

func TestSignalContext_Cancel(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
