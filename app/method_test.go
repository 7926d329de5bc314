package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/artpar/scoreapi/adapters/clock"
	"github.com/artpar/scoreapi/adapters/hasher"
	"github.com/artpar/scoreapi/adapters/memory"
	"github.com/artpar/scoreapi/app"
	"github.com/artpar/scoreapi/domain/auth"
	"github.com/artpar/scoreapi/domain/rpc"
	"github.com/artpar/scoreapi/domain/scoring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecrets = auth.Secrets{Salt: "Otus", AdminLogin: "admin", AdminSalt: "42"}

type methodFixture struct {
	svc     *app.MethodService
	scoring *app.ScoringService
	kv      *memory.KVStore
	clock   *clock.Fake
}

func newTestMethodService() *methodFixture {
	c := clock.NewFake(baseTime)
	kv := memory.NewKVStore(c)
	store := app.NewStoreService(app.StoreDeps{Backend: kv, Sleeper: c}, app.DefaultRetryPolicy(), zerolog.Nop())
	sc := app.NewScoringService(store, time.Hour, zerolog.Nop())
	svc := app.NewMethodService(app.MethodDeps{
		Clock:  c,
		Digest: hasher.SHA512{},
		Scorer: sc,
	}, app.MethodConfig{Secrets: testSecrets}, zerolog.Nop())
	return &methodFixture{svc: svc, scoring: sc, kv: kv, clock: c}
}

// withAuth sets a valid token on req, like a well-behaved client would.
func (f *methodFixture) withAuth(req map[string]any) map[string]any {
	account, _ := req["account"].(string)
	login, _ := req["login"].(string)
	req["token"] = auth.ExpectedToken(
		auth.Credentials{Account: account, Login: login},
		testSecrets, f.clock.Now(), hasher.SHA512{}.Sum,
	)
	return req
}

// decode parses a JSON document the way the HTTP adapter does.
func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(stringReader(doc))
	dec.UseNumber()
	var body map[string]any
	require.NoError(t, dec.Decode(&body))
	return body
}

func TestMethodService_EmptyRequest(t *testing.T) {
	f := newTestMethodService()

	out := f.svc.Handle(context.Background(), map[string]any{}, rpc.NewContext("r1"))

	assert.Equal(t, rpc.InvalidRequest, out.Code())
	assert.Equal(t, "method_request", out.InvalidSchema)
	for _, field := range []string{"login", "token", "arguments", "method"} {
		assert.Contains(t, out.Error.Message, field)
	}
}

func TestMethodService_BadAuth(t *testing.T) {
	f := newTestMethodService()
	cases := []map[string]any{
		{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "", "arguments": map[string]any{}},
		{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "sdd", "arguments": map[string]any{}},
		{"account": "horns&hoofs", "login": "admin", "method": "online_score", "token": "", "arguments": map[string]any{}},
	}

	for _, req := range cases {
		out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))
		assert.Equal(t, rpc.Forbidden, out.Code(), "request %v", req)
		assert.NotEmpty(t, out.AuthFailure)
	}
}

func TestMethodService_UnknownMethodIsForbidden(t *testing.T) {
	f := newTestMethodService()
	req := f.withAuth(map[string]any{
		"account": "horns&hoofs", "login": "h&f", "method": "delete_everything",
		"arguments": map[string]any{},
	})

	out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))

	assert.Equal(t, rpc.Forbidden, out.Code())
	assert.Equal(t, app.ReasonUnknownMethod, out.AuthFailure)
	assert.Equal(t, "delete_everything", out.Method)
}

func TestMethodService_Known(t *testing.T) {
	f := newTestMethodService()

	assert.True(t, f.svc.Known("online_score"))
	assert.True(t, f.svc.Known("clients_interests"))
	assert.False(t, f.svc.Known("delete_everything"))
	assert.False(t, f.svc.Known(""))
}

func TestMethodService_InvalidEnvelopeTypes(t *testing.T) {
	f := newTestMethodService()
	cases := []map[string]any{
		{"account": "horns&hoofs", "login": "h&f", "method": "online_score"},
		{"account": "horns&hoofs", "login": "h&f", "arguments": map[string]any{}},
		{"account": "horns&hoofs", "method": "online_score", "arguments": map[string]any{}},
		{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "arguments": []any{}},
		{"account": "horns&hoofs", "login": "h&f", "method": "", "arguments": map[string]any{}},
	}

	for _, req := range cases {
		f.withAuth(req)
		out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))
		assert.Equal(t, rpc.InvalidRequest, out.Code(), "request %v", req)
	}
}

func TestMethodService_OnlineScore_InvalidArguments(t *testing.T) {
	f := newTestMethodService()
	cases := []map[string]any{
		{},
		{"phone": "79175002040"},
		{"phone": "89175002040", "email": "stupnikov@otus.ru"},
		{"phone": "79175002040", "email": "stupnikovotus.ru"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": json.Number("-1")},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": "1"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": json.Number("1"), "birthday": "01.01.1890"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": json.Number("1"), "birthday": "XXX"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": json.Number("1"), "birthday": "01.01.2000", "first_name": json.Number("1")},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": json.Number("1"), "birthday": "01.01.2000", "first_name": "s", "last_name": json.Number("2")},
		{"phone": "79175002040", "birthday": "01.01.2000", "first_name": "s"},
		{"email": "stupnikov@otus.ru", "gender": json.Number("1"), "last_name": json.Number("2")},
	}

	for _, args := range cases {
		req := f.withAuth(map[string]any{
			"account": "horns&hoofs", "login": "h&f", "method": "online_score", "arguments": args,
		})
		out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))
		assert.Equal(t, rpc.InvalidRequest, out.Code(), "arguments %v", args)
		assert.Equal(t, "online_score", out.InvalidSchema, "arguments %v", args)
		assert.NotEmpty(t, out.Error.Message)
	}
}

func TestMethodService_OnlineScore_GatingListsUnmetFields(t *testing.T) {
	f := newTestMethodService()
	req := f.withAuth(map[string]any{
		"account": "horns&hoofs", "login": "h&f", "method": "online_score",
		"arguments": map[string]any{"first_name": "a"},
	})

	out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))

	require.Equal(t, rpc.InvalidRequest, out.Code())
	assert.Equal(t, "Invalid fields: last_name, email, phone, birthday, gender", out.Error.Message)
}

func TestMethodService_OnlineScore_GatingListsSuppliedEmptyFields(t *testing.T) {
	f := newTestMethodService()
	rctx := rpc.NewContext("r")
	req := f.withAuth(map[string]any{
		"account": "horns&hoofs", "login": "h&f", "method": "online_score",
		"arguments": map[string]any{"first_name": "a", "last_name": "", "gender": 0},
	})

	out := f.svc.Handle(context.Background(), req, rctx)

	require.Equal(t, rpc.InvalidRequest, out.Code())
	// An empty last_name passes validation but does not complete its pair.
	assert.Equal(t, "Invalid fields: last_name, email, phone, birthday", out.Error.Message)
	has, _ := rctx.Get("has")
	assert.Equal(t, []string{"first_name", "gender"}, has)
}

func TestMethodService_OnlineScore_OK(t *testing.T) {
	f := newTestMethodService()
	cases := []struct {
		args  map[string]any
		score float64
		has   []string
	}{
		{map[string]any{"phone": "79175002040", "email": "stupnikov@otus.ru"}, 3.0, []string{"email", "phone"}},
		{map[string]any{"phone": json.Number("79175002040"), "email": "stupnikov@otus.ru"}, 3.0, []string{"email", "phone"}},
		{map[string]any{"gender": json.Number("1"), "birthday": "01.01.2000", "first_name": "a", "last_name": "b"}, 2.0, []string{"first_name", "last_name", "birthday", "gender"}},
		{map[string]any{"gender": json.Number("0"), "birthday": "01.01.2000"}, 1.5, []string{"birthday", "gender"}},
		{map[string]any{"gender": json.Number("2"), "birthday": "01.01.2000"}, 1.5, []string{"birthday", "gender"}},
		{map[string]any{"first_name": "a", "last_name": "b"}, 0.5, []string{"first_name", "last_name"}},
		{map[string]any{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": json.Number("1"),
			"birthday": "01.01.2000", "first_name": "a", "last_name": "b"}, 5.0,
			[]string{"first_name", "last_name", "email", "phone", "birthday", "gender"}},
	}

	for _, tc := range cases {
		req := f.withAuth(map[string]any{
			"account": "horns&hoofs", "login": "h&f", "method": "online_score", "arguments": tc.args,
		})
		rctx := rpc.NewContext("r")

		out := f.svc.Handle(context.Background(), req, rctx)

		require.Equal(t, rpc.OK, out.Code(), "arguments %v: %v", tc.args, out.Error)
		assert.Equal(t, map[string]any{"score": tc.score}, out.Response, "arguments %v", tc.args)
		has, _ := rctx.Get("has")
		assert.Equal(t, tc.has, has, "arguments %v", tc.args)
	}
}

func TestMethodService_OnlineScore_Admin(t *testing.T) {
	f := newTestMethodService()
	req := f.withAuth(map[string]any{
		"account": "horns&hoofs", "login": "admin", "method": "online_score",
		"arguments": map[string]any{},
	})
	rctx := rpc.NewContext("r")

	out := f.svc.Handle(context.Background(), req, rctx)

	require.Equal(t, rpc.OK, out.Code())
	assert.Equal(t, map[string]any{"score": 42}, out.Response)
	has, ok := rctx.Get("has")
	assert.True(t, ok)
	assert.Empty(t, has)
	assert.Zero(t, f.kv.Len(), "admin path should not touch the store")
}

func TestMethodService_OnlineScore_AdminTokenExpiresWithHour(t *testing.T) {
	f := newTestMethodService()
	req := f.withAuth(map[string]any{
		"login": "admin", "method": "online_score", "arguments": map[string]any{},
	})

	f.clock.Advance(time.Hour)
	out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))

	assert.Equal(t, rpc.Forbidden, out.Code())
}

func TestMethodService_OnlineScore_AdminStillValidatesArguments(t *testing.T) {
	f := newTestMethodService()
	req := f.withAuth(map[string]any{
		"login": "admin", "method": "online_score",
		"arguments": map[string]any{"phone": "123"},
	})

	out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))

	assert.Equal(t, rpc.InvalidRequest, out.Code())
}

func TestMethodService_ClientsInterests_Invalid(t *testing.T) {
	f := newTestMethodService()
	cases := []map[string]any{
		{},
		{"date": "20.07.2017"},
		{"client_ids": []any{}, "date": "20.07.2017"},
		{"client_ids": map[string]any{"1": json.Number("2")}, "date": "20.07.2017"},
		{"client_ids": []any{"1", "2"}, "date": "20.07.2017"},
		{"client_ids": []any{json.Number("1"), json.Number("2")}, "date": "XXX"},
	}

	for _, args := range cases {
		req := f.withAuth(map[string]any{
			"account": "horns&hoofs", "login": "h&f", "method": "clients_interests", "arguments": args,
		})
		out := f.svc.Handle(context.Background(), req, rpc.NewContext("r"))
		assert.Equal(t, rpc.InvalidRequest, out.Code(), "arguments %v", args)
		assert.Equal(t, "clients_interests", out.InvalidSchema)
	}
}

func TestMethodService_ClientsInterests_OK(t *testing.T) {
	f := newTestMethodService()
	ctx := context.Background()
	_, err := f.scoring.SetInterests(ctx, 1, []string{"books", "hi-tech"})
	require.NoError(t, err)

	body := decode(t, `{"account":"horns&hoofs","login":"h&f","method":"clients_interests",
		"arguments":{"client_ids":[1,2,3,2],"date":"19.07.2017"}}`)
	f.withAuth(body)
	rctx := rpc.NewContext("r")

	out := f.svc.Handle(ctx, body, rctx)

	require.Equal(t, rpc.OK, out.Code(), "%v", out.Error)
	resp, ok := out.Response.(map[string]any)
	require.True(t, ok)
	assert.Len(t, resp, 3)
	assert.Equal(t, []any{"books", "hi-tech"}, resp["1"])
	assert.Equal(t, []any{}, resp["2"])
	assert.Equal(t, []any{}, resp["3"])
	nclients, _ := rctx.Get("nclients")
	assert.Equal(t, 4, nclients)
}

func TestMethodService_ClientsInterests_CorruptEntryIsInternalError(t *testing.T) {
	f := newTestMethodService()
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, scoring.InterestsKey(9), "{broken", 0))

	req := f.withAuth(map[string]any{
		"account": "horns&hoofs", "login": "h&f", "method": "clients_interests",
		"arguments": map[string]any{"client_ids": []any{json.Number("9")}},
	})

	out := f.svc.Handle(ctx, req, rpc.NewContext("r"))

	assert.Equal(t, rpc.InternalError, out.Code())
	assert.Equal(t, "Internal Server Error", out.Error.Message)
}

func TestMethodService_NilContext(t *testing.T) {
	f := newTestMethodService()
	req := f.withAuth(map[string]any{
		"login": "admin", "method": "online_score", "arguments": map[string]any{},
	})

	out := f.svc.Handle(context.Background(), req, nil)

	assert.Equal(t, rpc.OK, out.Code())
}

func stringReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
