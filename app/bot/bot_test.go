package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/aifit/coachbot/app/config"
	"github.com/aifit/coachbot/app/planner"
	"github.com/aifit/coachbot/app/service"
	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/telegram/state"
)

const (
	testTrainerID = int64(500)
	testClientID  = int64(100)
)

// outbound is one message pushed through the fake bot API.
type outbound struct {
	to   tele.Recipient
	text string
}

type fakeAPI struct {
	tele.API
	sent    []outbound
	edited  []string
	sendErr error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	text, _ := what.(string)
	f.sent = append(f.sent, outbound{to: to, text: text})
	return &tele.Message{ID: len(f.sent)}, nil
}

func (f *fakeAPI) Edit(_ tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	text, _ := what.(string)
	f.edited = append(f.edited, text)
	return &tele.Message{}, nil
}

func (f *fakeAPI) sentTo(id int64) []string {
	var out []string
	for _, m := range f.sent {
		if cid, ok := m.to.(tele.ChatID); ok && int64(cid) == id {
			out = append(out, m.text)
		}
	}
	return out
}

// fakeContext implements the slice of tele.Context the handlers touch.
// Calls to anything else panic through the embedded nil interface, which is
// exactly what a test should surface.
type fakeContext struct {
	tele.Context
	api    *fakeAPI
	sender *tele.User
	chat   *tele.Chat
	text   string
	msg    *tele.Message
	cb     *tele.Callback
	store  map[string]interface{}

	replies []string
	edits   []string
}

func newFakeContext(api *fakeAPI, userID, chatID int64, text string) *fakeContext {
	return &fakeContext{
		api:    api,
		sender: &tele.User{ID: userID, Username: "ivan_fit"},
		chat:   &tele.Chat{ID: chatID},
		text:   text,
		msg:    &tele.Message{ID: 42, Chat: &tele.Chat{ID: chatID}},
		store:  map[string]interface{}{},
	}
}

func (f *fakeContext) Bot() tele.API          { return f.api }
func (f *fakeContext) Sender() *tele.User     { return f.sender }
func (f *fakeContext) Chat() *tele.Chat       { return f.chat }
func (f *fakeContext) Text() string           { return f.text }
func (f *fakeContext) Message() *tele.Message   { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }

func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, val interface{}) {
	f.store[key] = val
}

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	text, _ := what.(string)
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	text, _ := what.(string)
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeContext) lastReply() string {
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}

type memAnketaStore struct {
	rows      []*storage.Anketa
	insertErr error
}

func (m *memAnketaStore) Insert(_ context.Context, a *storage.Anketa) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	id := int64(len(m.rows) + 1)
	a.ID = id
	m.rows = append(m.rows, a)
	return id, nil
}

func (m *memAnketaStore) LastGlobal(context.Context) (*storage.Anketa, error) {
	if len(m.rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return m.rows[len(m.rows)-1], nil
}

func (m *memAnketaStore) LastByUser(_ context.Context, userID int64) (*storage.Anketa, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			return m.rows[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

type memPlanStore struct {
	rows []*storage.Plan
}

func (m *memPlanStore) Insert(_ context.Context, p *storage.Plan) (int64, error) {
	id := int64(len(m.rows) + 1)
	p.ID = id
	m.rows = append(m.rows, p)
	return id, nil
}

func (m *memPlanStore) LastByUser(_ context.Context, userID int64) (*storage.Plan, error) {
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			return m.rows[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

type fakeGen struct {
	plan     string
	err      error
	genCalls int
	edits    []string
}

func (g *fakeGen) Generate(context.Context, *storage.Anketa) (string, error) {
	g.genCalls++
	if g.err != nil {
		return "", g.err
	}
	return g.plan, nil
}

func (g *fakeGen) GenerateWithEdit(_ context.Context, _ *storage.Anketa, feedback string) (string, error) {
	if feedback == "" || feedback == "+" {
		return "", planner.ErrFeedbackRequired
	}
	g.edits = append(g.edits, feedback)
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("%s [revised: %s]", g.plan, feedback), nil
}

type testEnv struct {
	bot     *Bot
	api     *fakeAPI
	anketas *memAnketaStore
	plans   *memPlanStore
	gen     *fakeGen
}

func newTestBot(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Trainer: config.TrainerConfig{ChatID: testTrainerID},
	}
	anketas := &memAnketaStore{}
	plans := &memPlanStore{}
	gen := &fakeGen{plan: "PLAN"}

	b := New(cfg, state.NewMemoryManager(), service.NewAnketaService(anketas), service.NewPlanService(plans), gen)
	b.registerIntakeStates()

	return &testEnv{
		bot:     b,
		api:     &fakeAPI{},
		anketas: anketas,
		plans:   plans,
		gen:     gen,
	}
}

func (e *testEnv) clientCtx(text string) *fakeContext {
	return newFakeContext(e.api, testClientID, testClientID, text)
}

func (e *testEnv) trainerCtx(text string) *fakeContext {
	c := newFakeContext(e.api, testTrainerID, testTrainerID, text)
	c.sender.Username = "coach"
	return c
}

// TestTelegramRunOptionsWiring walks the real registration path: every
// command and callback must come back as a route, and hidden commands must
// stay out of the visible menu pushed to Telegram.
func TestTelegramRunOptionsWiring(t *testing.T) {
	e := newTestBot(t)

	opts, err := e.bot.TelegramRunOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.Registry)

	endpoints := make(map[interface{}]bool, len(opts.Routes))
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	assert.True(t, endpoints["/start"], "/start must be routed")
	assert.True(t, endpoints["/check_plan"], "/check_plan must be routed")
	assert.True(t, endpoints[tele.OnText], "text fallback must be routed")
	assert.True(t, endpoints[tele.OnCallback], "callbacks must be routed")

	visible := opts.Registry.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "/start", visible[0].Text)
	assert.Len(t, opts.Registry.ListCommands(false), 2)

	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Contains(t, names, "session")
}

// seedAnketa stores a completed questionnaire directly.
func (e *testEnv) seedAnketa() *storage.Anketa {
	a := &storage.Anketa{
		UserID: testClientID, Username: "ivan_fit", Name: "Ivan",
		Age: 30, Height: 180, Weight: 80,
		Goals: "muscle gain", Injuries: "none",
	}
	_, _ = e.anketas.Insert(context.Background(), a)
	return a
}
