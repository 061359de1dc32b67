package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/model/config"
	"github.com/secmon-lab/shepherd/pkg/repository/memory"
	"github.com/secmon-lab/shepherd/pkg/usecase"
	"github.com/secmon-lab/shepherd/pkg/utils/async"
	goslack "github.com/slack-go/slack"
)

type postedMessage struct {
	ActorID string
	Ref     model.MessageReference
	Text    string
	Blocks  []goslack.Block
}

type homeView struct {
	ActorID string
	View    goslack.HomeTabViewRequest
}

type mockMessenger struct {
	mu        sync.Mutex
	posted    []postedMessage
	ephemeral []postedMessage
	homes     []homeView
	modals    []goslack.ModalViewRequest
}

func (m *mockMessenger) PostMessage(ctx context.Context, ref model.MessageReference, blocks []goslack.Block, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, postedMessage{Ref: ref, Text: text, Blocks: blocks})
	return "999.000001", nil
}

func (m *mockMessenger) PostEphemeral(ctx context.Context, actorID string, ref model.MessageReference, blocks []goslack.Block, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ephemeral = append(m.ephemeral, postedMessage{ActorID: actorID, Ref: ref, Text: text, Blocks: blocks})
	return nil
}

func (m *mockMessenger) UpdateHomeView(ctx context.Context, actorID string, view goslack.HomeTabViewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.homes = append(m.homes, homeView{ActorID: actorID, View: view})
	return nil
}

func (m *mockMessenger) OpenView(ctx context.Context, triggerID string, view goslack.ModalViewRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modals = append(m.modals, view)
	return nil
}

func (m *mockMessenger) postedTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, len(m.posted))
	for i, p := range m.posted {
		texts[i] = p.Text
	}
	return texts
}

func (m *mockMessenger) lastHome() homeView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.homes[len(m.homes)-1]
}

type mockMembership struct {
	mu     sync.Mutex
	member bool
	err    error
	calls  int
}

func (m *mockMembership) IsMember(ctx context.Context, actorID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.member, m.err
}

type mockIssueTracker struct {
	mu     sync.Mutex
	titles []string
}

func (m *mockIssueTracker) CreateIssue(ctx context.Context, title, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	return "https://github.com/example/support/issues/1", nil
}

type mockThreadResolver struct {
	roots map[string]string
	calls int
}

func (m *mockThreadResolver) ThreadRoot(ctx context.Context, ref model.MessageReference) (model.MessageReference, error) {
	m.calls++
	root := model.MessageReference{ChannelID: ref.ChannelID, Timestamp: ref.Timestamp}
	if ts, ok := m.roots[ref.Timestamp]; ok {
		root.Timestamp = ts
	}
	return root, nil
}

type mockClassifier struct {
	result *model.Classification
	err    error
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (*model.Classification, error) {
	return m.result, m.err
}

type fixture struct {
	repo      *memory.Memory
	messenger *mockMessenger
	pool      *async.Pool
	uc        *usecase.UseCases
	now       time.Time
}

func testAppConfig() *config.App {
	app := config.DefaultApp()
	app.Channels = []string{"C1"}
	app.Reactions.Escalate = "rotating_light"
	app.Reactions.EscalateTeam = "infra"
	app.Teams = []config.Team{
		{ID: "infra", Name: "Infrastructure", UserGroupID: "S001"},
		{ID: "billing", Name: "Billing"},
	}
	app.HomePageSize = 10
	return app
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()

	f := &fixture{
		repo:      memory.New(),
		messenger: &mockMessenger{},
		pool:      async.NewPool(),
		now:       time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}

	base := []usecase.Option{
		usecase.WithAppConfig(testAppConfig()),
		usecase.WithPool(f.pool),
		usecase.WithClock(func() time.Time { return f.now }),
	}
	f.uc = usecase.New(f.repo, f.messenger, append(base, opts...)...)
	return f
}

func (f *fixture) advance(d time.Duration) time.Time {
	f.now = f.now.Add(d)
	return f.now
}

var c1Root = model.MessageReference{ChannelID: "C1", Timestamp: "100.000001"}

func (f *fixture) openTicket(t *testing.T, ref model.MessageReference) *model.Ticket {
	t.Helper()
	ev := model.NewMessagePosted("U100", ref, "VPN is down for the whole office", "")
	if err := f.uc.Ticket.HandleMessagePosted(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	ticket, err := f.repo.Ticket().FindByThread(context.Background(), ref)
	if err != nil || ticket == nil {
		t.Fatalf("ticket not created: %v", err)
	}
	return ticket
}
