package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	chatbotrepo "chatlead_backend/internal/chatbots/repository"
	"chatlead_backend/internal/crm"
	"chatlead_backend/internal/dispatch"
	"chatlead_backend/internal/email"
	"chatlead_backend/internal/leads/domain"
	leadrepo "chatlead_backend/internal/leads/repository"
	"chatlead_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadSource struct {
	lead *leadrepo.Lead
}

func (f *fakeLeadSource) GetForDispatch(_ context.Context, id uuid.UUID) (*leadrepo.Lead, error) {
	if f.lead == nil || f.lead.ID != id {
		return nil, errors.New("lead not found")
	}
	return f.lead, nil
}

type fakeChatbotSource struct {
	bot *chatbotrepo.Chatbot
}

func (f *fakeChatbotSource) GetForDispatch(_ context.Context, id uuid.UUID) (*chatbotrepo.Chatbot, error) {
	if f.bot == nil || f.bot.ID != id {
		return nil, errors.New("chatbot not found")
	}
	return f.bot, nil
}

type fakeEmail struct {
	mu     sync.Mutex
	sent   []email.LeadAlert
	sendTo []string
	err    error
}

func (f *fakeEmail) SendLeadAlert(_ context.Context, to string, alert email.LeadAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, alert)
	f.sendTo = append(f.sendTo, to)
	return f.err
}

type fakeSMS struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSMS) SendMessage(_ context.Context, _, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return f.err
}

type fakeCRM struct {
	mu    sync.Mutex
	leads []crm.Lead
	res   crm.Result
}

func (f *fakeCRM) Forward(_ context.Context, _ *crm.Config, lead crm.Lead) crm.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.res
}

func strptr(s string) *string { return &s }

func fixture(category domain.Category) (*leadrepo.Lead, *chatbotrepo.Chatbot) {
	lead := &leadrepo.Lead{
		ID:        uuid.New(),
		ChatbotID: uuid.New(),
		UserID:    uuid.New(),
		Contact:   domain.Contact{Name: "Ayşe Yılmaz", Phone: "+905551234567"},
		Facts:     domain.Facts{Intent: domain.IntentBuy, Timeline: "this month"},
		Score:     90,
		Category:  category,
		Status:    domain.StatusNew,
		CreatedAt: time.Now(),
	}
	bot := &chatbotrepo.Chatbot{
		ID:                lead.ChatbotID,
		UserID:            lead.UserID,
		Name:              "Marina Homes",
		NotificationEmail: strptr("agent@example.com"),
		NotificationPhone: strptr("+905550000000"),
		CRM:               &crm.Config{Enabled: true, Provider: crm.ProviderGeneric, WebhookURL: "https://example.com/hook"},
	}
	return lead, bot
}

func payloadFor(lead *leadrepo.Lead, isNew bool) dispatch.LeadDispatchPayload {
	return dispatch.LeadDispatchPayload{
		LeadID:        lead.ID.String(),
		ChatbotID:     lead.ChatbotID.String(),
		IsNew:         isNew,
		Score:         lead.Score,
		Category:      string(lead.Category),
		ScoreImproved: isNew,
	}
}

func newTestDispatcher(lead *leadrepo.Lead, bot *chatbotrepo.Chatbot) (*Dispatcher, *fakeEmail, *fakeSMS, *fakeCRM) {
	emailFake := &fakeEmail{}
	smsFake := &fakeSMS{}
	crmFake := &fakeCRM{res: crm.Result{Success: true}}
	d := NewDispatcher(
		&fakeLeadSource{lead: lead},
		&fakeChatbotSource{bot: bot},
		emailFake,
		smsFake,
		crmFake,
		logger.New("test"),
	)
	return d, emailFake, smsFake, crmFake
}

func TestDispatch_HotLeadHitsAllChannels(t *testing.T) {
	lead, bot := fixture(domain.CategoryHot)
	d, emailFake, smsFake, crmFake := newTestDispatcher(lead, bot)

	if err := d.Dispatch(context.Background(), payloadFor(lead, true)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(emailFake.sent) != 1 {
		t.Fatalf("email sent %d times, want 1", len(emailFake.sent))
	}
	if emailFake.sendTo[0] != "agent@example.com" {
		t.Fatalf("email recipient = %q", emailFake.sendTo[0])
	}
	if len(smsFake.messages) != 1 {
		t.Fatalf("sms sent %d times, want 1", len(smsFake.messages))
	}
	if len(crmFake.leads) != 1 {
		t.Fatalf("crm forwarded %d times, want 1", len(crmFake.leads))
	}
	if crmFake.leads[0].ChatbotName != "Marina Homes" {
		t.Fatalf("crm lead chatbot name = %q", crmFake.leads[0].ChatbotName)
	}
}

func TestDispatch_WarmLeadSkipsSMS(t *testing.T) {
	lead, bot := fixture(domain.CategoryWarm)
	d, emailFake, smsFake, crmFake := newTestDispatcher(lead, bot)

	if err := d.Dispatch(context.Background(), payloadFor(lead, true)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(smsFake.messages) != 0 {
		t.Fatal("sms must be hot-only")
	}
	if len(emailFake.sent) != 1 || len(crmFake.leads) != 1 {
		t.Fatal("warm lead must still email and forward to crm")
	}
}

func TestDispatch_ImmaterialMergeSkipsEmailButKeepsSMSAndCRM(t *testing.T) {
	lead, bot := fixture(domain.CategoryHot)
	d, emailFake, smsFake, crmFake := newTestDispatcher(lead, bot)

	payload := payloadFor(lead, false)
	payload.ScoreImproved = false
	payload.NameChanged = false
	if err := d.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(emailFake.sent) != 0 {
		t.Fatal("merge without improvement must not email")
	}
	if len(smsFake.messages) != 1 {
		t.Fatal("hot leads re-alert over sms on every merge")
	}
	if len(crmFake.leads) != 1 {
		t.Fatal("crm forwarding is not gated on improvement")
	}
}

func TestDispatch_ImmaterialWarmMergeSendsNothingButCRM(t *testing.T) {
	lead, bot := fixture(domain.CategoryWarm)
	d, emailFake, smsFake, crmFake := newTestDispatcher(lead, bot)

	payload := payloadFor(lead, false)
	payload.ScoreImproved = false
	if err := d.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(emailFake.sent) != 0 || len(smsFake.messages) != 0 {
		t.Fatal("warm merge without improvement must stay silent")
	}
	if len(crmFake.leads) != 1 {
		t.Fatal("crm forwarding is not gated on improvement")
	}
}

func TestDispatch_DisabledCRMSkipsForwarding(t *testing.T) {
	lead, bot := fixture(domain.CategoryHot)
	bot.CRM = &crm.Config{Enabled: false}
	d, _, _, crmFake := newTestDispatcher(lead, bot)

	if err := d.Dispatch(context.Background(), payloadFor(lead, true)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(crmFake.leads) != 0 {
		t.Fatal("disabled crm must not be called")
	}
}

func TestDispatch_ChannelFailuresAreIsolated(t *testing.T) {
	lead, bot := fixture(domain.CategoryHot)
	d, emailFake, smsFake, crmFake := newTestDispatcher(lead, bot)
	emailFake.err = errors.New("smtp down")
	smsFake.err = errors.New("gateway down")

	if err := d.Dispatch(context.Background(), payloadFor(lead, true)); err != nil {
		t.Fatalf("channel failures must not fail the dispatch: %v", err)
	}
	if len(crmFake.leads) != 1 {
		t.Fatal("crm must still be attempted when email and sms fail")
	}
}

func TestDispatch_MissingRecipientsSkipSilently(t *testing.T) {
	lead, bot := fixture(domain.CategoryHot)
	bot.NotificationEmail = nil
	bot.NotificationPhone = nil
	bot.CRM = nil
	d, emailFake, smsFake, crmFake := newTestDispatcher(lead, bot)

	if err := d.Dispatch(context.Background(), payloadFor(lead, true)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(emailFake.sent)+len(smsFake.messages)+len(crmFake.leads) != 0 {
		t.Fatal("no channels should fire without recipients or crm config")
	}
}
