package service

import (
	"context"
	"testing"
	"time"

	chatbotrepo "chatlead_backend/internal/chatbots/repository"
	appevents "chatlead_backend/internal/events"
	"chatlead_backend/internal/leads/analyzer"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/repository"
	"chatlead_backend/internal/leads/scoring"
	"chatlead_backend/internal/leads/transport"
	"chatlead_backend/platform/apperr"
	"chatlead_backend/platform/events"
	"chatlead_backend/platform/validator"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository that mirrors the SQL merge semantics.
type fakeRepo struct {
	leads map[uuid.UUID]*repository.Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeRepo) FindRecentByPhone(_ context.Context, chatbotID uuid.UUID, phone string, cutoff time.Time) (*repository.Lead, error) {
	var newest *repository.Lead
	for _, lead := range f.leads {
		if lead.ChatbotID != chatbotID || lead.Contact.Phone != phone {
			continue
		}
		if !lead.CreatedAt.After(cutoff) {
			continue
		}
		if newest == nil || lead.CreatedAt.After(newest.CreatedAt) {
			newest = lead
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (f *fakeRepo) Create(_ context.Context, lead *repository.Lead) error {
	lead.ID = uuid.New()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	cp := *lead
	f.leads[lead.ID] = &cp
	return nil
}

func (f *fakeRepo) Merge(_ context.Context, id uuid.UUID, contact domain.Contact, facts domain.Facts, score int, category domain.Category, analysis *analyzer.Summary, conversationID, notes string) (*repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	lead.Contact.Name = contact.Name
	if contact.Email != nil {
		lead.Contact.Email = contact.Email
	}
	lead.Facts = facts
	if score >= lead.Score {
		lead.Category = category
		lead.Analysis = analysis
	}
	if score > lead.Score {
		lead.Score = score
	}
	if conversationID != "" {
		lead.ConversationID = conversationID
	}
	if notes != "" {
		if lead.Notes == "" {
			lead.Notes = notes
		} else {
			lead.Notes += "\n\n" + notes
		}
	}
	lead.UpdatedAt = time.Now()
	cp := *lead
	return &cp, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.UserID != userID {
		return nil, apperr.NotFound("lead not found")
	}
	cp := *lead
	return &cp, nil
}

// List mirrors the SQL behavior: items honor the filter, category counts
// cover the whole tenant.
func (f *fakeRepo) List(_ context.Context, userID uuid.UUID, filter repository.ListFilter) ([]repository.Lead, int, repository.CategoryCounts, error) {
	var out []repository.Lead
	var counts repository.CategoryCounts
	for _, lead := range f.leads {
		if lead.UserID != userID {
			continue
		}
		switch lead.Category {
		case domain.CategoryHot:
			counts.Hot++
		case domain.CategoryWarm:
			counts.Warm++
		default:
			counts.Cold++
		}
		if filter.Category != "" && lead.Category != filter.Category {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		out = append(out, *lead)
	}
	return out, len(out), counts, nil
}

func (f *fakeRepo) Update(_ context.Context, id, userID uuid.UUID, params repository.UpdateParams) (*repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.UserID != userID {
		return nil, apperr.NotFound("lead not found")
	}
	if params.Status != "" {
		lead.Status = params.Status
	}
	if params.Notes != nil {
		lead.Notes = *params.Notes
	}
	if params.Appointment.Date != nil {
		lead.Appointment.Date = params.Appointment.Date
	}
	if params.Appointment.Time != nil {
		lead.Appointment.Time = params.Appointment.Time
	}
	if params.Appointment.Note != nil {
		lead.Appointment.Note = params.Appointment.Note
	}
	cp := *lead
	return &cp, nil
}

type fakeResolver struct {
	bot *chatbotrepo.Chatbot
}

func (f *fakeResolver) ResolveByPublicKey(_ context.Context, key string) (*chatbotrepo.Chatbot, error) {
	if f.bot == nil || f.bot.PublicKey != key {
		return nil, apperr.NotFound("chatbot not found")
	}
	return f.bot, nil
}

// captureBus records published events synchronously.
type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

type tiers struct{}

func (tiers) GetBudgetTiers() (int64, int64, int64) { return 20_000_000, 10_000_000, 5_000_000 }

func newTestService(t *testing.T) (*Service, *fakeRepo, *captureBus, *chatbotrepo.Chatbot) {
	t.Helper()
	repo := newFakeRepo()
	bus := &captureBus{}
	bot := &chatbotrepo.Chatbot{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      "Marina Homes",
		PublicKey: "pk_test_12345678",
	}
	svc := New(repo, &fakeResolver{bot: bot}, scoring.NewEngine(tiers{}), bus, validator.New())
	return svc, repo, bus, bot
}

func submitReq(phone string) transport.SubmitLeadRequest {
	budget := int64(6_000_000)
	pre := true
	return transport.SubmitLeadRequest{
		ChatbotKey:     "pk_test_12345678",
		ConversationID: "conv-1",
		Contact: transport.ContactPayload{
			Name:  "Ayşe Yılmaz",
			Phone: phone,
		},
		Facts: transport.FactsPayload{
			Intent:         "buy",
			Timeline:       "this month",
			BudgetMax:      &budget,
			HasPreApproval: &pre,
		},
	}
}

func TestSubmit_CreatesNewLead(t *testing.T) {
	svc, repo, bus, bot := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("0555 123 45 67"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.IsNew {
		t.Fatal("first submission must not merge")
	}
	if resp.Score != 90 || resp.Category != "hot" {
		t.Fatalf("score = %d %s, want 90 hot", resp.Score, resp.Category)
	}

	lead := repo.leads[resp.Lead.ID]
	if lead == nil {
		t.Fatal("lead not persisted")
	}
	if lead.Contact.Phone != "+905551234567" {
		t.Fatalf("phone not normalized: %q", lead.Contact.Phone)
	}
	if lead.UserID != bot.UserID {
		t.Fatal("lead not scoped to chatbot owner")
	}
	if lead.Status != domain.StatusNew {
		t.Fatalf("status = %s", lead.Status)
	}
	if lead.Analysis == nil {
		t.Fatal("analysis missing")
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	captured, ok := bus.published[0].(appevents.LeadCaptured)
	if !ok {
		t.Fatalf("unexpected event %T", bus.published[0])
	}
	if !captured.IsNew || captured.LeadID != resp.Lead.ID || captured.Category != "hot" {
		t.Fatalf("unexpected event payload %+v", captured)
	}
}

func TestSubmit_DefaultsSourceToChatbot(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := repo.leads[resp.Lead.ID].Source; got != domain.SourceChatbot {
		t.Fatalf("source = %q, want %q", got, domain.SourceChatbot)
	}

	custom := submitReq("+905557654321")
	custom.Source = "landing-page"
	resp, err = svc.Submit(context.Background(), custom)
	if err != nil {
		t.Fatalf("submit with source: %v", err)
	}
	if got := repo.leads[resp.Lead.ID].Source; got != "landing-page" {
		t.Fatalf("explicit source overwritten: %q", got)
	}
}

func TestSubmit_MergesWithinWindow(t *testing.T) {
	svc, repo, bus, _ := newTestService(t)

	first, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Weaker repeat: no timeline, no pre-approval. The lead must keep the
	// stronger stored score and category.
	weak := submitReq("+90 555 123 4567")
	weak.Facts = transport.FactsPayload{Intent: "buy"}
	second, err := svc.Submit(context.Background(), weak)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.IsNew {
		t.Fatal("repeat within window must merge")
	}
	if second.Lead.ID != first.Lead.ID {
		t.Fatal("merge must keep the original lead id")
	}
	if second.Score < first.Score {
		t.Fatalf("score regressed: %d -> %d", first.Score, second.Score)
	}
	if len(repo.leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(repo.leads))
	}

	last, ok := bus.published[len(bus.published)-1].(appevents.LeadCaptured)
	if !ok {
		t.Fatalf("unexpected event %T", bus.published[len(bus.published)-1])
	}
	if last.IsNew {
		t.Fatal("merge must not report a new lead")
	}
	if last.ScoreImproved {
		t.Fatal("weaker repeat must not report an improved score")
	}
}

func TestSubmit_MergeImprovesScore(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	weak := submitReq("+905551234567")
	weak.Facts = transport.FactsPayload{Intent: "buy"}
	first, err := svc.Submit(context.Background(), weak)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Category == "hot" {
		t.Fatalf("setup: weak lead should not be hot, got %d", first.Score)
	}

	second, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.IsNew {
		t.Fatal("expected merge")
	}
	if second.Score != 90 || second.Category != "hot" {
		t.Fatalf("merged score = %d %s, want 90 hot", second.Score, second.Category)
	}

	lead := repo.leads[second.Lead.ID]
	if lead.Facts.Timeline != "this month" {
		t.Fatal("combined facts missing fresh timeline")
	}
}

func TestSubmit_OutsideWindowCreatesNewLead(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	first, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Age the stored lead past the dedup window.
	repo.leads[first.Lead.ID].CreatedAt = time.Now().Add(-DedupWindow - time.Minute)

	second, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.IsNew {
		t.Fatal("submission outside the window must create a new lead")
	}
	if len(repo.leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(repo.leads))
	}
}

func TestSubmit_JustInsideWindowMerges(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	first, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	repo.leads[first.Lead.ID].CreatedAt = time.Now().Add(-DedupWindow + time.Minute)

	second, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.IsNew {
		t.Fatal("submission just inside the window must merge")
	}
}

func TestSubmit_ValidationFailure(t *testing.T) {
	svc, _, bus, _ := newTestService(t)

	req := submitReq("+905551234567")
	req.Contact.Name = ""
	_, err := svc.Submit(context.Background(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatal("invalid submission must not publish events")
	}
}

func TestSubmit_UnnormalizablePhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), submitReq("not-a-phone"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmit_UnknownChatbotKey(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := submitReq("+905551234567")
	req.ChatbotKey = "pk_unknown_9999"
	_, err := svc.Submit(context.Background(), req)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestList_CategoryFilterKeepsTenantWideCounts(t *testing.T) {
	svc, _, _, bot := newTestService(t)

	if _, err := svc.Submit(context.Background(), submitReq("+905551234567")); err != nil {
		t.Fatalf("hot submit: %v", err)
	}
	weak := submitReq("+905557654321")
	weak.Facts = transport.FactsPayload{Intent: "buy"}
	if _, err := svc.Submit(context.Background(), weak); err != nil {
		t.Fatalf("weak submit: %v", err)
	}

	resp, err := svc.List(context.Background(), bot.UserID, transport.ListLeadsRequest{Category: "hot"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Category != "hot" {
		t.Fatalf("filtered items = %+v", resp.Items)
	}
	if resp.Counts.Hot != 1 || resp.Counts.Hot+resp.Counts.Warm+resp.Counts.Cold != 2 {
		t.Fatalf("counts must span the tenant, got %+v", resp.Counts)
	}
}

func TestUpdate_TerminalStatusRejected(t *testing.T) {
	svc, repo, _, bot := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	repo.leads[resp.Lead.ID].Status = domain.StatusLost

	_, err = svc.Update(context.Background(), resp.Lead.ID, bot.UserID, transport.UpdateLeadRequest{Status: "contacted"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdate_PublishesStatusChange(t *testing.T) {
	svc, _, bus, bot := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	updated, err := svc.Update(context.Background(), resp.Lead.ID, bot.UserID, transport.UpdateLeadRequest{Status: "contacted"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "contacted" {
		t.Fatalf("status = %s", updated.Status)
	}

	last := bus.published[len(bus.published)-1]
	if last.EventName() != "leads.lead.status_changed" {
		t.Fatalf("expected status change event, got %s", last.EventName())
	}
}

func TestUpdate_SetsAppointment(t *testing.T) {
	svc, _, _, bot := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	date := "2026-09-15"
	slot := "14:30"
	note := "Viewing at the office"
	updated, err := svc.Update(context.Background(), resp.Lead.ID, bot.UserID, transport.UpdateLeadRequest{
		AppointmentDate: &date,
		AppointmentTime: &slot,
		AppointmentNote: &note,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Appointment == nil {
		t.Fatal("appointment missing from response")
	}
	if *updated.Appointment.Date != date || *updated.Appointment.Time != slot {
		t.Fatalf("appointment = %+v", *updated.Appointment)
	}
	if updated.Status != "new" {
		t.Fatalf("appointment update must not touch status, got %s", updated.Status)
	}
}

func TestUpdate_RejectsMalformedAppointmentDate(t *testing.T) {
	svc, _, _, bot := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	date := "15/09/2026"
	_, err = svc.Update(context.Background(), resp.Lead.ID, bot.UserID, transport.UpdateLeadRequest{
		AppointmentDate: &date,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGet_OtherUsersLeadIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.Submit(context.Background(), submitReq("+905551234567"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Get(context.Background(), resp.Lead.ID, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
