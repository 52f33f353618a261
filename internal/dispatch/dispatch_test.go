package dispatch

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testConfig struct {
	redisURL string
}

func (c testConfig) GetRedisURL() string         { return c.redisURL }
func (c testConfig) GetDispatchQueue() string    { return "dispatch-test" }
func (c testConfig) GetDispatchConcurrency() int { return 1 }

func TestEnqueueLeadDispatch(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := NewClient(testConfig{redisURL: "redis://" + mini.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	payload := LeadDispatchPayload{
		LeadID:    "11111111-1111-1111-1111-111111111111",
		ChatbotID: "22222222-2222-2222-2222-222222222222",
		IsNew:     true,
		Score:     90,
		Category:  "hot",
	}
	if err := client.EnqueueLeadDispatch(context.Background(), payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mini.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("dispatch-test")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskLeadDispatch {
		t.Fatalf("task type = %q", tasks[0].Type)
	}

	parsed, err := ParseLeadDispatchPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if parsed.LeadID != payload.LeadID || !parsed.IsNew || parsed.Category != "hot" {
		t.Fatalf("payload round-trip mismatch: %+v", parsed)
	}
}

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}
