// Package dispatch queues lead notification fan-out onto asynq so the intake
// request never waits on email, SMS, or CRM delivery.
package dispatch

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadDispatch = "leads.dispatch"

// LeadDispatchPayload mirrors the LeadCaptured event. Carrying the delivery
// decision inputs in the task keeps the worker from re-deriving them.
type LeadDispatchPayload struct {
	LeadID        string `json:"leadId"`
	ChatbotID     string `json:"chatbotId"`
	IsNew         bool   `json:"isNew"`
	Score         int    `json:"score"`
	Category      string `json:"category"`
	ScoreImproved bool   `json:"scoreImproved"`
	NameChanged   bool   `json:"nameChanged"`
}

func NewLeadDispatchTask(payload LeadDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadDispatch, data), nil
}

func ParseLeadDispatchPayload(task *asynq.Task) (LeadDispatchPayload, error) {
	var payload LeadDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadDispatchPayload{}, err
	}
	return payload, nil
}
