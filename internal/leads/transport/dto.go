// Package transport defines the lead intake and query DTOs.
package transport

import (
	"time"

	"chatlead_backend/internal/leads/analyzer"
	"chatlead_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SubmitLeadRequest is the body the chatbot widget posts when a conversation
// yields a contactable prospect. The chatbot key identifies the tenant; the
// endpoint itself is unauthenticated.
type SubmitLeadRequest struct {
	ChatbotKey     string `json:"chatbotKey" validate:"required,min=8,max=128"`
	ConversationID string `json:"conversationId" validate:"omitempty,max=128"`

	Contact ContactPayload `json:"contact" validate:"required"`
	Facts   FactsPayload   `json:"facts"`

	Notes  string `json:"notes" validate:"omitempty,max=4000"`
	Source string `json:"source" validate:"omitempty,max=64"`
}

// ContactPayload carries the prospect's contact details. Phone is the one
// hard requirement; it becomes the dedup key after normalization.
type ContactPayload struct {
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	Phone string  `json:"phone" validate:"required,min=7,max=30"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

// FactsPayload mirrors domain.Facts on the wire with validation tags.
type FactsPayload struct {
	Intent         string              `json:"intent" validate:"omitempty,oneof=buy rent sell value tenant"`
	PropertyType   string              `json:"propertyType" validate:"omitempty,max=100"`
	Purpose        string              `json:"purpose" validate:"omitempty,oneof=investment residence"`
	Budget         string              `json:"budget" validate:"omitempty,max=200"`
	BudgetMin      *int64              `json:"budgetMin" validate:"omitempty,min=0"`
	BudgetMax      *int64              `json:"budgetMax" validate:"omitempty,min=0"`
	Location       string              `json:"location" validate:"omitempty,max=200"`
	Timeline       string              `json:"timeline" validate:"omitempty,max=200"`
	HasPreApproval *bool               `json:"hasPreApproval"`
	Requirements   domain.Requirements `json:"requirements"`
}

// ToDomain converts the wire facts into domain facts.
func (p FactsPayload) ToDomain() domain.Facts {
	return domain.Facts{
		Intent:         domain.Intent(p.Intent),
		PropertyType:   p.PropertyType,
		Purpose:        domain.Purpose(p.Purpose),
		Budget:         p.Budget,
		BudgetMin:      p.BudgetMin,
		BudgetMax:      p.BudgetMax,
		Location:       p.Location,
		Timeline:       p.Timeline,
		HasPreApproval: p.HasPreApproval,
		Requirements:   p.Requirements,
	}
}

// SubmitLeadResponse tells the widget what happened to the submission.
// Repeats inside the merge window return the surviving lead with isNew=false.
type SubmitLeadResponse struct {
	Lead     LeadResponse `json:"lead"`
	IsNew    bool         `json:"isNew"`
	Score    int          `json:"score"`
	Category string       `json:"category"`
	Message  string       `json:"message"`
}

// LeadResponse is the agent-facing lead view.
type LeadResponse struct {
	ID             uuid.UUID         `json:"id"`
	ChatbotID      uuid.UUID         `json:"chatbotId"`
	ConversationID string            `json:"conversationId,omitempty"`
	Contact        domain.Contact    `json:"contact"`
	Facts          domain.Facts      `json:"facts"`
	Score          int               `json:"score"`
	Category       string            `json:"category"`
	Status         string            `json:"status"`
	Analysis       *analyzer.Summary `json:"analysis,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Source         string            `json:"source,omitempty"`
	Appointment    *Appointment      `json:"appointment,omitempty"`
	ContactedAt    *time.Time        `json:"contactedAt,omitempty"`
	ConvertedAt    *time.Time        `json:"convertedAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Appointment is the scheduled follow-up slot, present once an agent sets
// any of its fields.
type Appointment struct {
	Date *string `json:"date,omitempty"`
	Time *string `json:"time,omitempty"`
	Note *string `json:"note,omitempty"`
}

// ListLeadsRequest captures the query parameters of the lead list endpoint.
type ListLeadsRequest struct {
	ChatbotID *uuid.UUID `form:"chatbotId"`
	Category  string     `form:"category" validate:"omitempty,oneof=hot warm cold"`
	Status    string     `form:"status" validate:"omitempty,oneof=new contacted converted lost cancelled"`
	Search    string     `form:"search" validate:"omitempty,max=200"`
	Page      int        `form:"page" validate:"omitempty,min=1"`
	PageSize  int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// CategoryCounts breaks the total down by qualification bucket.
type CategoryCounts struct {
	Hot  int `json:"hot"`
	Warm int `json:"warm"`
	Cold int `json:"cold"`
}

// ListLeadsResponse is a page of leads plus category totals for the filter UI.
type ListLeadsResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Counts   CategoryCounts `json:"counts"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// UpdateLeadRequest updates the lifecycle status, agent notes and appointment
// of a lead. The appointment date uses ISO 8601 (2006-01-02); the time slot is
// free text.
type UpdateLeadRequest struct {
	Status          string  `json:"status" validate:"omitempty,oneof=new contacted converted lost cancelled"`
	Notes           *string `json:"notes" validate:"omitempty,max=4000"`
	AppointmentDate *string `json:"appointmentDate" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime *string `json:"appointmentTime" validate:"omitempty,max=100"`
	AppointmentNote *string `json:"appointmentNote" validate:"omitempty,max=2000"`
}
