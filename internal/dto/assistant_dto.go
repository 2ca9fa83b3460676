package dto

import (
	"pharmacy-assistant-be/pkg/assistant/response"
	"pharmacy-assistant-be/pkg/assistant/session"
)

type AssistantQueryRequest struct {
	Intent         string           `json:"intent" validate:"omitempty,oneof=drug_info stock_check dosage alternatives other"`
	DrugName       string           `json:"drugName" validate:"max=120"`
	Text           string           `json:"text" validate:"required_without=DrugName,max=2000"`
	Needs          []string         `json:"needs" validate:"max=10"`
	Sources        []string         `json:"sources" validate:"max=3,dive,oneof=internal_db external_db web_search"`
	SessionContext *session.Context `json:"sessionContext" validate:"omitnil"`
	SessionId      string           `json:"sessionId" validate:"omitempty,uuid"`
}

// AssistantQueryResponse is returned as-is; refusals and clarifications are
// ordinary 200 answers.
type AssistantQueryResponse = response.Envelope

type SessionResponse struct {
	SessionId      string          `json:"sessionId"`
	SessionContext session.Context `json:"sessionContext"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
