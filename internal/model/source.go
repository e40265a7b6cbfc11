package model

import (
	"encoding/json"
	"fmt"
)

// SourceType names the upstream API a JobSource talks to.
type SourceType string

// Supported source types.
const (
	SourceGreenhouse SourceType = "greenhouse"
	SourceLever      SourceType = "lever"
	SourceAshby      SourceType = "ashby"
)

// JobSource is externally managed configuration for one job board.
type JobSource struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Type      SourceType `json:"type" yaml:"type"`
	BaseURL   string     `json:"baseUrl" yaml:"base_url"`
	CompanyID string     `json:"companyId" yaml:"company_id"`
}

// Validate checks the fields every adapter relies on. BaseURL may be empty;
// adapters fall back to the public API host.
func (s JobSource) Validate() error {
	if s.ID == "" || s.Name == "" || s.Type == "" || s.CompanyID == "" {
		return fmt.Errorf("source %q: id, name, type and companyId are required", s.ID)
	}
	return nil
}

// Profession is a named category matched by title keywords.
type Profession struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Snapshot is the configuration read once at the start of an invocation and
// passed down the pipeline. Nothing reads configuration from the store mid-cycle.
type Snapshot struct {
	Sources     []JobSource
	Professions []Profession
}

// DecodeSources accepts both a bare array and the {"sources": [...]} wrapper
// written by the admin surface.
func DecodeSources(data []byte) ([]JobSource, error) {
	var list []JobSource
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Sources []JobSource `json:"sources"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return wrapped.Sources, nil
}

// DecodeProfessions accepts both a bare array and the {"professions": [...]} wrapper.
func DecodeProfessions(data []byte) ([]Profession, error) {
	var list []Profession
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Professions []Profession `json:"professions"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode professions: %w", err)
	}
	return wrapped.Professions, nil
}
