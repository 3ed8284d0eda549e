package services

import (
	"testing"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildSystemInstruction(t *testing.T) {
	svc := &AssistantService{}
	agent := &models.Agent{
		Name:        "Aria",
		Personality: "Warm and organized",
		Focus:       "daily planning",
	}

	instruction := svc.buildSystemInstruction(agent, "")

	assert.Contains(t, instruction, "You are Aria")
	assert.Contains(t, instruction, "Warm and organized")
	assert.Contains(t, instruction, "daily planning")
	assert.Contains(t, instruction, "GUARDRAILS")
	assert.NotContains(t, instruction, "CONVERSATION CONTEXT")
}

func TestBuildSystemInstructionWithSummary(t *testing.T) {
	svc := &AssistantService{}
	agent := &models.Agent{Name: "Scout", Personality: "Curious"}

	instruction := svc.buildSystemInstruction(agent, "User is planning a trip to Lisbon")

	assert.Contains(t, instruction, "CONVERSATION CONTEXT")
	assert.Contains(t, instruction, "User is planning a trip to Lisbon")
}

func TestBuildSystemInstructionOmitsEmptyFocus(t *testing.T) {
	svc := &AssistantService{}
	agent := &models.Agent{Name: "Quill", Personality: "Editorial"}

	instruction := svc.buildSystemInstruction(agent, "")

	assert.NotContains(t, instruction, "focus area")
}
