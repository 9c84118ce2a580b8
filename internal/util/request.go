package util

import (
	"fmt"
	"math/rand"
)

// GenerateRequestID produces a human-scannable request ID. Names are agile
// ceremony flavoured so log correlation feels less like reading UUIDs.
func GenerateRequestID() string {
	actions := []string{
		"refining", "grooming", "planning", "reviewing", "estimating",
		"sprinting", "standup", "retroing", "demoing", "backlogging",
		"slicing", "storypointing", "prioritising", "committing", "shipping",
	}
	artifacts := []string{
		"pbi", "goal", "story", "epic", "theme",
		"task", "spike", "increment", "sprint", "backlog",
		"persona", "roadmap", "charter", "canvas", "vision",
	}

	artifact := artifacts[rand.Intn(len(artifacts))]
	action := actions[rand.Intn(len(actions))]
	suffix := fmt.Sprintf("%04x", rand.Intn(65536))

	return fmt.Sprintf("%s_%s_%s", artifact, action, suffix)
}
