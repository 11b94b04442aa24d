package app

import (
	"fmt"

	"customerpersona/pkg/domain"
)

// mockReply produces a canned in-character reply keyed on how many
// prior turns the client sent. Used when no provider is configured or
// the provider call fails.
func mockReply(p domain.Persona, companyName string, messageCount int) string {
	jobTitle := p.JobTitle
	if jobTitle == "" {
		jobTitle = "professional"
	}
	knowledgeDomain := p.KnowledgeDomain
	problemToSolve := p.ProblemToSolve

	switch {
	case messageCount == 1:
		if knowledgeDomain == "" {
			knowledgeDomain = "this field"
		}
		if problemToSolve == "" {
			problemToSolve = "my specific needs"
		}
		return fmt.Sprintf("Thank you for explaining that. As someone with experience in %s, I'm particularly interested in how %s addresses %s. Could you elaborate on that aspect?", knowledgeDomain, companyName, problemToSolve)
	case messageCount == 3:
		return fmt.Sprintf("That's really helpful information! Given my role as a %s, I'm curious about how %s's solution compares to others I've researched. What would you say are your key differentiators?", jobTitle, companyName)
	case messageCount >= 5:
		if problemToSolve == "" {
			problemToSolve = "my needs"
		}
		return fmt.Sprintf("I really appreciate all this information. You've addressed my concerns about %s quite thoroughly. I feel much better informed about how %s could work for someone in my position.", problemToSolve, companyName)
	}
	if knowledgeDomain == "" {
		knowledgeDomain = "this area"
	}
	if problemToSolve == "" {
		problemToSolve = "the challenges I face"
	}
	return fmt.Sprintf("That's interesting information about %s. As someone focused on %s, I'm wondering how specifically that would help with %s?", companyName, knowledgeDomain, problemToSolve)
}
