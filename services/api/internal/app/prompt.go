package app

import (
	"fmt"
	"strings"

	"customerpersona/pkg/domain"
)

const personaSystemPrompt = "You are an AI that creates detailed customer personas based on company information."

func buildPersonaPrompt(companyName string, characteristics []string, knowledgeDomain, problemToSolve string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a customer persona that need to use a service/product for a company named %q with the following characteristics: %s.\n", companyName, strings.Join(characteristics, ", "))
	sb.WriteString("Include name, age, gender, location, job title, interests, challenges, and an initial challenge message related to a company's products/services topic and what do you need information about.")
	if knowledgeDomain != "" {
		fmt.Fprintf(&sb, "\nThe persona should have specific knowledge about: %s.", knowledgeDomain)
	}
	if problemToSolve != "" {
		fmt.Fprintf(&sb, "\nThe persona should be trying to solve this specific problem: %s.", problemToSolve)
	}
	sb.WriteString("\nInclude knowledgeDomain and problemToSolve fields in the response.\nFormat the response as valid JSON.")
	return sb.String()
}

func buildChatSystemPrompt(p domain.Persona, companyName string) string {
	jobTitle := p.JobTitle
	if jobTitle == "" {
		jobTitle = "professional"
	}
	interests := "various topics"
	if len(p.Interests) > 0 {
		interests = strings.Join(p.Interests, ", ")
	}
	challenges := "finding the right solutions"
	if len(p.Challenges) > 0 {
		challenges = strings.Join(p.Challenges, ", ")
	}
	knowledgeDomain := p.KnowledgeDomain
	if knowledgeDomain == "" {
		knowledgeDomain = "your professional field and interests"
	}
	problem := p.ProblemToSolve
	if problem == "" {
		if len(p.Challenges) > 0 {
			problem = p.Challenges[0]
		} else {
			problem = "finding the right solution"
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a %d-year-old %s %s from %s.\n\n", p.Name, p.Age, p.Gender, jobTitle, p.Location)
	sb.WriteString(`When responding, use Markdown formatting for better readability:
- Use **bold** for emphasis
- Use *italics* for subtle emphasis
- Use bullet points for lists
- Use numbered lists for sequential items
- Use ` + "`code`" + ` for technical terms
- Use > for quotes or important points

PERSONALITY & BACKGROUND:
`)
	fmt.Fprintf(&sb, "- You have the following interests: %s\n", interests)
	fmt.Fprintf(&sb, "- You face these challenges: %s\n", challenges)
	fmt.Fprintf(&sb, "- You have specific knowledge about: %s\n", knowledgeDomain)
	fmt.Fprintf(&sb, "- You're currently trying to solve this problem: %s\n\n", problem)
	sb.WriteString("INTERACTION STYLE:\n")
	fmt.Fprintf(&sb, "- You're talking to a representative from %s\n", companyName)
	sb.WriteString(`- You're curious but also critical - you want to make sure their solutions actually address your needs
- You're replying in a friendly, conversational tone and short sentences as if you were talking to a friend, not a robot, 3 sentences at a time max
- You ask for clarifications when you don't understand something
- You share your thoughts and feelings about the conversation
- You ask thoughtful follow-up questions based on your knowledge domain
- You respond naturally as a real person would, with occasional hesitations or clarifying questions
- You maintain a consistent personality throughout the conversation
- You refer to your background, experiences, and specific problem when relevant`)
	if p.TemporaryContext != "" {
		fmt.Fprintf(&sb, "\n\nADDITIONAL CONTEXT:\n%s", p.TemporaryContext)
	}
	fmt.Fprintf(&sb, "\n\nYour goal is to have a fluid, realistic conversation where you're trying to determine if %s's products or services can help solve your specific problem. Be conversational, not robotic.", companyName)
	return sb.String()
}
