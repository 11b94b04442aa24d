package app

import (
	"fmt"
	"math/rand"
	"strings"

	"customerpersona/pkg/domain"
)

// Deterministic persona synthesis used when no generation credential is
// configured or the provider call fails. Keyword rules are checked in
// order; the first match wins.

var knowledgeDomains = []string{
	"Sustainable product development and eco-friendly alternatives",
	"Digital marketing strategies and consumer engagement",
	"Enterprise software integration and workflow optimization",
	"Healthcare technology and patient care improvement",
	"Financial technology and secure payment processing",
	"E-commerce platforms and customer experience optimization",
	"Mobile application development and user experience design",
	"Cloud computing and data storage solutions",
	"Artificial intelligence and machine learning applications",
	"Cybersecurity and data protection protocols",
}

var problemTemplates = []string{
	"Finding a %s solution that reduces environmental impact without compromising quality",
	"Identifying %s products that integrate seamlessly with existing systems",
	"Determining if %s can provide scalable solutions as my needs grow",
	"Understanding how %s's pricing model aligns with my budget constraints",
	"Evaluating if %s's customer support meets my organization's requirements",
	"Assessing whether %s's security features adequately protect sensitive data",
	"Comparing %s's offerings with competitors to ensure best value",
	"Finding a %s solution that improves efficiency without extensive retraining",
	"Determining if %s's products are accessible and inclusive for all users",
	"Understanding how %s's roadmap aligns with future industry trends",
}

var (
	firstNames = []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Jamie", "Avery", "Quinn", "Cameron"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}

	techJobs     = []string{"Software Engineer", "Product Manager", "UX Designer", "Data Scientist", "IT Specialist"}
	businessJobs = []string{"Marketing Manager", "Business Analyst", "Sales Director", "Financial Advisor", "HR Specialist"}
	creativeJobs = []string{"Graphic Designer", "Content Creator", "Art Director", "Photographer", "Videographer"}

	allInterests = []string{
		"Hiking", "Photography", "Reading", "Cooking", "Travel",
		"Technology", "Fitness", "Art", "Music", "Sustainability",
		"Gaming", "Yoga", "Gardening", "Volunteering", "Podcasts",
	}

	allChallenges = []string{
		"Finding products that align with personal values",
		"Balancing quality with affordability",
		"Navigating too many options in the market",
		"Finding reliable customer support",
		"Keeping up with industry trends",
		"Finding time-efficient solutions",
		"Identifying trustworthy brands",
		"Finding products that integrate with existing systems",
	}

	genders   = []string{"Male", "Female", "Non-binary"}
	locations = []string{"New York, NY", "San Francisco, CA", "Austin, TX", "Seattle, WA", "Chicago, IL"}
)

func mockPersona(companyName string, characteristics []string) domain.Persona {
	return domain.Persona{
		Name:             chooseRandom(firstNames) + " " + chooseRandom(lastNames),
		Age:              rand.Intn(40) + 25,
		Gender:           chooseRandom(genders),
		Location:         chooseRandom(locations),
		JobTitle:         mockJobTitle(characteristics),
		Interests:        mockInterests(),
		Challenges:       mockChallenges(),
		InitialChallenge: fmt.Sprintf("I've been looking for a %s solution that aligns with my needs. Can you help me understand how your products might work for someone like me?", companyName),
		KnowledgeDomain:  mockKnowledgeDomain(characteristics),
		ProblemToSolve:   mockProblemToSolve(companyName, characteristics),
	}
}

func mockKnowledgeDomain(characteristics []string) string {
	switch {
	case anyContains(characteristics, "eco", "sustain"):
		return knowledgeDomains[0]
	case anyContains(characteristics, "market", "brand"):
		return knowledgeDomains[1]
	case anyContains(characteristics, "tech", "software"):
		return chooseRandom([]string{knowledgeDomains[2], knowledgeDomains[6], knowledgeDomains[7], knowledgeDomains[8]})
	case anyContains(characteristics, "health", "care"):
		return knowledgeDomains[3]
	case anyContains(characteristics, "finance", "payment"):
		return knowledgeDomains[4]
	case anyContains(characteristics, "commerce", "retail"):
		return knowledgeDomains[5]
	case anyContains(characteristics, "security", "protect"):
		return knowledgeDomains[9]
	}
	return chooseRandom(knowledgeDomains)
}

func mockProblemToSolve(companyName string, characteristics []string) string {
	pick := func(i int) string { return fmt.Sprintf(problemTemplates[i], companyName) }
	switch {
	case anyContains(characteristics, "eco", "sustain"):
		return pick(0)
	case anyContains(characteristics, "tech", "software"):
		return pick(chooseRandom([]int{1, 2, 7}))
	case anyContains(characteristics, "price", "cost"):
		return pick(3)
	case anyContains(characteristics, "support", "service"):
		return pick(4)
	case anyContains(characteristics, "security", "protect"):
		return pick(5)
	case anyContains(characteristics, "value", "compare"):
		return pick(6)
	case anyContains(characteristics, "access", "inclusive"):
		return pick(8)
	case anyContains(characteristics, "future", "trend"):
		return pick(9)
	}
	return pick(rand.Intn(len(problemTemplates)))
}

func mockJobTitle(characteristics []string) string {
	switch {
	case anyContains(characteristics, "tech", "digital"):
		return chooseRandom(techJobs)
	case anyContains(characteristics, "creative", "design"):
		return chooseRandom(creativeJobs)
	}
	return chooseRandom(businessJobs)
}

func mockInterests() []string {
	count := rand.Intn(3) + 3
	picked := make([]string, 0, count)
	for _, i := range rand.Perm(len(allInterests))[:count] {
		picked = append(picked, allInterests[i])
	}
	return picked
}

func mockChallenges() []string {
	count := rand.Intn(2) + 2
	picked := make([]string, 0, count)
	for _, i := range rand.Perm(len(allChallenges))[:count] {
		picked = append(picked, allChallenges[i])
	}
	return picked
}

func anyContains(values []string, keywords ...string) bool {
	for _, v := range values {
		lower := strings.ToLower(v)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func chooseRandom[T any](values []T) T {
	return values[rand.Intn(len(values))]
}
