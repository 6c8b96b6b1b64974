// Package prompts builds the natural-language prompts sent to the
// feedback generator.
package prompts

import (
	"fmt"

	"github.com/terra-clan/interview-coach/internal/models"
)

// Placeholders used when no problem is cached for a round
const (
	PlaceholderProblem = "Current interview problem"
	PlaceholderDesign  = "Design problem"
)

// Problem returns the generation prompt for a new problem of the given round
func Problem(r models.RoundType, d models.Difficulty) string {
	switch r {
	case models.RoundLLD:
		return fmt.Sprintf(`Give a %s-complexity low-level design problem. For easy: simple components like "Design a Logger". For medium: "Design a Cache System". For hard: "Design a Distributed Lock Manager". Be specific about requirements.`, d)
	case models.RoundHLD:
		return fmt.Sprintf(`Give a %s-scale system design problem. For easy: "Design a URL Shortener for 1K users". For medium: "Design a Chat System for 1M users". For hard: "Design a Global CDN for 1B users". Include appropriate scale requirements.`, d)
	case models.RoundBehavioral:
		tone, focus := "standard", "problem-solving and collaboration"
		switch d {
		case models.DifficultyEasy:
			tone, focus = "straightforward", "basic teamwork"
		case models.DifficultyHard:
			tone, focus = "complex leadership", "senior leadership and conflict resolution"
		}
		return fmt.Sprintf("Ask a %s behavioral interview question using the STAR method format. Focus on %s scenarios.", tone, focus)
	default:
		return fmt.Sprintf("Generate a %s-difficulty coding problem suitable for a technical interview. Include problem statement, constraints, and example. IMPORTANT: Also provide exactly 3 test cases in this format:\n\nTest Cases:\n1. Input: [input] Output: [output]\n2. Input: [input] Output: [output]\n3. Input: [input] Output: [output]", d)
	}
}

// ActionContext carries what an action prompt may embed
type ActionContext struct {
	Round        models.RoundType
	Problem      string // cached problem of Round, empty if none
	Input        string
	HintQuestion string
}

// ForAction returns the prompt for an action. Unknown actions are treated
// as a behavioral answer submission.
func ForAction(a models.Action, c ActionContext) string {
	switch a {
	case models.ActionExplainApproach:
		return fmt.Sprintf(`User's approach explanation: "%s". Provide feedback on their thought process and ask follow-up questions.`, c.Input)
	case models.ActionRunCode:
		return fmt.Sprintf(`Evaluate this code solution: "%s". Check correctness, efficiency, and provide detailed feedback with time/space complexity analysis.`, c.Input)
	case models.ActionAskForHint:
		if c.HintQuestion == "" {
			return "As an interviewer, provide a helpful hint for the current problem without giving away the complete solution."
		}
		return hint(c)
	case models.ActionProposeDesign:
		return fmt.Sprintf(`Review this LLD proposal: "%s". Evaluate class design, OOP principles, and API contracts. Provide constructive feedback.`, c.Input)
	case models.ActionClarifyRequirement:
		return "The user needs clarification on the LLD requirements. Provide more specific details about the system requirements."
	case models.ActionProposeArchitecture:
		return fmt.Sprintf(`Review this HLD architecture: "%s". Evaluate scalability, technology choices, and system design. Provide detailed feedback.`, c.Input)
	case models.ActionAskForClarification:
		return "The user needs clarification on the HLD requirements. Provide more details about scale, constraints, and non-functional requirements."
	case models.ActionSubmitAnswer:
		return submitAnswer(c.Input)
	default:
		return submitAnswer(c.Input)
	}
}

func submitAnswer(input string) string {
	return fmt.Sprintf(`Evaluate this behavioral response: "%s". Check if it follows STAR method and provide constructive feedback on communication and content.`, input)
}

func hint(c ActionContext) string {
	problem := c.Problem
	if problem == "" {
		problem = PlaceholderProblem
	}
	return fmt.Sprintf(`You are an experienced technical interviewer conducting a %s interview. The candidate is working on this problem:

"%s"

The candidate is stuck and asks: "%s"

As a supportive interviewer, provide a helpful hint that:
- Acknowledges their question professionally
- Guides them toward the right direction without giving away the solution
- Uses encouraging language like "Think about...", "Consider...", "What if you..."
- Maintains the interview atmosphere
- Helps them discover the solution themselves

Respond as if you're speaking directly to the candidate in an interview setting.`, c.Round.Upper(), problem, c.HintQuestion)
}

// OverallFeedback is the summary prompt covering all four rounds
func OverallFeedback() string {
	return "Provide comprehensive interview feedback for someone who completed all 4 rounds: DSA, LLD, HLD, and Behavioral. Give overall assessment, strengths, areas for improvement, and recommendations."
}

// Diagram returns the evaluation prompt for a draw.io diagram
func Diagram(r models.RoundType, problem, xml string) string {
	if problem == "" {
		problem = PlaceholderDesign
	}
	base := fmt.Sprintf(`You are an experienced technical interviewer evaluating a %s diagram submission.

Problem Statement:
%s

Diagram XML (draw.io format):
%s

Please evaluate this diagram and provide detailed feedback on:`, r.Upper(), problem, xml)

	switch r {
	case models.RoundLLD:
		return base + `

1. **Class Design**: Are classes well-defined with appropriate responsibilities?
2. **OOP Principles**: Proper use of encapsulation, inheritance, polymorphism, abstraction
3. **Design Patterns**: Appropriate use of design patterns if applicable
4. **API Design**: Clear method signatures and interfaces
5. **Relationships**: Proper associations, compositions, dependencies
6. **Extensibility**: How easy would it be to extend this design?
7. **SOLID Principles**: Adherence to SOLID principles

Provide specific suggestions for improvement and rate the design on a scale of 1-10.`
	case models.RoundHLD:
		return base + `

1. **Architecture**: Overall system architecture and component separation
2. **Scalability**: Can this design handle the required scale?
3. **Data Flow**: Clear data flow between components
4. **Technology Choices**: Appropriate database, caching, messaging choices
5. **Load Balancing**: Proper distribution of load
6. **Fault Tolerance**: How does the system handle failures?
7. **Performance**: Bottlenecks and optimization opportunities
8. **Security**: Basic security considerations

Provide specific suggestions for improvement and rate the architecture on a scale of 1-10.`
	default:
		return base + `

General design principles, clarity, and completeness. Rate on a scale of 1-10.`
	}
}
