package service

import (
	"fmt"
	"strings"
)

const (
	welcomeMessage = "Welcome! I'm your AI interview coach. Let's start by understanding the problem you're working on. What coding challenge would you like to practice?"

	problemAcknowledgement = "Great! I understand the problem. Now, before you start coding, can you walk me through your approach? What's your initial strategy?"

	analyzingMessage = "Analyzing your code..."

	emptySubmissionMessage = "Please write some code before submitting!"

	genericErrorMessage = "An error occurred. Please try again."

	backendRetryMessage = "I couldn't reach the interviewer just now. Please try again in a moment."

	fallbackSummary = "I couldn't generate a detailed summary because the AI interviewer is unavailable right now. Thanks for practicing! Review your submissions, revisit the complexity of your solution, and try another problem to keep building momentum."

	explanationSystemPrompt = "You are a supportive technical interviewer. Provide brief feedback on the candidate's approach and encourage them to start coding."

	messageSystemPrompt = "You are a helpful technical interviewer. Keep responses concise and encouraging."

	analysisSystemPrompt = `You are an expert technical interviewer at a top tech company.
Your role is to:
1. Analyze code for correctness, efficiency, and best practices
2. Evaluate the candidate's problem-solving approach
3. Provide constructive feedback on both technical and communication aspects
4. Ask relevant follow-up questions to assess deeper understanding

Be encouraging but honest. Focus on helping candidates improve.`

	defaultProblemPlaceholder = "coding problem"
	summaryProblemPlaceholder = "N/A"
	defaultLanguage           = "python"
)

// Output token ceilings per request kind.
const (
	conversationMaxTokens = 500
	analysisMaxTokens     = 2000
	summaryMaxTokens      = 800
	analysisTemperature   = 0.7
)

func analysisPrompt(problem, language, code string) string {
	builder := strings.Builder{}
	builder.WriteString("Problem: ")
	builder.WriteString(problem)
	builder.WriteString("\n\nLanguage: ")
	builder.WriteString(language)
	builder.WriteString("\n\nCode submitted:\n```")
	builder.WriteString(language)
	builder.WriteString("\n")
	builder.WriteString(code)
	builder.WriteString("\n```\n\n")
	builder.WriteString(`Please provide:
1. Technical correctness analysis (bugs, edge cases)
2. Time and space complexity analysis
3. Code quality and best practices feedback
4. One insightful follow-up question to test deeper understanding
5. Overall score out of 10

Format your response as JSON with these keys:
- technical_feedback
- complexity_analysis
- code_quality
- follow_up_question
- score (integer 0-10)`)
	return builder.String()
}

func summaryPrompt(problem string, submissions int) string {
	return fmt.Sprintf(`Based on this interview session, provide a concise summary:

Problem: %s
Code submissions: %d

Provide:
1. Overall performance assessment (2-3 sentences)
2. Key strengths (2 bullet points)
3. Areas for improvement (2 bullet points)
4. Next steps for practice

Keep it encouraging and actionable.`, problem, submissions)
}
