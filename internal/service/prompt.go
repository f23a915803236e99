package service

import (
	"fmt"
	"strings"
)

const questionsPrompt = `Generate a pure json file without any other symbols for only 5 descriptive interview questions and its correct answer for a %s with %s experience based on the following job description:
"%s"

Each question should include:
- A clear and concise question statement.
- An indication of the correct answer.
- Include at least two questions related to the job description. For example, if the job description is about software development, include questions about programming languages, frameworks, and tools.
- Include three technical question, including atleast one behavioral question, include one aptitude question

Provide the output in the following JSON format:

[
  {
    "questionno": "Question 1",
    "question": "Your question here?",
    "answer": ""
  },
  {
    "questionno": "Question 2",
    "question": "Your question here?",
    "answer": ""
  },
  ...
]`

const feedbackPrompt = `Generate a pure json file without any other unnecessary symbols for feedback of this interview with the following questions and answers:

Questions:
%s

Answers:
%s

This feedback is for a user who selected a %s role with %s experience based on the following job description:
"%s"

Each feedback should include:
- A clear and concise pros and cons statement.
- The answer provided by the user.
- If the user had not answered the question or given irrelevant answer for the question then the rating will be 0.
- An overall rating out of 10 after reviewing the user's answer.
- Strength points in the user's answer.
- Weak points in the user's answer.
- Suggestions to improve the user's answer and any grammatical mistake in the user's answer.
- If user not write a proper answer, then show pros as None.
- give suggestions, pros and cons as you are talking to the user directly.

Provide the output in the following JSON format:

[
%s
]`

const feedbackEntry = `  {
    "questionno": "Question %d",
    "question": "%s",
    "answer": "%s",
    "rating": "Overall rating out of 10 after reviewing the user's answer",
    "pros": "Strength points in the user's answer",
    "cons": "Weak points in the user's answer",
    "suggestion": "Suggestions to improve the user's answer"
  }`

func QuestionsPrompt(jobRole, experienceLevel, jobDescription string) string {
	return fmt.Sprintf(questionsPrompt, jobRole, experienceLevel, jobDescription)
}

func numbered(prefix string, items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s %d: %s", prefix, i+1, item)
	}
	return strings.Join(lines, "\n")
}

// FeedbackPrompt embeds every question/answer pair. answers is read index-aligned
// to questions; a missing answer renders as an empty string.
func FeedbackPrompt(questions, answers []string, jobRole, experienceLevel, jobDescription string) string {
	entries := make([]string, len(questions))
	for i, q := range questions {
		var a string
		if i < len(answers) {
			a = answers[i]
		}
		entries[i] = fmt.Sprintf(feedbackEntry, i+1, q, a)
	}
	return fmt.Sprintf(feedbackPrompt,
		numbered("Question", questions),
		numbered("Answer", answers),
		jobRole, experienceLevel, jobDescription,
		strings.Join(entries, ",\n"))
}
