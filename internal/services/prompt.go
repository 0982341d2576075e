package services

import (
	"fmt"
	"strings"

	"github.com/sekkei-dojo/backend/internal/types"
)

var difficultyDesc = map[string]string{
	types.DifficultyEasy:   "Beginner level. Basic table design and simple CRUD endpoints only.",
	types.DifficultyMedium: "Intermediate level. Relations, indexes and non-trivial queries.",
	types.DifficultyHard:   "Advanced level. Performance, security and scalability concerns.",
}

var appScaleDesc = map[string]string{
	types.AppScaleSmall:  "small (up to 5 tables, up to 5 endpoints)",
	types.AppScaleMedium: "medium (5-10 tables, 10-15 endpoints)",
	types.AppScaleLarge:  "large (10+ tables, 15+ endpoints)",
}

var modeInstruction = map[string]string{
	types.ModeDBOnly: `Generate exactly one problem with kind "db". The "problems" array must contain that single element.`,
	types.ModeAPIOnly: `Generate one or more problems, all with kind "api".`,
	types.ModeBoth: `Generate exactly one database design problem (kind "db", order_index 1) followed by one or more API design problems (kind "api"). The db problem must come first.`,
}

func buildGenerationPrompt(difficulty, appScale, mode string) string {
	var b strings.Builder
	b.WriteString("You are an expert problem author for backend engineers. ")
	b.WriteString("Create a database and API design exercise based on a realistic web application.\n\n")
	fmt.Fprintf(&b, "Conditions:\n- difficulty: %s (%s)\n- app scale: %s\n- mode: %s\n\n",
		difficulty, difficultyDesc[difficulty], appScaleDesc[appScale], mode)
	b.WriteString(modeInstruction[mode])
	b.WriteString(`

Example subjects: a social feed with posts/likes/follows, an e-commerce site
with products/cart/orders, a task manager with projects/tasks/assignees, a
blog with articles/categories/comments, a booking system with facilities and
time slots. Any other realistic web application also works.

Output strictly the following JSON and nothing else:
{
  "title": "subject title",
  "description": "what the application does and which features it has",
  "problems": [
    {
      "kind": "db",
      "order_index": 1,
      "body": "full problem statement with concrete requirements; ask for CREATE TABLE statements",
      "model_answer": "a reference solution for this problem"
    },
    {
      "kind": "api",
      "order_index": 2,
      "body": "full problem statement listing the endpoints to design, with request/response shapes",
      "model_answer": "a reference solution for this problem"
    }
  ]
}

Rules:
- The db problem must spell out tables, columns, constraints and relations.
- The api problem must spell out HTTP methods, URLs and payload shapes.
- Scale the complexity to the difficulty and app scale above.
- Every problem needs a non-empty model_answer.
- Output JSON only, without markdown fences.`)
	return b.String()
}

func buildGradingPrompt(kind, problemBody, answerBody string) string {
	var b strings.Builder
	b.WriteString("You are a strict but fair reviewer of backend design exercises.\n")
	fmt.Fprintf(&b, "Problem kind: %s\n\nProblem:\n%s\n\nSubmitted answer:\n%s\n\n", kind, problemBody, answerBody)
	b.WriteString(`Grade the answer on this scale:
- 2: correct. The answer satisfies all stated requirements.
- 1: partially correct. The core idea is right but requirements are missed.
- 0: incorrect. The answer misses the point or is fundamentally flawed.

Output strictly the following JSON and nothing else:
{
  "grade": 0,
  "model_answer": "a reference solution to the problem",
  "explanation": "why the answer received this grade, referencing the requirements"
}

Rules:
- "grade" must be the integer 0, 1 or 2.
- "model_answer" and "explanation" must be non-empty.
- Output JSON only, without markdown fences.`)
	return b.String()
}
