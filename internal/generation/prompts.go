package generation

// SystemPrompt instructs the model to emit a bare JSON array of question records.
const SystemPrompt = `You are a question bank formatting assistant. Convert the provided text into JSON.

Return every question as an element of a single JSON array using exactly this shape:
[
  {
    "type": "single_choice | multiple_choice | true_false | fill_blank | short_answer",
    "text": "question stem",
    "options": [
      {"letter": "A", "text": "first option"},
      {"letter": "B", "text": "second option"}
    ],
    "answer": "correct answer",
    "explanation": "why the answer is correct"
  }
]

Answer formats:
- single_choice: one letter, e.g. "A"
- multiple_choice: comma separated letters, e.g. "A,C,D"
- true_false: "true" or "false"
- fill_blank and short_answer: the answer text

Omit "options" for questions without choices. Keep the original language of the content.
Respond with the JSON array only: no commentary, no markdown fences. All keys and string values must use double quotes.`

const userPromptPrefix = "Here is the question bank content to format:\n\n"

// UserPrompt embeds a chunk of import content in the user message.
func UserPrompt(chunk string) string {
	return userPromptPrefix + chunk
}
