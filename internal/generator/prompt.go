// Package generator реализует конвейер обращения к внешней генеративной
// модели: построение промпта, вызов модели и разбор её ответа.
package generator

import (
	"fmt"
	"strings"
)

// platformInstructions — фиксированная таблица инструкций по стилю
// для распознанных платформ. Платформы вне таблицы в промпт не попадают.
var platformInstructions = map[string]string{
	"Twitter":   `One "Twitter" post. It must be engaging and under 280 characters. Use emojis.`,
	"LinkedIn":  `One "LinkedIn" post. It should be professional and insightful.`,
	"Instagram": `One "Instagram" caption. It should be casual, open with a strong hook and use emojis.`,
	"Facebook":  `One "Facebook" post. It should be conversational and end with a question to invite comments.`,
	"General":   `One "Key Takeaways" post for a general audience using bullet points. Use "General" as the platform.`,
}

// fallbackInstruction используется, когда ни одна из запрошенных платформ
// не распознана: генерируется единственный общий пост-выжимка.
const fallbackInstruction = `One "Key Takeaways" post for a general audience using bullet points. Use "General" as the platform.`

// DedupePlatforms убирает дубликаты, сохраняя порядок первого вхождения.
func DedupePlatforms(platforms []string) []string {
	seen := make(map[string]struct{}, len(platforms))
	result := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	return result
}

// BuildPrompt детерминированно собирает промпт для генеративной модели.
//
// Инструкции нумеруются в порядке запроса пользователя; платформы вне
// таблицы молча пропускаются. Текст статьи вставляется между маркерами
// "---" как есть, без какой-либо очистки.
func BuildPrompt(text string, platforms []string) string {
	var instructions []string
	for _, p := range DedupePlatforms(platforms) {
		if instruction, ok := platformInstructions[p]; ok {
			instructions = append(instructions, instruction)
		}
	}
	if len(instructions) == 0 {
		instructions = []string{fallbackInstruction}
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following article and generate a set of social media posts based on its content.\n")
	sb.WriteString("The output must be a single valid JSON object and nothing else.\n\n")
	sb.WriteString("The JSON object must have a key called \"social_posts\" which is an array of post objects.\n")
	sb.WriteString("Each post object in the array must have exactly these keys:\n")
	sb.WriteString("- \"platform\": The name of the social media platform (e.g., \"Twitter\", \"LinkedIn\").\n")
	sb.WriteString("- \"content\": The text of the post, written in a style appropriate for the platform.\n")
	sb.WriteString("- \"hashtags\": An array of relevant hashtags as strings, without the '#' symbol.\n\n")
	sb.WriteString("Generate the following posts:\n")
	for i, instruction := range instructions {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, instruction))
	}
	sb.WriteString("\nArticle to analyze:\n---\n")
	sb.WriteString(text)
	sb.WriteString("\n---\n")
	return sb.String()
}

// RecognizedPlatform сообщает, есть ли для платформы инструкция в таблице.
func RecognizedPlatform(platform string) bool {
	_, ok := platformInstructions[platform]
	return ok
}
