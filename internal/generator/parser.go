package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

// socialPostsKey — единственный ожидаемый ключ верхнего уровня в ответе модели.
const socialPostsKey = "social_posts"

// ParsePosts разбирает сырой ответ модели в упорядоченный список постов.
//
// Ответ считается недоверенными данными: элементы массива, не прошедшие
// проверку формы (строковые platform и content, массив строковых hashtags),
// отбрасываются поодиночке, порядок остальных сохраняется. Частичный
// результат — это успех: стоимость вызова модели уже понесена, и выбрасывать
// годные посты из-за соседних битых было бы ошибкой. Возвращает
// ErrMalformedResponse, если ответ в целом не разобрать, и ErrNoValidPosts,
// если не уцелел ни один элемент.
func ParsePosts(raw string) ([]models.Post, error) {
	const op = "generator.ParsePosts"

	cleaned := normalizeFences(raw)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedResponse, err)
	}

	rawPosts, ok := envelope[socialPostsKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w: missing %q key", op, ErrMalformedResponse, socialPostsKey)
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(rawPosts, &elements); err != nil {
		return nil, fmt.Errorf("%s: %w: %q is not an array", op, ErrMalformedResponse, socialPostsKey)
	}

	posts := make([]models.Post, 0, len(elements))
	for _, element := range elements {
		post, ok := validatePost(element)
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoValidPosts)
	}
	return posts, nil
}

// validatePost проверяет форму одного элемента массива: объект со строковыми
// platform и content и массивом строковых hashtags. Любое отклонение — отказ.
// Поля читаются через указатели: JSON null "успешно" разбирается в строку как
// no-op, а требование здесь — именно строка, не null.
func validatePost(element json.RawMessage) (models.Post, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil {
		return models.Post{}, false
	}

	var platform, content *string
	if err := json.Unmarshal(fields["platform"], &platform); err != nil || platform == nil {
		return models.Post{}, false
	}
	if err := json.Unmarshal(fields["content"], &content); err != nil || content == nil {
		return models.Post{}, false
	}
	var hashtags []*string
	if err := json.Unmarshal(fields["hashtags"], &hashtags); err != nil || hashtags == nil {
		return models.Post{}, false
	}

	post := models.Post{
		Platform: *platform,
		Content:  *content,
		Hashtags: make([]string, 0, len(hashtags)),
	}
	for _, tag := range hashtags {
		if tag == nil {
			return models.Post{}, false
		}
		post.Hashtags = append(post.Hashtags, *tag)
	}
	return post, true
}

// normalizeFences снимает обрамление из markdown-ограждений, которое модели
// любят добавлять вокруг JSON. Правило строго best-effort: убирается не более
// одной ведущей строки-ограждения (``` с необязательной меткой языка, до конца
// строки) и не более одного завершающего маркера ```; парность маркеров не
// проверяется, при их отсутствии текст не изменяется.
func normalizeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
