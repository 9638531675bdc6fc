// Package entitlement реализует проверку доступа пользователя к платформам
// по уровню его подписки. Проверка чистая, выполняется до любого обращения
// к генеративной модели и при отказе не имеет побочных эффектов.
package entitlement

import (
	"fmt"
	"strings"

	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

// premiumPlatforms — фиксированный набор платформ, закрытых для уровня free.
// Все остальные названия, включая нераспознанные, доступны любому уровню.
var premiumPlatforms = map[string]struct{}{
	"LinkedIn":  {},
	"Instagram": {},
	"Facebook":  {},
}

// DeniedError возвращается, когда уровень подписки не даёт доступа
// к одной или нескольким запрошенным платформам.
type DeniedError struct {
	Platforms []string // Платформы, к которым доступ запрещён, в порядке запроса
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("tier has no access to platforms: %s", strings.Join(e.Platforms, ", "))
}

// Check возвращает список запрещённых платформ для данного уровня подписки.
// Пустой список означает, что запрос разрешён.
func Check(tier string, platforms []string) []string {
	if tier != models.TierFree {
		return nil
	}
	var denied []string
	for _, p := range platforms {
		if _, ok := premiumPlatforms[p]; ok {
			denied = append(denied, p)
		}
	}
	return denied
}

// IsPremium сообщает, входит ли платформа в закрытый набор.
func IsPremium(platform string) bool {
	_, ok := premiumPlatforms[platform]
	return ok
}
