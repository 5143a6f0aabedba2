package nutrition

import (
	"strings"

	"github.com/mercapi/mercapi-backend/pkg/textutil"
)

// nonFoodKeywords mark the drugstore, household and pet sections of the
// catalog. Category names containing any of them are excluded from the
// backfill; everything else is treated as food.
var nonFoodKeywords = []string{
	"limpieza",
	"hogar",
	"maquillaje",
	"cabello",
	"facial",
	"corporal",
	"perfumeria",
	"parafarmacia",
	"fitoterapia",
	"mascota",
	"higiene",
	"panales",
	"toallitas",
}

// IsFoodCategory reports whether products under the named categories
// (own category, optionally its parent) can carry a nutrition label.
func IsFoodCategory(names ...string) bool {
	for _, name := range names {
		folded := strings.ToLower(textutil.FoldAccents(name))
		for _, kw := range nonFoodKeywords {
			if strings.Contains(folded, kw) {
				return false
			}
		}
	}
	return true
}
