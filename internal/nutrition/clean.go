package nutrition

import (
	"strconv"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
)

// cleanNumeric turns one extractor value into a number. String values
// are reduced to their first decimal-number token before parsing;
// anything unparseable becomes unknown rather than an error.
func cleanNumeric(n gemini.Number) *float64 {
	if !n.Valid {
		return nil
	}
	if !n.IsString {
		v := n.Num
		return &v
	}
	token := firstNumericToken(n.Str)
	if token == "" {
		return nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &v
}

// firstNumericToken returns the first digit-led run of digits and dots
// in s. Tokens must start with a digit so punctuation glued to the
// surrounding text ("aprox. 250kcal", "aprox.250") cannot leak a stray
// dot into the parse.
func firstNumericToken(s string) string {
	start := -1
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if start < 0 {
			if isDigit {
				start = i
			}
			continue
		}
		if !isDigit && r != '.' {
			return s[start:i]
		}
	}
	if start < 0 {
		return ""
	}
	return s[start:]
}

// cleanNutrition applies cleanNumeric to each of the eleven label
// fields. The list is spelled out on purpose: adding a field to the
// model means adding it here.
func cleanNutrition(raw *gemini.Nutrition) models.NutritionalInformation {
	return models.NutritionalInformation{
		Calories:           cleanNumeric(raw.Calories),
		TotalFat:           cleanNumeric(raw.TotalFat),
		SaturatedFat:       cleanNumeric(raw.SaturatedFat),
		PolyunsaturatedFat: cleanNumeric(raw.PolyunsaturatedFat),
		MonounsaturatedFat: cleanNumeric(raw.MonounsaturatedFat),
		TransFat:           cleanNumeric(raw.TransFat),
		TotalCarbohydrate:  cleanNumeric(raw.TotalCarbohydrate),
		DietaryFiber:       cleanNumeric(raw.DietaryFiber),
		TotalSugars:        cleanNumeric(raw.TotalSugars),
		Protein:            cleanNumeric(raw.Protein),
		Salt:               cleanNumeric(raw.Salt),
	}
}
