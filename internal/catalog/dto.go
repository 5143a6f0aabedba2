package catalog

import (
	"time"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
)

// ProductDTO is a detached snapshot of a product row and its relations.
// Once built it holds no database handles, so cached copies can be read
// concurrently and survive the session they were loaded in.
type ProductDTO struct {
	ID               string        `json:"id"`
	EAN              string        `json:"ean"`
	Slug             string        `json:"slug"`
	Brand            *string       `json:"brand"`
	Name             string        `json:"name"`
	Price            float64       `json:"price"`
	Description      *string       `json:"description"`
	Origin           *string       `json:"origin"`
	Packaging        *string       `json:"packaging"`
	UnitName         *string       `json:"unit_name"`
	UnitSize         *float64      `json:"unit_size"`
	IsVariableWeight bool          `json:"is_variable_weight"`
	IsPack           bool          `json:"is_pack"`
	Category         CategoryDTO   `json:"category"`
	Images           []ImageDTO    `json:"images"`
	Nutrition        *NutritionDTO `json:"nutritional_information"`
	PriceHistory     []PricePoint  `json:"price_history"`
}

type CategoryDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

type ImageDTO struct {
	ZoomURL      string `json:"zoom_url"`
	RegularURL   string `json:"regular_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Perspective  int    `json:"perspective"`
}

type NutritionDTO struct {
	Calories           *float64 `json:"calories"`
	TotalFat           *float64 `json:"total_fat"`
	SaturatedFat       *float64 `json:"saturated_fat"`
	PolyunsaturatedFat *float64 `json:"polyunsaturated_fat"`
	MonounsaturatedFat *float64 `json:"monounsaturated_fat"`
	TransFat           *float64 `json:"trans_fat"`
	TotalCarbohydrate  *float64 `json:"total_carbohydrate"`
	DietaryFiber       *float64 `json:"dietary_fiber"`
	TotalSugars        *float64 `json:"total_sugars"`
	Protein            *float64 `json:"protein"`
	Salt               *float64 `json:"salt"`
}

type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

func productToDTO(m models.Product) ProductDTO {
	dto := ProductDTO{
		ID:               m.ID,
		EAN:              m.EAN,
		Slug:             m.Slug,
		Brand:            copyString(m.Brand),
		Name:             m.Name,
		Price:            m.Price,
		Description:      copyString(m.Description),
		Origin:           copyString(m.Origin),
		Packaging:        copyString(m.Packaging),
		UnitName:         copyString(m.UnitName),
		UnitSize:         copyFloat(m.UnitSize),
		IsVariableWeight: m.IsVariableWeight,
		IsPack:           m.IsPack,
	}
	if m.Category != nil {
		dto.Category = CategoryDTO{
			ID:       m.Category.ID,
			Name:     m.Category.Name,
			ParentID: copyInt(m.Category.ParentID),
		}
	} else {
		dto.Category = CategoryDTO{ID: m.CategoryID}
	}
	dto.Images = make([]ImageDTO, 0, len(m.Images))
	for _, img := range m.Images {
		dto.Images = append(dto.Images, ImageDTO{
			ZoomURL:      img.ZoomURL,
			RegularURL:   img.RegularURL,
			ThumbnailURL: img.ThumbnailURL,
			Perspective:  img.Perspective,
		})
	}
	if m.Nutrition != nil {
		dto.Nutrition = nutritionToDTO(*m.Nutrition)
	}
	dto.PriceHistory = make([]PricePoint, 0, len(m.PriceHistory))
	for _, ph := range m.PriceHistory {
		dto.PriceHistory = append(dto.PriceHistory, PricePoint{Price: ph.Price, Timestamp: ph.Timestamp})
	}
	return dto
}

func nutritionToDTO(n models.NutritionalInformation) *NutritionDTO {
	return &NutritionDTO{
		Calories:           copyFloat(n.Calories),
		TotalFat:           copyFloat(n.TotalFat),
		SaturatedFat:       copyFloat(n.SaturatedFat),
		PolyunsaturatedFat: copyFloat(n.PolyunsaturatedFat),
		MonounsaturatedFat: copyFloat(n.MonounsaturatedFat),
		TransFat:           copyFloat(n.TransFat),
		TotalCarbohydrate:  copyFloat(n.TotalCarbohydrate),
		DietaryFiber:       copyFloat(n.DietaryFiber),
		TotalSugars:        copyFloat(n.TotalSugars),
		Protein:            copyFloat(n.Protein),
		Salt:               copyFloat(n.Salt),
	}
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	i := *v
	return &i
}
