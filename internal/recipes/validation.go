package recipes

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

// fieldErrors accumulates one message per request field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string(f))
}

// validateComposition enforces non-empty, duplicate-free tag and ingredient lists.
func validateComposition(errs fieldErrors, tagIDs []uuid.UUID, ingredients []IngredientAmountInput) {
	if len(tagIDs) == 0 {
		errs.add("tags", "at least one tag is required")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if id == uuid.Nil {
			errs.add("tags", "tag id is required")
			continue
		}
		if _, dup := seenTags[id]; dup {
			errs.add("tags", fmt.Sprintf("tag %s is listed more than once", id))
		}
		seenTags[id] = struct{}{}
	}

	if len(ingredients) == 0 {
		errs.add("ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(ingredients))
	for _, item := range ingredients {
		if item.ID == uuid.Nil {
			errs.add("ingredients", "ingredient id is required")
			continue
		}
		if _, dup := seenIngredients[item.ID]; dup {
			errs.add("ingredients", fmt.Sprintf("ingredient %s is listed more than once", item.ID))
		}
		seenIngredients[item.ID] = struct{}{}
		if item.Amount < MinAmount || item.Amount > MaxAmount {
			errs.add("ingredients", fmt.Sprintf("amount must be between %d and %d", MinAmount, MaxAmount))
		}
	}
}

func validateName(errs fieldErrors, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		errs.add("name", "is required")
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs.add("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
}

func validateText(errs fieldErrors, text string) {
	if strings.TrimSpace(text) == "" {
		errs.add("text", "is required")
	}
}

func validateCookingTime(errs fieldErrors, minutes int) {
	if minutes < MinCookingTime || minutes > MaxCookingTime {
		errs.add("cooking_time", fmt.Sprintf("must be between %d and %d", MinCookingTime, MaxCookingTime))
	}
}

func validateCreate(req CreateRecipeRequest) error {
	errs := fieldErrors{}
	validateComposition(errs, req.Tags, req.Ingredients)
	validateName(errs, req.Name)
	validateText(errs, req.Text)
	validateCookingTime(errs, req.CookingTime)
	if strings.TrimSpace(req.Image) == "" {
		errs.add("image", "is required")
	}
	return errs.err()
}

func validateUpdate(req UpdateRecipeRequest) error {
	errs := fieldErrors{}
	validateComposition(errs, req.Tags, req.Ingredients)
	if req.Name != nil {
		validateName(errs, *req.Name)
	}
	if req.Text != nil {
		validateText(errs, *req.Text)
	}
	if req.CookingTime != nil {
		validateCookingTime(errs, *req.CookingTime)
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		errs.add("image", "may not be blank")
	}
	return errs.err()
}

// missingIDs returns the ids in want that are absent from have, in input order.
func missingIDs(want, have []uuid.UUID) []uuid.UUID {
	present := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
