package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	NameMinLen           = 2
	NameMaxLen           = 50
	DescriptionMaxLen    = 500
	ProductNameMinLen    = 2
	ProductNameMaxLen    = 100
	ProductDescMaxLen    = 1000
	MaxRating            = 5
	categoryNameRules    = "required,min=2,max=50,catalogname"
	categoryDescRules    = "max=500"
	catalogNameCharsHelp = "can only contain letters, numbers, spaces, hyphens, and ampersands"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-&]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so errors line up with request fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("catalogname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("catalog: register catalogname validation: %v", err))
	}
	return v
}

// NormalizeName trims a name and collapses internal whitespace runs to a
// single space. NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NameKey is the case-insensitive comparison key for a category or
// subcategory name. Stores index it to back the duplicate-name guard.
func NameKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}

// ValidateName normalizes a category/subcategory name and checks length and
// charset. It returns the normalized name.
func ValidateName(name string) (string, error) {
	name = NormalizeName(name)
	if err := validate.Var(name, categoryNameRules); err != nil {
		return "", fieldError("name", err)
	}
	return name, nil
}

// ValidateDescription trims a category/subcategory description and checks
// its length.
func ValidateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if err := validate.Var(desc, categoryDescRules); err != nil {
		return "", fieldError("description", err)
	}
	return desc, nil
}

// VariantInput is a purchasable configuration as submitted by a client.
// Price and quantity accept JSON numbers or numeric strings, since multipart
// forms carry variants as a JSON string built by the browser.
type VariantInput struct {
	ID       string  `json:"id,omitempty"`
	RAM      string  `json:"ram" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0"`
	Quantity int     `json:"quantity" validate:"gte=0"`
}

func (v *VariantInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		RAM      string          `json:"ram"`
		Price    json.RawMessage `json:"price"`
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	price, ok, err := flexibleNumber(raw.Price)
	if err != nil {
		return invalid("price", "must be a number")
	}
	if !ok {
		return invalid("price", "is required")
	}

	qty, ok, err := flexibleNumber(raw.Quantity)
	if err != nil {
		return invalid("quantity", "must be a number")
	}
	if !ok {
		return invalid("quantity", "is required")
	}
	if qty != math.Trunc(qty) {
		return invalid("quantity", "must be a whole number")
	}

	*v = VariantInput{ID: raw.ID, RAM: raw.RAM, Price: price, Quantity: int(qty)}
	return nil
}

func flexibleNumber(raw json.RawMessage) (float64, bool, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false, nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
		if s == "" {
			return 0, false, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, fmt.Errorf("not a finite number: %s", s)
	}
	return f, true, nil
}

// ParseVariants decodes a JSON array of variants. Errors name the offending
// element, e.g. "variants[1].price".
func ParseVariants(data []byte) ([]VariantInput, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, invalid("variants", "invalid variants format")
	}

	out := make([]VariantInput, 0, len(items))
	for i, item := range items {
		var v VariantInput
		if err := json.Unmarshal(item, &v); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, invalid(fmt.Sprintf("variants[%d].%s", i, ve.Field), "%s", ve.Message)
			}
			return nil, invalid(fmt.Sprintf("variants[%d]", i), "invalid variant format")
		}
		out = append(out, v)
	}
	return out, nil
}

// ProductInput carries the writable product fields. Validation is fail-fast:
// the first failing field in declaration order is reported.
type ProductInput struct {
	Name          string         `json:"name" validate:"required,min=2,max=100"`
	Description   string         `json:"description" validate:"max=1000"`
	CategoryID    string         `json:"category" validate:"required"`
	SubCategoryID string         `json:"subcategory" validate:"required"`
	Variants      []VariantInput `json:"variants" validate:"required,min=1,dive"`
	Rating        float64        `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount   int            `json:"reviewCount" validate:"gte=0"`
	IsFeatured    bool           `json:"isFeatured"`
}

// Normalize trims every free-text field in place.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.SubCategoryID = strings.TrimSpace(in.SubCategoryID)
	for i := range in.Variants {
		in.Variants[i].RAM = strings.TrimSpace(in.Variants[i].RAM)
	}
}

// ValidateProduct normalizes and validates a product payload. It does not
// check that the referenced category and subcategory exist.
func ValidateProduct(in *ProductInput) error {
	in.Normalize()
	if err := validate.Struct(in); err != nil {
		return fieldError("", err)
	}
	return nil
}

// ValidateVariant checks a single variant, as used by the variant endpoints.
func ValidateVariant(v *VariantInput) error {
	v.RAM = strings.TrimSpace(v.RAM)
	if err := validate.Struct(v); err != nil {
		return fieldError("", err)
	}
	return nil
}

func fieldError(field string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if field == "" {
		field = fieldPath(fe)
	}
	return &ValidationError{Field: field, Message: fieldMessage(field, fe)}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(field string, fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		if isList {
			return fmt.Sprintf("at least one entry in %s is required", field)
		}
		return "is required"
	case "min":
		if isList {
			return fmt.Sprintf("must have at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("cannot have more than %s entries", fe.Param())
		}
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return "cannot be negative"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("cannot exceed %s", fe.Param())
	case "catalogname":
		return catalogNameCharsHelp
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
