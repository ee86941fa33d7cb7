package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

// VisitorInput is the visitor part of the public booking forms. Both the
// slot booking and the booking request embed it, so the same rules and the
// same mapping apply to every route.
type VisitorInput struct {
	VisitorType        string `json:"visitorType" validate:"required,oneof=parent company"`
	ParentName         string `json:"parentName" validate:"required_if=VisitorType parent,max=120"`
	StudentName        string `json:"studentName" validate:"required_if=VisitorType parent,max=120"`
	CompanyName        string `json:"companyName" validate:"required_if=VisitorType company,max=160"`
	TraineeName        string `json:"traineeName" validate:"required_if=VisitorType company,max=120"`
	RepresentativeName string `json:"representativeName" validate:"required_if=VisitorType company,max=120"`
	ClassName          string `json:"className" validate:"required,max=20"`
	Email              string `json:"email" validate:"required,email,max=255"`
	Message            string `json:"message" validate:"max=2000"`
}

// BookingInput is the body of POST /api/bookings.
type BookingInput struct {
	SlotID int64 `json:"slotId" validate:"required,gt=0"`
	VisitorInput
}

// RequestInput is the body of POST /api/booking-requests.
type RequestInput struct {
	TeacherID     int64  `json:"teacherId" validate:"required,gt=0"`
	RequestedTime string `json:"requestedTime" validate:"required,max=40"`
	VisitorInput
}

// normalize trims every field, lower-cases the email and clears the name
// fields that do not belong to the visitor type.
func (in *VisitorInput) normalize() {
	for _, f := range []*string{&in.VisitorType, &in.ParentName, &in.StudentName, &in.CompanyName,
		&in.TraineeName, &in.RepresentativeName, &in.ClassName, &in.Email, &in.Message} {
		*f = strings.TrimSpace(*f)
	}
	in.VisitorType = strings.ToLower(in.VisitorType)
	in.Email = strings.ToLower(in.Email)
	switch in.VisitorType {
	case model.VisitorParent:
		in.CompanyName, in.TraineeName, in.RepresentativeName = "", "", ""
	case model.VisitorCompany:
		in.ParentName, in.StudentName = "", ""
	}
}

// visitor maps the normalized input onto the stored representation. Empty
// optional fields become nil.
func (in VisitorInput) visitor() model.Visitor {
	return model.Visitor{
		Type:               in.VisitorType,
		ParentName:         optional(in.ParentName),
		StudentName:        optional(in.StudentName),
		CompanyName:        optional(in.CompanyName),
		TraineeName:        optional(in.TraineeName),
		RepresentativeName: optional(in.RepresentativeName),
		ClassName:          in.ClassName,
		Email:              in.Email,
		Message:            optional(in.Message),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Validator wraps go-playground/validator with German messages keyed by
// the JSON field name.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var germanTexts = map[string]string{
	"required":    "{0} ist ein Pflichtfeld",
	"required_if": "{0} ist ein Pflichtfeld",
	"email":       "{0} muss eine gültige E-Mail-Adresse sein",
	"oneof":       "{0} muss einer der folgenden Werte sein: {1}",
	"max":         "{0} darf höchstens {1} Zeichen lang sein",
	"min":         "{0} muss mindestens {1} Zeichen lang sein",
	"gt":          "{0} muss größer als {1} sein",
	"datetime":    "{0} hat ein ungültiges Format",
}

// NewValidator builds a Validator. It is safe for concurrent use.
func NewValidator() *Validator {
	locale := en.New()
	translator, _ := ut.New(locale, locale).GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, text := range germanTexts {
		registerTranslation(validate, translator, tag, text)
	}
	return &Validator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		})
}

// Struct validates v and converts failures into a *ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fe.Translate(v.translator)
		}
	}
	return invalid(fields)
}
