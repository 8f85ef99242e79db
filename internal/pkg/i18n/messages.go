package i18n

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	pt_BR_translations "github.com/go-playground/validator/v10/translations/pt_BR"
	"golang.org/x/text/language"
)

const (
	LocalePtBR = "pt_BR"
	LocaleEn   = "en"
)

// Application message keys.
const (
	KeyInvalidFields       = "problema.campos.invalidos"
	KeyInvalidID           = "problema.id.invalido"
	KeyMalformedBody       = "problema.corpo.invalido"
	KeyInternalError       = "problema.erro.interno"
	KeySearchParamRequired = "problema.busca.parametro"
	KeyUnauthorized        = "problema.nao.autorizado"
	KeyTooManyRequests     = "problema.muitas.requisicoes"
)

var catalog = map[string]map[string]string{
	LocalePtBR: {
		KeyInvalidFields:       "Um ou mais campos estão inválidos. Faça o preenchimento correto e tente novamente",
		KeyInvalidID:           "O identificador informado é inválido",
		KeyMalformedBody:       "O corpo da requisição está mal formado",
		KeyInternalError:       "Ocorreu um erro interno inesperado. Tente novamente e, se o problema persistir, contate o administrador do sistema",
		KeySearchParamRequired: "Informe o parâmetro de busca nome ou termo",
		KeyUnauthorized:        "Credenciais ausentes ou inválidas",
		KeyTooManyRequests:     "Muitas requisições. Tente novamente em instantes",
	},
	LocaleEn: {
		KeyInvalidFields:       "One or more fields are invalid. Fill them in correctly and try again",
		KeyInvalidID:           "The given identifier is invalid",
		KeyMalformedBody:       "The request body is malformed",
		KeyInternalError:       "An unexpected internal error occurred. Try again and, if the problem persists, contact the system administrator",
		KeySearchParamRequired: "Provide the nome or termo search parameter",
		KeyUnauthorized:        "Missing or invalid credentials",
		KeyTooManyRequests:     "Too many requests. Try again shortly",
	},
}

// MessageSource resolves application messages and validation failures for a
// request locale.
type MessageSource struct {
	uni           *ut.UniversalTranslator
	validate      *validator.Validate
	matcher       language.Matcher
	locales       []string
	defaultLocale string
}

func NewMessageSource(defaultLocale string) (*MessageSource, error) {
	if defaultLocale == "" {
		defaultLocale = LocalePtBR
	}

	ptBR := pt_BR.New()
	english := en.New()

	var fallback = ptBR
	if defaultLocale == LocaleEn {
		fallback = english
	} else if defaultLocale != LocalePtBR {
		return nil, fmt.Errorf("unsupported default locale %q", defaultLocale)
	}

	uni := ut.New(fallback, ptBR, english)

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	registrations := map[string]func(*validator.Validate, ut.Translator) error{
		LocalePtBR: pt_BR_translations.RegisterDefaultTranslations,
		LocaleEn:   en_translations.RegisterDefaultTranslations,
	}

	for locale, register := range registrations {
		trans, found := uni.GetTranslator(locale)
		if !found {
			return nil, fmt.Errorf("translator for locale %q not found", locale)
		}
		if err := register(validate, trans); err != nil {
			return nil, fmt.Errorf("failed to register validation translations for %q: %w", locale, err)
		}
		for key, text := range catalog[locale] {
			if err := trans.Add(key, text, true); err != nil {
				return nil, fmt.Errorf("failed to add message %q for %q: %w", key, locale, err)
			}
		}
	}

	// The first tag is the matcher's fallback.
	locales := []string{defaultLocale}
	if defaultLocale == LocalePtBR {
		locales = append(locales, LocaleEn)
	} else {
		locales = append(locales, LocalePtBR)
	}
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = tagFor(l)
	}

	return &MessageSource{
		uni:           uni,
		validate:      validate,
		matcher:       language.NewMatcher(tags),
		locales:       locales,
		defaultLocale: defaultLocale,
	}, nil
}

func tagFor(locale string) language.Tag {
	if locale == LocaleEn {
		return language.English
	}
	return language.BrazilianPortuguese
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Validate runs the struct tag rules of v. Failures come back as
// validator.ValidationErrors.
func (m *MessageSource) Validate(v any) error {
	return m.validate.Struct(v)
}

func (m *MessageSource) DefaultLocale() string {
	return m.defaultLocale
}

// TranslatorFor picks the translator that best matches an Accept-Language
// header value. An empty or unmatched header yields the default locale.
func (m *MessageSource) TranslatorFor(acceptLanguage string) ut.Translator {
	locale := m.defaultLocale
	if acceptLanguage != "" {
		_, idx := language.MatchStrings(m.matcher, acceptLanguage)
		if idx >= 0 && idx < len(m.locales) {
			locale = m.locales[idx]
		}
	}

	trans, _ := m.uni.GetTranslator(locale)
	return trans
}

// Message resolves key for trans, falling back to the key itself.
func (m *MessageSource) Message(trans ut.Translator, key string) string {
	text, err := trans.T(key)
	if err != nil {
		slog.Default().Warn("Message key not found", "key", key, "locale", trans.Locale(), "error", err)
		return key
	}
	return text
}
