package service

import (
	"errors"
	"reflect"
	"strings"
	"study_plan_backend/internal/model"
	"study_plan_backend/internal/util"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	examDateTag  = "examdate"
	examDateText = "{0} must be a date in YYYY-MM-DD format"

	notBlankTag  = "notblank"
	notBlankText = "{0} must not be blank"

	requiredText = "{0} is required"
	minItemsText = "{0} must contain at least one item"
	uniqueText   = "{0} must not contain duplicates"
)

// RequestValidator 请求体校验器，错误信息使用 JSON 字段名
type RequestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewRequestValidator() *RequestValidator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(examDateTag, func(fl validator.FieldLevel) bool {
		_, err := util.ParseDate(fl.Field().String(), nil)
		return err == nil
	})
	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	validate.RegisterStructValidation(examPlanStructValidation, model.ExamPlanData{})

	v := &RequestValidator{validate: validate, translator: translator}
	_ = translator.Add("min_items", minItemsText, true)
	v.registerTranslation(examDateTag, examDateText, false)
	v.registerTranslation(notBlankTag, notBlankText, false)
	v.registerTranslation("required", requiredText, true)
	v.registerTranslation("unique", uniqueText, true)
	return v
}

func (v *RequestValidator) registerTranslation(tag, text string, override bool) {
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			key := tag
			// 列表为空时提示"至少选择一项"
			if tag == "required" && fe.Kind() == reflect.Slice {
				key = "min_items"
			}
			s, err := t.T(key, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

// examPlanStructValidation 对空白科目和空白时间段做结构级检查
func examPlanStructValidation(sl validator.StructLevel) {
	data := sl.Current().Interface().(model.ExamPlanData)
	if strings.TrimSpace(data.ExamName) == "" && data.ExamName != "" {
		sl.ReportError(data.ExamName, "examName", "ExamName", notBlankTag, "")
	}
	for _, s := range data.Subjects {
		if s != "" && strings.TrimSpace(s) == "" {
			sl.ReportError(data.Subjects, "subjects", "Subjects", notBlankTag, "")
			break
		}
	}
	seen := make(map[string]bool, len(data.Subjects))
	for _, s := range data.Subjects {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if seen[key] {
			sl.ReportError(data.Subjects, "subjects", "Subjects", "unique", "")
			break
		}
		seen[key] = true
	}
	for _, s := range data.StudyTimeSlots {
		if s != "" && strings.TrimSpace(s) == "" {
			sl.ReportError(data.StudyTimeSlots, "studyTimeSlots", "StudyTimeSlots", notBlankTag, "")
			break
		}
	}
}

// Validate 返回 *ValidationError，包含每个字段的错误信息
func (v *RequestValidator) Validate(req any) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(v.translator)})
	}
	return NewValidationError(ErrValidation, fields...)
}
